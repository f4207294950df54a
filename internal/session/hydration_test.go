package session

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/toasahi/ramen-agent/internal/domain"
)

func TestHydrationGuard_FetchesOncePerThread(t *testing.T) {
	source := newCountingHistory()
	source.messages["A"] = []domain.Message{{ID: "m1", Role: domain.RoleUser, Content: "hi"}}
	guard := NewHydrationGuard(source, zerolog.Nop())
	ctx := context.Background()

	messages, fetched := guard.EnsureHydrated(ctx, "A")
	assert.True(t, fetched)
	assert.Len(t, messages, 1)
	assert.Equal(t, 1, source.calls["A"])

	// A redundant activation of the same thread must not hit the network.
	messages, fetched = guard.EnsureHydrated(ctx, "A")
	assert.False(t, fetched)
	assert.Nil(t, messages)
	assert.Equal(t, 1, source.calls["A"])
}

func TestHydrationGuard_MarkerIsNotStickyAcrossRoundTrip(t *testing.T) {
	source := newCountingHistory()
	guard := NewHydrationGuard(source, zerolog.Nop())
	ctx := context.Background()

	guard.EnsureHydrated(ctx, "A")
	guard.EnsureHydrated(ctx, "B")
	guard.EnsureHydrated(ctx, "A")

	assert.Equal(t, 2, source.calls["A"])
	assert.Equal(t, 1, source.calls["B"])
}

func TestHydrationGuard_NotFoundHydratesEmpty(t *testing.T) {
	source := newCountingHistory()
	source.err = domain.ErrNotFound
	guard := NewHydrationGuard(source, zerolog.Nop())

	messages, fetched := guard.EnsureHydrated(context.Background(), "fresh")
	assert.True(t, fetched)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}

func TestHydrationGuard_OtherFailuresHydrateEmpty(t *testing.T) {
	source := newCountingHistory()
	source.err = errors.New("upstream down")
	guard := NewHydrationGuard(source, zerolog.Nop())

	messages, fetched := guard.EnsureHydrated(context.Background(), "A")
	assert.True(t, fetched)
	assert.Empty(t, messages)

	// The marker advanced, so the failed thread is not refetched until a
	// switch away and back.
	_, fetched = guard.EnsureHydrated(context.Background(), "A")
	assert.False(t, fetched)
}

func TestHydrationGuard_SkipsAbsentID(t *testing.T) {
	source := newCountingHistory()
	guard := NewHydrationGuard(source, zerolog.Nop())

	messages, fetched := guard.EnsureHydrated(context.Background(), "")
	assert.False(t, fetched)
	assert.Nil(t, messages)
	assert.Empty(t, source.calls)
}

// hijackedHistory runs a callback mid-fetch, simulating a thread switch
// racing an in-flight hydration.
type hijackedHistory struct {
	hijack  func(threadID string)
	payload []domain.Message
}

func (h *hijackedHistory) Messages(_ context.Context, threadID string) ([]domain.Message, error) {
	if h.hijack != nil {
		h.hijack(threadID)
	}
	return h.payload, nil
}

func TestHydrationGuard_StaleFetchIsDiscarded(t *testing.T) {
	source := &hijackedHistory{payload: []domain.Message{{ID: "old", Role: domain.RoleAssistant}}}
	guard := NewHydrationGuard(source, zerolog.Nop())

	// While A's fetch is in flight the user switches to B; A's result must
	// not be applied.
	source.hijack = func(threadID string) {
		if threadID != "A" {
			return
		}
		source.hijack = nil
		guard.EnsureHydrated(context.Background(), "B")
	}

	messages, fetched := guard.EnsureHydrated(context.Background(), "A")
	assert.False(t, fetched)
	assert.Nil(t, messages)
	assert.Equal(t, "B", guard.Marker())
}
