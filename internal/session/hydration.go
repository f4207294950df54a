package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/toasahi/ramen-agent/internal/domain"
)

// HydrationGuard fetches a thread's history at most once per thread switch.
// It keeps the effective id of the last hydrated thread and suppresses
// fetches while that marker is unchanged, so redundant activations of the
// same conversation cannot overwrite live, not-yet-persisted assistant
// output with a stale snapshot.
type HydrationGuard struct {
	source domain.HistorySource
	logger zerolog.Logger

	mu     sync.Mutex
	marker string
}

// NewHydrationGuard creates a guard with an empty marker
func NewHydrationGuard(source domain.HistorySource, logger zerolog.Logger) *HydrationGuard {
	return &HydrationGuard{source: source, logger: logger}
}

// EnsureHydrated returns the history for effectiveID and whether a fresh
// fetch happened. The marker is advanced before the fetch, so a re-entrant
// call for the same id cannot double-fetch. A result that arrives after the
// marker moved on (the caller switched threads mid-fetch) is discarded
// rather than applied to whichever thread is now active.
//
// A missing history (new thread) and any other fetch failure both hydrate
// to an empty list so the conversation stays usable; only real failures are
// logged.
func (g *HydrationGuard) EnsureHydrated(ctx context.Context, effectiveID string) ([]domain.Message, bool) {
	if effectiveID == "" {
		return nil, false
	}

	g.mu.Lock()
	if g.marker == effectiveID {
		g.mu.Unlock()
		return nil, false
	}
	g.marker = effectiveID
	g.mu.Unlock()

	messages, err := g.source.Messages(ctx, effectiveID)

	g.mu.Lock()
	stale := g.marker != effectiveID
	g.mu.Unlock()
	if stale {
		return nil, false
	}

	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			g.logger.Warn().Err(err).Str("thread_id", effectiveID).Msg("history fetch failed")
		}
		return []domain.Message{}, true
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, true
}

// Marker returns the effective id of the last hydrated thread
func (g *HydrationGuard) Marker() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.marker
}
