package mastra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toasahi/ramen-agent/internal/config"
	"github.com/toasahi/ramen-agent/internal/domain"
	"github.com/toasahi/ramen-agent/internal/request"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.MastraConfig{
		BaseURL:    server.URL,
		AgentID:    "ramenAgent",
		ResourceID: "ramen-user",
	}
	policy := request.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond, Timeout: time.Second}
	return NewClient(cfg, policy, zerolog.Nop())
}

func TestList_ReturnsThreadsNewestFirst(t *testing.T) {
	title := "昨日の相談"
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/memory/threads", r.URL.Path)
		assert.Equal(t, "ramen-user", r.URL.Query().Get("resourceid"))
		assert.Equal(t, "ramenAgent", r.URL.Query().Get("agentId"))
		assert.Equal(t, "updatedAt", r.URL.Query().Get("orderBy"))
		assert.Equal(t, "DESC", r.URL.Query().Get("sortDirection"))

		json.NewEncoder(w).Encode([]threadRecord{
			{ID: "t2", Title: &title},
			{ID: "t1", Metadata: map[string]any{"archived": true}},
		})
	}))

	threads := client.List(context.Background(), domain.ListFilter{})
	require.Len(t, threads, 2)
	assert.Equal(t, "昨日の相談", threads[0].Title)
	assert.Equal(t, domain.ThreadStatusRegular, threads[0].Status)

	// A missing title falls back to the default label.
	assert.Equal(t, domain.DefaultThreadTitle, threads[1].Title)
	assert.Equal(t, domain.ThreadStatusArchived, threads[1].Status)
}

func TestList_DegradesToEmptyOnFailure(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	threads := client.List(context.Background(), domain.ListFilter{})
	assert.NotNil(t, threads)
	assert.Empty(t, threads)
}

func TestCreate_SendsLocalIDAsThreadID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/memory/threads", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "local-123", body["threadId"])
		assert.Equal(t, "ramen-user", body["resourceId"])
		assert.Equal(t, domain.DefaultThreadTitle, body["title"])
		metadata, ok := body["metadata"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, false, metadata["archived"])

		json.NewEncoder(w).Encode(threadRecord{ID: "remote-456"})
	}))

	summary, err := client.Create(context.Background(), "local-123", "")
	require.NoError(t, err)
	assert.Equal(t, "remote-456", summary.ID)
}

func TestFetchOne_MapsMissingThreadToNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := client.FetchOne(context.Background(), "gone")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = client.Delete(context.Background(), "gone")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetArchived_PatchesMetadata(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/api/memory/threads/t1", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		metadata, ok := body["metadata"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, true, metadata["archived"])
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, client.SetArchived(context.Background(), "t1", true))
}

func TestDeriveTitle_UsesFirstUserMessage(t *testing.T) {
	var renamed string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		renamed, _ = body["title"].(string)
		w.WriteHeader(http.StatusOK)
	}))

	title, err := client.DeriveTitle(context.Background(), "t1", []domain.Message{
		{Role: domain.RoleAssistant, Content: "いらっしゃいませ"},
		{Role: domain.RoleUser, Content: "  東京でおすすめの豚骨ラーメン  "},
	})
	require.NoError(t, err)
	assert.Equal(t, "東京でおすすめの豚骨ラーメン", title)
	assert.Equal(t, title, renamed)
}

func TestDeriveTitle_TruncatesLongJapaneseInput(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	long := "味噌も醤油も塩も豚骨も家系も二郎系も全部好きなので今日の気分に合う一杯を選んでほしい"
	title, err := client.DeriveTitle(context.Background(), "t1", []domain.Message{
		{Role: domain.RoleUser, Content: long},
	})
	require.NoError(t, err)
	assert.Equal(t, string([]rune(long)[:titleMaxRunes])+"...", title)
}

func TestDeriveTitle_NoUserMessageKeepsDefault(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	title, err := client.DeriveTitle(context.Background(), "t1", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultThreadTitle, title)
}
