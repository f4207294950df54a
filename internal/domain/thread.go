package domain

import (
	"context"
	"time"
)

// DefaultThreadTitle is the placeholder title for a thread that has not been
// renamed or auto-titled yet.
const DefaultThreadTitle = "新しい会話"

// ThreadStatus represents the visibility state of a thread
type ThreadStatus string

const (
	ThreadStatusRegular  ThreadStatus = "regular"
	ThreadStatusArchived ThreadStatus = "archived"
)

// ThreadSummary represents a server-persisted conversation thread
type ThreadSummary struct {
	ID         string       `json:"id"`
	ResourceID string       `json:"resource_id"`
	Title      string       `json:"title"`
	Status     ThreadStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at,omitempty"`
	UpdatedAt  time.Time    `json:"updated_at,omitempty"`
}

// ListFilter narrows and orders a thread listing
type ListFilter struct {
	OrderBy       string
	SortDirection string
}

// ThreadDirectory defines the remote CRUD surface over threads.
// Implementations are pure request/response and hold no local state.
type ThreadDirectory interface {
	// List returns the threads for the configured resource. A failing remote
	// call yields an empty slice, not an error; the listing view is allowed
	// to be transiently empty.
	List(ctx context.Context, filter ListFilter) []ThreadSummary

	// Create persists a locally created thread. The local id doubles as the
	// server's idempotency key, so repeated calls with the same localID are
	// safe.
	Create(ctx context.Context, localID, title string) (ThreadSummary, error)

	Rename(ctx context.Context, remoteID, title string) error
	SetArchived(ctx context.Context, remoteID string, archived bool) error
	Delete(ctx context.Context, remoteID string) error
	FetchOne(ctx context.Context, remoteID string) (ThreadSummary, error)

	// DeriveTitle computes a short title from the first user message and
	// persists it via Rename.
	DeriveTitle(ctx context.Context, remoteID string, messages []Message) (string, error)
}

// HistorySource fetches a thread's past messages.
type HistorySource interface {
	// Messages returns the persisted history for a thread. A thread with no
	// history yet reports ErrNotFound.
	Messages(ctx context.Context, threadID string) ([]Message, error)
}
