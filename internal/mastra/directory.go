package mastra

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/toasahi/ramen-agent/internal/domain"
	"github.com/toasahi/ramen-agent/internal/request"
)

const titleMaxRunes = 30

// List returns the threads for the configured resource, newest first by
// default. A failing remote call degrades to an empty listing; the thread
// directory is allowed to be transiently empty.
func (c *Client) List(ctx context.Context, filter domain.ListFilter) []domain.ThreadSummary {
	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "updatedAt"
	}
	sortDirection := filter.SortDirection
	if sortDirection == "" {
		sortDirection = "DESC"
	}

	var records []threadRecord
	err := c.memory.Do(ctx, request.Options{
		Method: http.MethodGet,
		Path:   "/memory/threads",
		Query: url.Values{
			"resourceid":    {c.resourceID},
			"agentId":       {c.agentID},
			"orderBy":       {orderBy},
			"sortDirection": {sortDirection},
		},
	}, &records)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to fetch threads")
		return []domain.ThreadSummary{}
	}

	threads := make([]domain.ThreadSummary, 0, len(records))
	for _, rec := range records {
		threads = append(threads, rec.toSummary())
	}
	return threads
}

// Create persists a locally created thread. The local id is sent as the
// server's thread identifier, which makes repeated calls for the same slot
// idempotent.
func (c *Client) Create(ctx context.Context, localID, title string) (domain.ThreadSummary, error) {
	if title == "" {
		title = domain.DefaultThreadTitle
	}

	body := map[string]any{
		"threadId":   localID,
		"resourceId": c.resourceID,
		"title":      title,
		"metadata":   map[string]any{"archived": false},
	}

	var rec threadRecord
	err := c.memory.Do(ctx, request.Options{
		Method: http.MethodPost,
		Path:   "/memory/threads",
		Query:  url.Values{"agentId": {c.agentID}},
		Body:   body,
	}, &rec)
	if err != nil {
		return domain.ThreadSummary{}, fmt.Errorf("create thread: %w", err)
	}

	return rec.toSummary(), nil
}

// Rename updates a thread's title
func (c *Client) Rename(ctx context.Context, remoteID, title string) error {
	err := c.patch(ctx, remoteID, map[string]any{"title": title})
	if err != nil {
		return fmt.Errorf("rename thread: %w", err)
	}
	return nil
}

// SetArchived flips the thread's archive flag
func (c *Client) SetArchived(ctx context.Context, remoteID string, archived bool) error {
	err := c.patch(ctx, remoteID, map[string]any{
		"metadata": map[string]any{"archived": archived},
	})
	if err != nil {
		return fmt.Errorf("set archived: %w", err)
	}
	return nil
}

// Delete removes a thread from the remote service
func (c *Client) Delete(ctx context.Context, remoteID string) error {
	err := c.memory.Do(ctx, request.Options{
		Method: http.MethodDelete,
		Path:   "/memory/threads/" + remoteID,
		Query:  url.Values{"agentId": {c.agentID}},
	}, nil)
	if err != nil {
		if request.IsNotFound(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete thread: %w", err)
	}
	return nil
}

// FetchOne returns a single thread by its remote id
func (c *Client) FetchOne(ctx context.Context, remoteID string) (domain.ThreadSummary, error) {
	var rec threadRecord
	err := c.memory.Do(ctx, request.Options{
		Method: http.MethodGet,
		Path:   "/memory/threads/" + remoteID,
		Query:  url.Values{"agentId": {c.agentID}},
	}, &rec)
	if err != nil {
		if request.IsNotFound(err) {
			return domain.ThreadSummary{}, domain.ErrNotFound
		}
		return domain.ThreadSummary{}, fmt.Errorf("fetch thread: %w", err)
	}
	return rec.toSummary(), nil
}

// DeriveTitle builds a short title from the first user message and persists
// it. It never calls the summarizer; titling stays dependency-free.
func (c *Client) DeriveTitle(ctx context.Context, remoteID string, messages []domain.Message) (string, error) {
	title := domain.DefaultThreadTitle
	for _, m := range messages {
		if m.Role != domain.RoleUser {
			continue
		}
		if text := strings.TrimSpace(m.Content); text != "" {
			title = truncateTitle(text)
		}
		break
	}

	if err := c.Rename(ctx, remoteID, title); err != nil {
		return "", err
	}
	return title, nil
}

func (c *Client) patch(ctx context.Context, remoteID string, body map[string]any) error {
	err := c.memory.Do(ctx, request.Options{
		Method: http.MethodPatch,
		Path:   "/memory/threads/" + remoteID,
		Query:  url.Values{"agentId": {c.agentID}},
		Body:   body,
	}, nil)
	if err != nil && request.IsNotFound(err) {
		return domain.ErrNotFound
	}
	return err
}

func truncateTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= titleMaxRunes {
		return text
	}
	return string(runes[:titleMaxRunes]) + "..."
}

func (r threadRecord) toSummary() domain.ThreadSummary {
	summary := domain.ThreadSummary{
		ID:         r.ID,
		ResourceID: r.ResourceID,
		Title:      domain.DefaultThreadTitle,
		Status:     domain.ThreadStatusRegular,
	}
	if r.Title != nil && *r.Title != "" {
		summary.Title = *r.Title
	}
	if archived, ok := r.Metadata["archived"].(bool); ok && archived {
		summary.Status = domain.ThreadStatusArchived
	}
	if r.CreatedAt != nil {
		summary.CreatedAt = *r.CreatedAt
	}
	if r.UpdatedAt != nil {
		summary.UpdatedAt = *r.UpdatedAt
	}
	return summary
}
