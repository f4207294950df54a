package mastra

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/toasahi/ramen-agent/internal/domain"
	"github.com/toasahi/ramen-agent/internal/request"
)

type uiMessagePart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type uiMessage struct {
	ID        string          `json:"id" validate:"required"`
	Role      string          `json:"role" validate:"required,oneof=user assistant system tool"`
	Content   string          `json:"content"`
	Parts     []uiMessagePart `json:"parts"`
	CreatedAt *time.Time      `json:"createdAt"`
}

type messagesResponse struct {
	UIMessages []uiMessage `json:"uiMessages"`
}

// Messages fetches the persisted history for a thread. A 404 means the
// thread has no history yet and is reported as domain.ErrNotFound.
func (c *Client) Messages(ctx context.Context, threadID string) ([]domain.Message, error) {
	var resp messagesResponse
	err := c.memory.Do(ctx, request.Options{
		Method: http.MethodGet,
		Path:   "/memory/threads/" + threadID + "/messages",
		Query:  url.Values{"agentId": {c.agentID}},
	}, &resp)
	if err != nil {
		if request.IsNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	messages := make([]domain.Message, 0, len(resp.UIMessages))
	for _, m := range resp.UIMessages {
		messages = append(messages, m.toMessage())
	}
	return messages, nil
}

func (m uiMessage) toMessage() domain.Message {
	content := m.Content
	if content == "" && len(m.Parts) > 0 {
		var b strings.Builder
		for _, part := range m.Parts {
			if part.Type == "text" {
				b.WriteString(part.Text)
			}
		}
		content = b.String()
	}

	return domain.Message{
		ID:        m.ID,
		Role:      domain.MessageRole(m.Role),
		Content:   content,
		CreatedAt: m.CreatedAt,
	}
}
