package mastra

import (
	"context"
	"fmt"
	"net/http"

	"github.com/toasahi/ramen-agent/internal/domain"
	"github.com/toasahi/ramen-agent/internal/request"
)

type chatMessage struct {
	ID      string `json:"id,omitempty"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages   []chatMessage `json:"messages"`
	ThreadID   string        `json:"threadId"`
	ResourceID string        `json:"resourceId"`
}

// Stream submits a conversation turn to the agent's chat endpoint and
// returns the chunk stream of the assistant's reply. The thread id routes
// the turn to the right persisted conversation.
func (c *Client) Stream(ctx context.Context, threadID string, messages []domain.Message) (domain.ChunkStream, error) {
	body := chatRequest{
		Messages:   make([]chatMessage, 0, len(messages)),
		ThreadID:   threadID,
		ResourceID: c.resourceID,
	}
	for _, m := range messages {
		body.Messages = append(body.Messages, chatMessage{
			ID:      m.ID,
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	rc, err := c.chat.DoStream(ctx, request.Options{
		Method: http.MethodPost,
		Path:   "/chat/" + c.agentID,
		Body:   body,
	})
	if err != nil {
		return nil, fmt.Errorf("open chat stream: %w", err)
	}

	return newChunkStream(rc), nil
}
