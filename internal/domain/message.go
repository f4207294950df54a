package domain

import (
	"context"
	"time"
)

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
	RoleTool      MessageRole = "tool"
)

// Message represents a chat message in a thread. Instances are immutable
// once created, except for the streaming append into the most recent
// assistant message.
type Message struct {
	ID      string      `json:"id"`
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
	// CreatedAt is present for persisted history and absent for sends that
	// have not been acknowledged yet.
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Chunk is one incremental unit of a streamed assistant response
type Chunk struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ChunkStream is a finite, ordered sequence of chunks for one response.
// Recv returns io.EOF when the stream is done; a stream is not restartable
// once closed.
type ChunkStream interface {
	Recv() (Chunk, error)
	Close() error
}

// ChatTransport submits a conversation turn to the agent and streams back
// the assistant's reply.
type ChatTransport interface {
	Stream(ctx context.Context, threadID string, messages []Message) (ChunkStream, error)
}
