package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/toasahi/ramen-agent/internal/domain"
)

// ErrNotReady reports a send attempted before the session finished seeding
// its history. Sends are gated until initialization completes so a live
// turn can never interleave with hydration.
var ErrNotReady = errors.New("session: not seeded yet")

// ChatSession owns the live message list for one active thread. It is
// created per thread switch, seeded exactly once from the hydration guard's
// result, and then accepts sends whose streamed replies are appended in
// arrival order.
type ChatSession struct {
	transport   domain.ChatTransport
	effectiveID func() string
	logger      zerolog.Logger

	mu       sync.Mutex
	messages []domain.Message
	seeded   bool
	handlers []func(domain.Chunk)
	sendErrs map[string]error
}

// NewChatSession creates an unseeded session. effectiveID is re-evaluated
// on every send because the slot may bind between construction and the
// first send.
func NewChatSession(transport domain.ChatTransport, effectiveID func() string, logger zerolog.Logger) *ChatSession {
	return &ChatSession{
		transport:   transport,
		effectiveID: effectiveID,
		logger:      logger,
		sendErrs:    make(map[string]error),
	}
}

// Seed installs the hydrated history. Only the first call takes effect;
// re-seeding an active session would clobber live state, so later calls
// report false and change nothing.
func (s *ChatSession) Seed(history []domain.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seeded {
		return false
	}
	s.messages = append(s.messages, history...)
	s.seeded = true
	return true
}

// Ready reports whether the session accepts sends
func (s *ChatSession) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seeded
}

// OnChunk registers a handler invoked for every incoming chunk, in arrival
// order, from the goroutine running Send.
func (s *ChatSession) OnChunk(fn func(domain.Chunk)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, fn)
}

// Send submits text as a new user message and drains the streamed reply
// into a single growing assistant message. The outgoing message gets a
// fresh id, distinct from any thread id. Optional sinks observe this send's
// chunks only, alongside any long-lived OnChunk handlers. Failures are
// recorded against the user message and returned; the session itself stays
// usable.
func (s *ChatSession) Send(ctx context.Context, text string, sinks ...func(domain.Chunk)) (domain.Message, error) {
	s.mu.Lock()
	if !s.seeded {
		s.mu.Unlock()
		return domain.Message{}, ErrNotReady
	}

	userMsg := domain.Message{
		ID:      uuid.NewString(),
		Role:    domain.RoleUser,
		Content: text,
	}
	s.messages = append(s.messages, userMsg)
	outgoing := make([]domain.Message, len(s.messages))
	copy(outgoing, s.messages)
	handlers := append([]func(domain.Chunk){}, s.handlers...)
	handlers = append(handlers, sinks...)
	s.mu.Unlock()

	stream, err := s.transport.Stream(ctx, s.effectiveID(), outgoing)
	if err != nil {
		s.recordSendError(userMsg.ID, err)
		return userMsg, fmt.Errorf("send message: %w", err)
	}
	defer stream.Close()

	s.mu.Lock()
	s.messages = append(s.messages, domain.Message{
		ID:   uuid.NewString(),
		Role: domain.RoleAssistant,
	})
	idx := len(s.messages) - 1
	s.mu.Unlock()

	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Partial assistant output stays; the failure is recoverable
			// per message, not fatal to the session.
			s.recordSendError(userMsg.ID, err)
			return userMsg, fmt.Errorf("read reply: %w", err)
		}

		s.mu.Lock()
		s.messages[idx].Content += chunk.Text
		s.mu.Unlock()

		for _, h := range handlers {
			h(chunk)
		}
	}

	return userMsg, nil
}

// Messages returns a snapshot of the live message list
func (s *ChatSession) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SendError returns the recorded failure for a message id, if any
func (s *ChatSession) SendError(messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendErrs[messageID]
}

func (s *ChatSession) recordSendError(messageID string, err error) {
	s.mu.Lock()
	s.sendErrs[messageID] = err
	s.mu.Unlock()
	s.logger.Warn().Err(err).Str("message_id", messageID).Msg("send failed")
}
