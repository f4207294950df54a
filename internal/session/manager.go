package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/toasahi/ramen-agent/internal/domain"
)

// ErrUnknownSlot reports a conversation slot id the manager has never seen
var ErrUnknownSlot = fmt.Errorf("session: unknown slot")

// Manager drives the conversation runtime for a set of thread slots. It
// mirrors the single-threaded UI model: one conversation is active at a
// time, thread switches reinitialize the chat session, and a single
// hydration marker spans the whole runtime so returning to a thread after
// visiting another re-fetches its history.
type Manager struct {
	directory domain.ThreadDirectory
	history   domain.HistorySource
	transport domain.ChatTransport
	logger    zerolog.Logger

	mu    sync.Mutex
	slots map[string]*Slot

	// convMu serializes activation and sends, standing in for the
	// cooperative event loop of the conversation view.
	convMu   sync.Mutex
	guard    *HydrationGuard
	active   *ChatSession
	activeID string
}

// NewManager creates a runtime over the given collaborators, once per
// process.
func NewManager(directory domain.ThreadDirectory, history domain.HistorySource, transport domain.ChatTransport, logger zerolog.Logger) *Manager {
	return &Manager{
		directory: directory,
		history:   history,
		transport: transport,
		logger:    logger,
		slots:     make(map[string]*Slot),
		guard:     NewHydrationGuard(history, logger),
	}
}

// CreateSlot registers a fresh local-only slot and returns it
func (m *Manager) CreateSlot() *Slot {
	slot := NewSlot()
	m.mu.Lock()
	m.slots[slot.LocalID()] = slot
	m.mu.Unlock()
	return slot
}

// Slot looks up a slot by its local id
func (m *Manager) Slot(slotID string) (*Slot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.slots[slotID]
	return slot, ok
}

// Activate makes the slot's conversation current. If its effective id
// differs from the active session's, the history is hydrated (guarded
// against redundant fetches) and a new seeded session replaces the old one.
// Re-activating the current conversation is a no-op and issues no fetch.
func (m *Manager) Activate(ctx context.Context, slotID string) (*ChatSession, error) {
	slot, ok := m.Slot(slotID)
	if !ok {
		return nil, ErrUnknownSlot
	}

	m.convMu.Lock()
	defer m.convMu.Unlock()
	return m.activate(ctx, slot), nil
}

func (m *Manager) activate(ctx context.Context, slot *Slot) *ChatSession {
	eff := slot.EffectiveID()
	history, _ := m.guard.EnsureHydrated(ctx, eff)

	if m.active == nil || m.activeID != eff {
		sess := NewChatSession(m.transport, slot.EffectiveID, m.logger)
		sess.Seed(history)
		m.active = sess
		m.activeID = eff
	}
	return m.active
}

// Send routes one user turn through the slot's conversation. An unbound
// slot is first created remotely, using its local id as the idempotency
// key, so concurrent first sends cannot bind two different remote ids.
// After the first successful turn of an untitled thread, a title is derived
// from the user message and persisted, best effort.
func (m *Manager) Send(ctx context.Context, slotID, text string, sinks ...func(domain.Chunk)) (domain.Message, *ChatSession, error) {
	slot, ok := m.Slot(slotID)
	if !ok {
		return domain.Message{}, nil, ErrUnknownSlot
	}

	m.convMu.Lock()
	defer m.convMu.Unlock()

	if !slot.Bound() {
		summary, err := m.directory.Create(ctx, slot.LocalID(), slot.Title())
		if err != nil {
			return domain.Message{}, nil, fmt.Errorf("bind thread: %w", err)
		}
		if err := slot.Bind(summary.ID); err != nil {
			return domain.Message{}, nil, err
		}
	}

	sess := m.activate(ctx, slot)
	msg, err := sess.Send(ctx, text, sinks...)
	if err != nil {
		return msg, sess, err
	}

	if slot.Title() == domain.DefaultThreadTitle {
		title, err := m.directory.DeriveTitle(ctx, slot.RemoteID(), sess.Messages())
		if err != nil {
			m.logger.Warn().Err(err).Str("thread_id", slot.RemoteID()).Msg("title derivation failed")
		} else {
			slot.SetTitle(title)
		}
	}

	return msg, sess, nil
}

// Delete destroys a slot locally and, when bound, deletes the remote thread
func (m *Manager) Delete(ctx context.Context, slotID string) error {
	slot, ok := m.Slot(slotID)
	if !ok {
		return ErrUnknownSlot
	}

	if slot.Bound() {
		if err := m.directory.Delete(ctx, slot.RemoteID()); err != nil {
			return err
		}
	}

	m.mu.Lock()
	delete(m.slots, slotID)
	m.mu.Unlock()

	m.convMu.Lock()
	if m.activeID == slot.EffectiveID() {
		m.active = nil
		m.activeID = ""
	}
	m.convMu.Unlock()
	return nil
}
