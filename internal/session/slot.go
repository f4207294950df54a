// Package session implements the conversation runtime: thread identity
// resolution, history hydration and the live streaming chat session.
package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/toasahi/ramen-agent/internal/domain"
)

// Slot is a UI-visible conversation slot. It starts Local, with only a
// client-generated id, and becomes Bound exactly once when the server
// confirms the thread. The transition is irreversible.
type Slot struct {
	mu       sync.Mutex
	localID  string
	remoteID string
	title    string
	status   domain.ThreadStatus
}

// NewSlot creates a fresh local-only slot with a generated local id
func NewSlot() *Slot {
	return &Slot{
		localID: uuid.NewString(),
		title:   domain.DefaultThreadTitle,
		status:  domain.ThreadStatusRegular,
	}
}

// EffectiveID is the single identifier used for both the chat transport and
// history hydration: the remote id when bound, the local id before that.
// Consumers must re-read it around sends rather than caching it, because a
// slot can bind between the moment a send is queued and the moment it goes
// out.
func (s *Slot) EffectiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remoteID != "" {
		return s.remoteID
	}
	return s.localID
}

// Bind records the server-confirmed id. It fires once; a second call with
// the same id is a no-op and a conflicting id is an error.
func (s *Slot) Bind(remoteID string) error {
	if remoteID == "" {
		return fmt.Errorf("session: bind with empty remote id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remoteID != "" {
		if s.remoteID != remoteID {
			return fmt.Errorf("session: slot already bound to %s, refusing %s", s.remoteID, remoteID)
		}
		return nil
	}
	s.remoteID = remoteID
	return nil
}

// Bound reports whether the server has confirmed the thread
func (s *Slot) Bound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remoteID != ""
}

// LocalID returns the client-generated id, stable for the slot's lifetime
func (s *Slot) LocalID() string {
	return s.localID
}

// RemoteID returns the server-confirmed id, empty while Local
func (s *Slot) RemoteID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remoteID
}

// Title returns the display title
func (s *Slot) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// SetTitle updates the display title
func (s *Slot) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if title != "" {
		s.title = title
	}
}

// Status returns the archive state
func (s *Slot) Status() domain.ThreadStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetStatus updates the archive state
func (s *Slot) SetStatus(status domain.ThreadStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}
