package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/toasahi/ramen-agent/internal/api/response"
	"github.com/toasahi/ramen-agent/internal/domain"
)

// MessageHandler serves persisted thread history
type MessageHandler struct {
	history domain.HistorySource
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(history domain.HistorySource) *MessageHandler {
	return &MessageHandler{history: history}
}

// List returns the message history for a thread. A thread with no history
// yet yields an empty list, not an error.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	messages, err := h.history.Messages(r.Context(), threadID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		response.InternalError(w, "failed to fetch messages")
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	response.OK(w, map[string]any{"messages": messages})
}
