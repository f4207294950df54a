package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/toasahi/ramen-agent/internal/api/response"
	"github.com/toasahi/ramen-agent/internal/domain"
	"github.com/toasahi/ramen-agent/internal/session"
)

// ConversationHandler exposes the conversation runtime over HTTP
type ConversationHandler struct {
	manager *session.Manager
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(manager *session.Manager) *ConversationHandler {
	return &ConversationHandler{manager: manager}
}

// Create opens a fresh local-only conversation slot
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	slot := h.manager.CreateSlot()

	response.Created(w, map[string]any{
		"slot_id":      slot.LocalID(),
		"effective_id": slot.EffectiveID(),
		"title":        slot.Title(),
	})
}

// Get activates a slot's conversation and returns its current messages.
// Activation hydrates history once per thread switch; repeated calls for
// the active slot issue no history fetch.
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	slotID := chi.URLParam(r, "slotID")

	sess, err := h.manager.Activate(r.Context(), slotID)
	if err != nil {
		if errors.Is(err, session.ErrUnknownSlot) {
			response.NotFound(w, "unknown conversation")
			return
		}
		response.InternalError(w, "failed to activate conversation")
		return
	}

	slot, _ := h.manager.Slot(slotID)
	response.OK(w, map[string]any{
		"slot_id":      slotID,
		"effective_id": slot.EffectiveID(),
		"title":        slot.Title(),
		"messages":     sess.Messages(),
	})
}

// Send routes one user turn through the conversation and streams the
// assistant's reply back as server-sent events, chunk by chunk in arrival
// order.
func (h *ConversationHandler) Send(w http.ResponseWriter, r *http.Request) {
	slotID := chi.URLParam(r, "slotID")

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		response.BadRequest(w, "text is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalError(w, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sink := func(chunk domain.Chunk) {
		payload, err := json.Marshal(chunk)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	msg, _, err := h.manager.Send(r.Context(), slotID, req.Text, sink)
	if err != nil {
		if errors.Is(err, session.ErrUnknownSlot) {
			// Headers not sent yet for this case; Send fails before streaming.
			response.NotFound(w, "unknown conversation")
			return
		}
		log.Warn().Err(err).Str("slot_id", slotID).Msg("conversation send failed")
		fmt.Fprintf(w, "data: {\"type\":\"error\",\"message_id\":%q}\n\n", msg.ID)
		flusher.Flush()
		return
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// Delete destroys a conversation slot and its remote thread
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	slotID := chi.URLParam(r, "slotID")

	if err := h.manager.Delete(r.Context(), slotID); err != nil {
		if errors.Is(err, session.ErrUnknownSlot) {
			response.NotFound(w, "unknown conversation")
			return
		}
		response.InternalError(w, "failed to delete conversation")
		return
	}

	response.NoContent(w)
}
