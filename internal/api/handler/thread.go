package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/toasahi/ramen-agent/internal/api/response"
	"github.com/toasahi/ramen-agent/internal/domain"
)

// ThreadHandler proxies thread CRUD to the remote directory
type ThreadHandler struct {
	directory domain.ThreadDirectory
}

// NewThreadHandler creates a new thread handler
func NewThreadHandler(directory domain.ThreadDirectory) *ThreadHandler {
	return &ThreadHandler{directory: directory}
}

// List returns all threads for the configured resource. Remote failure
// degrades to an empty listing inside the directory, so this never errors.
func (h *ThreadHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.ListFilter{
		OrderBy:       r.URL.Query().Get("orderBy"),
		SortDirection: r.URL.Query().Get("sortDirection"),
	}

	threads := h.directory.List(r.Context(), filter)
	response.OK(w, threads)
}

// Create persists a new thread. The caller may supply its locally generated
// thread id; one is generated otherwise.
func (h *ThreadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ThreadID string `json:"threadId"`
		Title    string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.ThreadID == "" {
		req.ThreadID = uuid.NewString()
	}

	thread, err := h.directory.Create(r.Context(), req.ThreadID, req.Title)
	if err != nil {
		response.InternalError(w, "failed to create thread")
		return
	}

	response.Created(w, thread)
}

// Get returns a single thread
func (h *ThreadHandler) Get(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	thread, err := h.directory.FetchOne(r.Context(), threadID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "thread not found")
			return
		}
		response.InternalError(w, "failed to fetch thread")
		return
	}

	response.OK(w, thread)
}

// Update renames a thread and/or flips its archive flag
func (h *ThreadHandler) Update(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	var req struct {
		Title    *string `json:"title"`
		Archived *bool   `json:"archived"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if req.Title != nil {
		if err := h.directory.Rename(r.Context(), threadID, *req.Title); err != nil {
			h.updateError(w, err)
			return
		}
	}
	if req.Archived != nil {
		if err := h.directory.SetArchived(r.Context(), threadID, *req.Archived); err != nil {
			h.updateError(w, err)
			return
		}
	}

	response.OK(w, map[string]string{"id": threadID})
}

// Delete removes a thread
func (h *ThreadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	if err := h.directory.Delete(r.Context(), threadID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "thread not found")
			return
		}
		response.InternalError(w, "failed to delete thread")
		return
	}

	response.NoContent(w)
}

func (h *ThreadHandler) updateError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		response.NotFound(w, "thread not found")
		return
	}
	response.InternalError(w, "failed to update thread")
}
