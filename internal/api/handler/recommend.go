package handler

import (
	"encoding/json"
	"net/http"

	"github.com/toasahi/ramen-agent/internal/api/response"
	"github.com/toasahi/ramen-agent/internal/places"
	"github.com/toasahi/ramen-agent/internal/workflow"
)

// RecommendHandler runs the recommendation pipeline directly
type RecommendHandler struct {
	workflow *workflow.RamenWorkflow
}

// NewRecommendHandler creates a new recommend handler
func NewRecommendHandler(wf *workflow.RamenWorkflow) *RecommendHandler {
	return &RecommendHandler{workflow: wf}
}

// Recommend searches ramen shops for a region and returns the summarized
// digest
func (h *RecommendHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prefecture string `json:"prefecture"`
		City       string `json:"city"`
		Name       string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.Prefecture == "" {
		response.BadRequest(w, "prefecture is required")
		return
	}

	digest, err := h.workflow.Run(r.Context(), places.Query{
		Prefecture: req.Prefecture,
		City:       req.City,
		Name:       req.Name,
	})
	if err != nil {
		response.InternalError(w, "failed to build recommendation")
		return
	}

	response.OK(w, map[string]string{"digest": digest})
}
