package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/distillhq/distillery/internal/evaluation"
	"github.com/distillhq/distillery/internal/queue"
	"github.com/distillhq/distillery/internal/registry"
)

type EvalHandler struct {
	queue    *queue.Client
	reg      *registry.Registry
	embedder evaluation.Embedder
}

func NewEvalHandler(qc *queue.Client, reg *registry.Registry, embedder evaluation.Embedder) *EvalHandler {
	return &EvalHandler{queue: qc, reg: reg, embedder: embedder}
}

func (h *EvalHandler) Start(w http.ResponseWriter, r *http.Request) {
	var payload queue.EvalRunPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if payload.ValidationFile == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "validation_file required"})
		return
	}
	if len(payload.Candidates) < 2 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "at least two candidates required"})
		return
	}

	taskID, err := h.queue.EnqueueEvalRun(payload)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

func (h *EvalHandler) Scores(w http.ResponseWriter, r *http.Request) {
	if h.reg == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "registry not configured"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run ID"})
		return
	}

	scores, err := h.reg.ListEvalScores(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"scores": scores, "count": len(scores)})
}

// Similar searches the stored outputs of an evaluation run by semantic
// similarity to a free-text query.
func (h *EvalHandler) Similar(w http.ResponseWriter, r *http.Request) {
	if h.reg == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "registry not configured"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run ID"})
		return
	}

	var req struct {
		Query string `json:"query"`
		TopK  int    `json:"top_k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query required"})
		return
	}

	vec, err := h.embedder.EmbedSingle(r.Context(), req.Query)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	matches, err := h.reg.SimilarOutputs(r.Context(), id, vec, req.TopK)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"matches": matches, "count": len(matches)})
}
