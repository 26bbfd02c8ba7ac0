package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/distillhq/distillery/internal/config"
	"github.com/distillhq/distillery/internal/queue"
	"github.com/distillhq/distillery/internal/registry"
)

type RunsHandler struct {
	queue    *queue.Client
	reg      *registry.Registry
	defaults config.PipelineConfig
}

func NewRunsHandler(qc *queue.Client, reg *registry.Registry, defaults config.PipelineConfig) *RunsHandler {
	return &RunsHandler{queue: qc, reg: reg, defaults: defaults}
}

// Generate enqueues a generation run. The batch can take hours, so the
// API only hands the payload to a worker and returns 202.
func (h *RunsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var payload queue.BatchGeneratePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if payload.PromptsFile == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "prompts_file required"})
		return
	}
	if payload.Model == "" {
		payload.Model = h.defaults.DefaultModel
	}
	if payload.MaxTokens <= 0 {
		payload.MaxTokens = h.defaults.MaxTokens
	}

	taskID, err := h.queue.EnqueueBatchGenerate(payload)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.reg == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "registry not configured"})
		return
	}

	runs, err := h.reg.ListRuns(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs, "count": len(runs)})
}

func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.reg == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "registry not configured"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run ID"})
		return
	}

	run, err := h.reg.GetRun(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}

	writeJSON(w, http.StatusOK, run)
}
