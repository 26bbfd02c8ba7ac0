package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/distillhq/distillery/internal/queue"
	"github.com/distillhq/distillery/internal/registry"
)

type FinetuneHandler struct {
	queue *queue.Client
	reg   *registry.Registry
}

func NewFinetuneHandler(qc *queue.Client, reg *registry.Registry) *FinetuneHandler {
	return &FinetuneHandler{queue: qc, reg: reg}
}

func (h *FinetuneHandler) StartJob(w http.ResponseWriter, r *http.Request) {
	var payload queue.FinetuneRunPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if payload.TrainFile == "" || payload.BaseModel == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "train_file and base_model required"})
		return
	}

	if h.reg != nil {
		job, err := h.reg.CreateFinetuneJob(r.Context(), payload.BaseModel, payload.Suffix, payload.TrainFile, payload.ValidationFile)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		payload.JobID = job.ID.String()
	}

	taskID, err := h.queue.EnqueueFinetuneRun(payload)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID, "job_id": payload.JobID})
}

func (h *FinetuneHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	if h.reg == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "registry not configured"})
		return
	}

	jobs, err := h.reg.ListFinetuneJobs(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": jobs, "count": len(jobs)})
}

func (h *FinetuneHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	if h.reg == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "registry not configured"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid job ID"})
		return
	}

	job, err := h.reg.GetFinetuneJob(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (h *FinetuneHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	if h.reg == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "registry not configured"})
		return
	}

	entries, err := h.reg.ListModels(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"models": entries, "count": len(entries)})
}
