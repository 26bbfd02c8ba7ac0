package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/distillhq/distillery/internal/dataset"
)

// DatasetsHandler operates on conversation files already on disk. The
// API serves deployments where the data directory is shared between the
// server and the workers.
type DatasetsHandler struct{}

func NewDatasetsHandler() *DatasetsHandler {
	return &DatasetsHandler{}
}

func (h *DatasetsHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "path required"})
		return
	}

	result, err := dataset.ValidateFile(req.Path)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *DatasetsHandler) Split(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path       string  `json:"path"`
		Seed       int64   `json:"seed"`
		TrainRatio float64 `json:"train_ratio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "path required"})
		return
	}
	if req.TrainRatio <= 0 || req.TrainRatio >= 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "train_ratio must be in (0, 1)"})
		return
	}

	records, err := dataset.ReadConversationFile(req.Path)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	train, test := dataset.Split(records, dataset.SplitOptions{Seed: req.Seed, TrainRatio: req.TrainRatio})

	base := strings.TrimSuffix(req.Path, ".jsonl")
	trainPath := base + "_train.jsonl"
	testPath := base + "_test.jsonl"
	if err := dataset.WriteFile(trainPath, train); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if err := dataset.WriteFile(testPath, test); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"train_file":  trainPath,
		"test_file":   testPath,
		"train_count": len(train),
		"test_count":  len(test),
	})
}
