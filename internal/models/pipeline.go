package models

import (
	"time"

	"github.com/google/uuid"
)

// BatchRun is one pipeline execution: a generation or evaluation run
// backed by a single remote batch job.
type BatchRun struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Kind        string     `json:"kind" db:"kind"`
	Model       string     `json:"model" db:"model"`
	JobID       string     `json:"job_id,omitempty" db:"job_id"`
	InputFile   string     `json:"input_file,omitempty" db:"input_file"`
	OutputFile  string     `json:"output_file,omitempty" db:"output_file"`
	DatasetFile string     `json:"dataset_file,omitempty" db:"dataset_file"`
	Status      string     `json:"status" db:"status"`
	RecordCount int        `json:"record_count" db:"record_count"`
	Error       string     `json:"error,omitempty" db:"error"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// FinetuneJob mirrors a provider fine-tuning job.
type FinetuneJob struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	ProviderJobID  string     `json:"provider_job_id,omitempty" db:"provider_job_id"`
	BaseModel      string     `json:"base_model" db:"base_model"`
	Suffix         string     `json:"suffix,omitempty" db:"suffix"`
	TrainFile      string     `json:"train_file" db:"train_file"`
	ValidationFile string     `json:"validation_file,omitempty" db:"validation_file"`
	Status         string     `json:"status" db:"status"`
	FineTunedModel string     `json:"fine_tuned_model,omitempty" db:"fine_tuned_model"`
	Error          string     `json:"error,omitempty" db:"error"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// ModelEntry records a usable model produced by a fine-tuning job.
type ModelEntry struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	ModelID       string     `json:"model_id" db:"model_id"`
	BaseModel     string     `json:"base_model,omitempty" db:"base_model"`
	FinetuneJobID *uuid.UUID `json:"finetune_job_id,omitempty" db:"finetune_job_id"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// EvalScore is one pairwise model comparison: separate string and
// numeric similarity means, never combined.
type EvalScore struct {
	ID             uuid.UUID `json:"id" db:"id"`
	RunID          uuid.UUID `json:"run_id" db:"run_id"`
	Pair           string    `json:"pair" db:"pair"`
	StringSim      *float64  `json:"string_similarity,omitempty" db:"string_similarity"`
	NumericSim     *float64  `json:"numeric_similarity,omitempty" db:"numeric_similarity"`
	StringSamples  int       `json:"string_samples" db:"string_samples"`
	NumericSamples int       `json:"numeric_samples" db:"numeric_samples"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Run and job statuses.
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"

	RunKindGenerate = "generate"
	RunKindEvaluate = "evaluate"
)
