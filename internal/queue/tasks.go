package queue

import (
	"github.com/distillhq/distillery/internal/batch"
	"github.com/distillhq/distillery/internal/evaluation"
	"github.com/distillhq/distillery/internal/pipeline"
)

const (
	TypeBatchGenerate = "batch:generate"
	TypeFinetuneRun   = "finetune:run"
	TypeEvalRun       = "eval:run"
)

// BatchGeneratePayload carries everything a generation run needs. The
// prompts file is read on the worker, not embedded in the payload.
type BatchGeneratePayload struct {
	PromptsFile   string                `json:"prompts_file"`
	SystemMessage string                `json:"system_message"`
	Schema        batch.Schema          `json:"schema"`
	Model         string                `json:"model"`
	MaxTokens     int                   `json:"max_tokens"`
	Prefix        string                `json:"prefix,omitempty"`
	Split         *pipeline.SplitParams `json:"split,omitempty"`
}

type FinetuneRunPayload struct {
	JobID          string `json:"job_id"` // registry id, empty when registry is off
	TrainFile      string `json:"train_file"`
	ValidationFile string `json:"validation_file,omitempty"`
	BaseModel      string `json:"base_model"`
	Suffix         string `json:"suffix,omitempty"`
	ModelName      string `json:"model_name,omitempty"` // registry name for the result
}

type EvalRunPayload struct {
	ValidationFile string                 `json:"validation_file"`
	Candidates     []evaluation.Candidate `json:"candidates"`
	Schema         batch.Schema           `json:"schema"`
	MaxTokens      int                    `json:"max_tokens"`
}
