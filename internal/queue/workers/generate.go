// Package workers holds the asynq task handlers for the pipeline
// stages that run in the background.
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/distillhq/distillery/internal/pipeline"
	"github.com/distillhq/distillery/internal/prompts"
	"github.com/distillhq/distillery/internal/queue"
)

type GenerateWorker struct {
	pipeline *pipeline.Pipeline
}

func NewGenerateWorker(p *pipeline.Pipeline) *GenerateWorker {
	return &GenerateWorker{pipeline: p}
}

func (w *GenerateWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.BatchGeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	promptList, err := prompts.Load(payload.PromptsFile)
	if err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}

	slog.Info("running generation task",
		"prompts_file", payload.PromptsFile, "prompts", len(promptList), "model", payload.Model)

	result, err := w.pipeline.Generate(ctx, pipeline.GenerateParams{
		Prompts:       promptList,
		SystemMessage: payload.SystemMessage,
		Schema:        payload.Schema,
		Model:         payload.Model,
		MaxTokens:     payload.MaxTokens,
		Prefix:        payload.Prefix,
		Split:         payload.Split,
	})
	if err != nil {
		return err
	}

	slog.Info("generation task completed",
		"job_id", result.JobID, "dataset", result.DatasetFile, "records", result.Records)
	return nil
}
