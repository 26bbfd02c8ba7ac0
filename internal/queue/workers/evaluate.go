package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/distillhq/distillery/internal/evaluation"
	"github.com/distillhq/distillery/internal/queue"
)

type EvaluateWorker struct {
	runner *evaluation.Runner
}

func NewEvaluateWorker(runner *evaluation.Runner) *EvaluateWorker {
	return &EvaluateWorker{runner: runner}
}

func (w *EvaluateWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.EvalRunPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	slog.Info("running evaluation task",
		"validation_file", payload.ValidationFile, "candidates", len(payload.Candidates))

	result, err := w.runner.Run(ctx, evaluation.Params{
		ValidationFile: payload.ValidationFile,
		Candidates:     payload.Candidates,
		Schema:         payload.Schema,
		MaxTokens:      payload.MaxTokens,
	})
	if err != nil {
		return err
	}

	for pair, score := range result.Scores {
		attrs := []any{"pair", pair, "string_samples", score.StringSamples, "numeric_samples", score.NumericSamples}
		if score.StringSimilarity != nil {
			attrs = append(attrs, "string_similarity", *score.StringSimilarity)
		}
		if score.NumericSimilarity != nil {
			attrs = append(attrs, "numeric_similarity", *score.NumericSimilarity)
		}
		slog.Info("evaluation pair scored", attrs...)
	}

	slog.Info("evaluation task completed", "job_id", result.JobID)
	return nil
}
