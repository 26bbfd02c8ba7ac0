package evaluation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/distillhq/distillery/internal/batch"
	"github.com/distillhq/distillery/internal/models"
)

// createRun opens a registry record for this evaluation, or returns nil
// when no registry is configured.
func (r *Runner) createRun(ctx context.Context, p Params) *models.BatchRun {
	if r.reg == nil {
		return nil
	}
	names := make([]string, len(p.Candidates))
	for i, c := range p.Candidates {
		names[i] = c.Model
	}
	run, err := r.reg.CreateRun(ctx, models.RunKindEvaluate, strings.Join(names, ","))
	if err != nil {
		slog.Warn("registry create run failed", "error", err)
		return nil
	}
	return run
}

// recordRun closes out the registry record and persists scores and
// embedded outputs. Registry failures are logged, never fatal to the
// evaluation itself.
func (r *Runner) recordRun(ctx context.Context, run *models.BatchRun, result *Result, runErr error) {
	if r.reg == nil || run == nil {
		return
	}

	if runErr != nil {
		if err := r.reg.FailRun(ctx, run.ID, runErr); err != nil {
			slog.Warn("registry fail run failed", "error", err)
		}
		return
	}

	if err := r.reg.MarkRunRunning(ctx, run.ID, result.JobID, result.InputFile); err != nil {
		slog.Warn("registry mark run failed", "error", err)
	}

	for pair, score := range result.Scores {
		err := r.reg.SaveEvalScore(ctx, models.EvalScore{
			RunID:          run.ID,
			Pair:           pair,
			StringSim:      score.StringSimilarity,
			NumericSim:     score.NumericSimilarity,
			StringSamples:  score.StringSamples,
			NumericSamples: score.NumericSamples,
		})
		if err != nil {
			slog.Warn("registry save score failed", "pair", pair, "error", err)
		}
	}

	records := 0
	for name, path := range result.OutputFiles {
		lines, err := batch.ReadResponseFile(path)
		if err != nil {
			slog.Warn("registry read outputs failed", "candidate", name, "error", err)
			continue
		}
		records += len(lines)
		for _, line := range lines {
			content := line.AssistantContent()
			if content == "" {
				continue
			}
			vec, err := r.embedder.EmbedSingle(ctx, content)
			if err != nil {
				slog.Warn("embed output failed", "candidate", name, "custom_id", line.CustomID, "error", err)
				vec = nil
			}
			if err := r.reg.SaveEvalOutput(ctx, run.ID, name, line.CustomID, content, vec); err != nil {
				slog.Warn("registry save output failed", "candidate", name, "error", err)
			}
		}
	}

	if err := r.reg.CompleteRun(ctx, run.ID, result.RawOutputFile, "", records); err != nil {
		slog.Warn("registry complete run failed", "error", err)
	}
}
