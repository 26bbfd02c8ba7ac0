// Package pipeline glues the stages of a generation run together:
// format requests, submit the batch, wait, fetch results, assemble the
// corpus, and optionally split and validate it. Execution is strictly
// sequential; the only suspension point is the polling loop.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/distillhq/distillery/internal/batch"
	"github.com/distillhq/distillery/internal/dataset"
	"github.com/distillhq/distillery/internal/models"
	"github.com/distillhq/distillery/internal/registry"
)

// SplitParams request a train/test split of the assembled corpus.
type SplitParams struct {
	Seed       int64   `json:"seed"`
	TrainRatio float64 `json:"train_ratio"`
}

// GenerateParams configure one generation run.
type GenerateParams struct {
	Prompts       []string
	SystemMessage string
	Schema        batch.Schema
	Model         string
	MaxTokens     int
	Prefix        string // artifact filename prefix, defaults to "batch"
	Split         *SplitParams
}

// GenerateResult lists the artifacts a run produced.
type GenerateResult struct {
	JobID       string `json:"job_id"`
	RequestFile string `json:"request_file"`
	OutputFile  string `json:"output_file"`
	DatasetFile string `json:"dataset_file"`
	TrainFile   string `json:"train_file,omitempty"`
	TestFile    string `json:"test_file,omitempty"`
	Records     int    `json:"records"`
}

type Pipeline struct {
	client  *batch.Client
	reg     *registry.Registry // optional
	dataDir string
	poll    batch.PollOptions
}

func New(client *batch.Client, reg *registry.Registry, dataDir string, poll batch.PollOptions) *Pipeline {
	return &Pipeline{client: client, reg: reg, dataDir: dataDir, poll: poll}
}

// Generate runs the full pipeline and returns the produced artifacts.
func (p *Pipeline) Generate(ctx context.Context, params GenerateParams) (*GenerateResult, error) {
	run := p.createRun(ctx, params.Model)
	result, err := p.generate(ctx, params, run)
	if err != nil && run != nil {
		if regErr := p.reg.FailRun(ctx, run.ID, err); regErr != nil {
			slog.Warn("registry fail run failed", "error", regErr)
		}
	}
	return result, err
}

func (p *Pipeline) generate(ctx context.Context, params GenerateParams, run *models.BatchRun) (*GenerateResult, error) {
	prefix := params.Prefix
	if prefix == "" {
		prefix = "batch"
	}

	requests, err := batch.FormatRequests(batch.FormatParams{
		Prompts:       params.Prompts,
		SystemMessage: params.SystemMessage,
		Schema:        params.Schema,
		Model:         params.Model,
		MaxTokens:     params.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	requestFile := filepath.Join(p.dataDir, prefix+"_input.jsonl")
	if err := batch.WriteRequestFile(requestFile, requests); err != nil {
		return nil, err
	}
	slog.Info("batch input file created", "path", requestFile, "requests", len(requests))

	job, err := p.client.Submit(ctx, requestFile)
	if err != nil {
		return nil, err
	}
	if run != nil {
		if err := p.reg.MarkRunRunning(ctx, run.ID, job.ID, requestFile); err != nil {
			slog.Warn("registry mark run failed", "error", err)
		}
	}

	if _, err := batch.AwaitCompletion(ctx, p.client, job.ID, p.poll); err != nil {
		return nil, err
	}

	outputFile, err := p.client.FetchResults(ctx, job.ID, p.dataDir)
	if err != nil {
		return nil, err
	}

	responses, err := batch.ReadResponseFile(outputFile)
	if err != nil {
		return nil, fmt.Errorf("read batch output: %w", err)
	}
	records := dataset.Assemble(requests, responses)

	datasetFile := filepath.Join(p.dataDir, prefix+"_dataset.jsonl")
	if err := dataset.WriteFile(datasetFile, records); err != nil {
		return nil, err
	}
	slog.Info("dataset assembled", "path", datasetFile, "records", len(records), "skipped", len(requests)-len(records))

	result := &GenerateResult{
		JobID:       job.ID,
		RequestFile: requestFile,
		OutputFile:  outputFile,
		DatasetFile: datasetFile,
		Records:     len(records),
	}

	if params.Split != nil {
		train, test := dataset.Split(records, dataset.SplitOptions{
			Seed:       params.Split.Seed,
			TrainRatio: params.Split.TrainRatio,
		})
		result.TrainFile = filepath.Join(p.dataDir, prefix+"_train.jsonl")
		result.TestFile = filepath.Join(p.dataDir, prefix+"_test.jsonl")
		if err := dataset.WriteFile(result.TrainFile, train); err != nil {
			return nil, err
		}
		if err := dataset.WriteFile(result.TestFile, test); err != nil {
			return nil, err
		}
		slog.Info("dataset split", "train", len(train), "test", len(test))
	}

	validation, err := dataset.ValidateFile(datasetFile)
	if err != nil {
		return nil, err
	}
	if !validation.OK {
		return nil, fmt.Errorf("assembled dataset failed validation: %d defective records, first: %s",
			len(validation.Errors), validation.Errors[0])
	}

	if run != nil {
		if err := p.reg.CompleteRun(ctx, run.ID, outputFile, datasetFile, len(records)); err != nil {
			slog.Warn("registry complete run failed", "error", err)
		}
	}
	return result, nil
}

func (p *Pipeline) createRun(ctx context.Context, model string) *models.BatchRun {
	if p.reg == nil {
		return nil
	}
	run, err := p.reg.CreateRun(ctx, models.RunKindGenerate, model)
	if err != nil {
		slog.Warn("registry create run failed", "error", err)
		return nil
	}
	return run
}
