// Package finetune submits fine-tuning jobs to the provider and
// monitors them to completion.
package finetune

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Fine-tuning job statuses as reported by the provider.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// JobError reports a fine-tuning job that reached a terminal failure
// status.
type JobError struct {
	JobID  string
	Status string
}

func (e *JobError) Error() string {
	return fmt.Sprintf("fine-tuning job %s %s", e.JobID, e.Status)
}

type Service struct {
	api *openai.Client
}

func NewService(api *openai.Client) *Service {
	return &Service{api: api}
}

// Submit uploads the train and validation files and creates a
// fine-tuning job on the base model, suffixing the resulting model
// name. File contents are assumed pre-validated; only transport and
// auth failures occur here.
func (s *Service) Submit(ctx context.Context, trainFile, validationFile, model, suffix string) (string, error) {
	trainID, err := s.upload(ctx, trainFile)
	if err != nil {
		return "", fmt.Errorf("upload training file: %w", err)
	}

	req := openai.FineTuningJobRequest{
		TrainingFile: trainID,
		Model:        model,
		Suffix:       suffix,
	}
	if validationFile != "" {
		validationID, err := s.upload(ctx, validationFile)
		if err != nil {
			return "", fmt.Errorf("upload validation file: %w", err)
		}
		req.ValidationFile = validationID
	}

	job, err := s.api.CreateFineTuningJob(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create fine-tuning job: %w", err)
	}

	slog.Info("fine-tuning job created", "job_id", job.ID, "model", model, "suffix", suffix)
	return job.ID, nil
}

// Monitor polls a fine-tuning job until it succeeds and returns the
// fine-tuned model name. Failure or cancellation surfaces as *JobError;
// a positive deadline bounds the wait.
func (s *Service) Monitor(ctx context.Context, jobID string, interval, deadline time.Duration) (string, error) {
	if interval <= 0 {
		interval = 60 * time.Second
	}

	start := time.Now()
	for {
		job, err := s.api.RetrieveFineTuningJob(ctx, jobID)
		if err != nil {
			return "", fmt.Errorf("retrieve fine-tuning job %s: %w", jobID, err)
		}

		switch job.Status {
		case StatusSucceeded:
			slog.Info("fine-tuning job succeeded", "job_id", jobID, "fine_tuned_model", job.FineTunedModel)
			return job.FineTunedModel, nil
		case StatusFailed, StatusCancelled:
			return "", &JobError{JobID: jobID, Status: job.Status}
		}

		if deadline > 0 && time.Since(start)+interval > deadline {
			return "", fmt.Errorf("fine-tuning job %s did not finish within %s", jobID, time.Since(start))
		}

		slog.Info("fine-tuning job not finished, waiting",
			"job_id", jobID, "status", job.Status, "interval", interval.String())

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("await fine-tuning job %s: %w", jobID, ctx.Err())
		case <-time.After(interval):
		}
	}
}

func (s *Service) upload(ctx context.Context, path string) (string, error) {
	file, err := s.api.CreateFile(ctx, openai.FileRequest{
		FileName: filepath.Base(path),
		FilePath: path,
		Purpose:  "fine-tune",
	})
	if err != nil {
		return "", err
	}
	slog.Info("fine-tuning file uploaded", "path", path, "file_id", file.ID)
	return file.ID, nil
}
