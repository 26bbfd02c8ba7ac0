package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	openai "github.com/sashabaranov/go-openai"
)

// Client submits batch jobs and retrieves their results. All remote
// failures surface immediately; the provider owns upload idempotency,
// so nothing is retried locally.
type Client struct {
	api              *openai.Client
	completionWindow string
}

func NewClient(api *openai.Client, completionWindow string) *Client {
	if completionWindow == "" {
		completionWindow = "24h"
	}
	return &Client{api: api, completionWindow: completionWindow}
}

// Submit uploads a request file and creates a batch job referencing it.
func (c *Client) Submit(ctx context.Context, requestFile string) (Job, error) {
	file, err := c.api.CreateFile(ctx, openai.FileRequest{
		FileName: filepath.Base(requestFile),
		FilePath: requestFile,
		Purpose:  "batch",
	})
	if err != nil {
		return Job{}, fmt.Errorf("upload batch file: %w", err)
	}

	resp, err := c.api.CreateBatch(ctx, openai.CreateBatchRequest{
		InputFileID:      file.ID,
		Endpoint:         openai.BatchEndpointChatCompletions,
		CompletionWindow: c.completionWindow,
	})
	if err != nil {
		return Job{}, fmt.Errorf("create batch job: %w", err)
	}

	job := toJob(resp)
	slog.Info("batch job created", "job_id", job.ID, "input_file_id", job.InputFileID, "status", job.Status)
	return job, nil
}

// GetJob fetches the current state of a batch job.
func (c *Client) GetJob(ctx context.Context, jobID string) (Job, error) {
	resp, err := c.api.RetrieveBatch(ctx, jobID)
	if err != nil {
		return Job{}, fmt.Errorf("retrieve batch job %s: %w", jobID, err)
	}
	return toJob(resp), nil
}

// FetchResults downloads the output file of a completed job to
// destDir/<jobID>_output.jsonl and returns the path. The job is
// re-fetched first so the output file id is never read from a stale
// object.
func (c *Client) FetchResults(ctx context.Context, jobID, destDir string) (string, error) {
	job, err := c.GetJob(ctx, jobID)
	if err != nil {
		return "", err
	}
	if job.OutputFileID == "" {
		return "", &MissingOutputError{JobID: jobID}
	}

	content, err := c.api.GetFileContent(ctx, job.OutputFileID)
	if err != nil {
		return "", fmt.Errorf("download output file %s: %w", job.OutputFileID, err)
	}
	defer content.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(destDir, jobID+"_output.jsonl")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		return "", fmt.Errorf("write output file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close output file: %w", err)
	}

	slog.Info("batch results downloaded", "job_id", jobID, "path", path)
	return path, nil
}

func toJob(resp openai.BatchResponse) Job {
	job := Job{
		ID:          resp.ID,
		InputFileID: resp.InputFileID,
		Status:      resp.Status,
	}
	if resp.OutputFileID != nil {
		job.OutputFileID = *resp.OutputFileID
	}
	return job
}
