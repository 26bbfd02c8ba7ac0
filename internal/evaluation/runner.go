// Package evaluation re-runs the batch pipeline for several candidate
// models over the same validation prompts and compares their outputs
// pairwise.
package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/distillhq/distillery/internal/batch"
	"github.com/distillhq/distillery/internal/dataset"
	"github.com/distillhq/distillery/internal/registry"
	"github.com/distillhq/distillery/pkg/jsonl"
)

// Candidate is one model under evaluation. Name labels output files and
// score keys. Model is the provider model identifier; duplicates are
// rejected because scoring a model against itself tells us nothing.
type Candidate struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

// Params configure an evaluation run.
type Params struct {
	ValidationFile string
	Candidates     []Candidate
	Schema         batch.Schema
	MaxTokens      int
}

// Result is the outcome of an evaluation run.
type Result struct {
	JobID         string               `json:"job_id"`
	InputFile     string               `json:"input_file"`
	RawOutputFile string               `json:"raw_output_file"`
	OutputFiles   map[string]string    `json:"output_files"`
	Scores        map[string]PairScore `json:"scores"`
}

// Runner drives evaluation runs. The registry is optional.
type Runner struct {
	client     *batch.Client
	comparator *Comparator
	embedder   Embedder
	reg        *registry.Registry
	dataDir    string
	poll       batch.PollOptions
}

func NewRunner(client *batch.Client, embedder Embedder, reg *registry.Registry, dataDir string, poll batch.PollOptions) *Runner {
	return &Runner{
		client:     client,
		comparator: NewComparator(embedder),
		embedder:   embedder,
		reg:        reg,
		dataDir:    dataDir,
		poll:       poll,
	}
}

// Run builds one combined request sequence across all candidates,
// submits it as a single batch, partitions the results per candidate,
// and scores every candidate pair.
func (r *Runner) Run(ctx context.Context, p Params) (*Result, error) {
	if len(p.Candidates) < 2 {
		return nil, fmt.Errorf("need at least two candidates, got %d", len(p.Candidates))
	}
	seen := make(map[string]bool, len(p.Candidates))
	for _, c := range p.Candidates {
		if seen[c.Model] {
			return nil, fmt.Errorf("duplicate candidate model %q", c.Model)
		}
		seen[c.Model] = true
	}

	system, userPrompts, err := readEvalPrompts(p.ValidationFile)
	if err != nil {
		return nil, err
	}

	requests, byID, err := r.combinedRequests(system, userPrompts, p)
	if err != nil {
		return nil, err
	}

	run := r.createRun(ctx, p)
	result, err := r.execute(ctx, requests, byID, p)
	r.recordRun(ctx, run, result, err)
	return result, err
}

// combinedRequests formats one request block per candidate and
// re-numbers ids so they stay unique across the combined batch. The
// returned map records which candidate owns each id.
func (r *Runner) combinedRequests(system string, prompts []string, p Params) ([]batch.Request, map[string]Candidate, error) {
	var combined []batch.Request
	byID := make(map[string]Candidate, len(p.Candidates)*len(prompts))
	counter := 1
	for _, c := range p.Candidates {
		requests, err := batch.FormatRequests(batch.FormatParams{
			Prompts:       prompts,
			SystemMessage: system,
			Schema:        p.Schema,
			Model:         c.Model,
			MaxTokens:     p.MaxTokens,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("format requests for %s: %w", c.Name, err)
		}
		for i := range requests {
			id := fmt.Sprintf("request-%d", counter)
			requests[i].CustomID = id
			byID[id] = c
			counter++
		}
		combined = append(combined, requests...)
	}
	return combined, byID, nil
}

func (r *Runner) execute(ctx context.Context, requests []batch.Request, byID map[string]Candidate, p Params) (*Result, error) {
	inputPath := filepath.Join(r.dataDir, "eval_input_all_models.jsonl")
	if err := batch.WriteRequestFile(inputPath, requests); err != nil {
		return nil, err
	}

	job, err := r.client.Submit(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	if _, err := batch.AwaitCompletion(ctx, r.client, job.ID, r.poll); err != nil {
		return nil, err
	}
	outputPath, err := r.client.FetchResults(ctx, job.ID, r.dataDir)
	if err != nil {
		return nil, err
	}

	responses, err := batch.ReadResponseFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("read batch output: %w", err)
	}

	partitions := partitionByCandidate(responses, byID)

	result := &Result{
		JobID:         job.ID,
		InputFile:     inputPath,
		RawOutputFile: outputPath,
		OutputFiles:   make(map[string]string, len(partitions)),
	}
	outputs := make(map[string][]map[string]any, len(partitions))
	for name, lines := range partitions {
		path := filepath.Join(r.dataDir, name+"_eval_output.jsonl")
		if err := jsonl.WriteFile(path, lines); err != nil {
			return nil, fmt.Errorf("write %s outputs: %w", name, err)
		}
		result.OutputFiles[name] = path
		outputs[name] = parseOutputs(name, lines)
	}

	scores, err := r.comparator.Compare(ctx, outputs)
	if err != nil {
		return nil, err
	}
	result.Scores = scores
	return result, nil
}

// partitionByCandidate splits output lines per candidate using the
// custom id recorded at submit time. The model in the response body is
// not a usable key: the provider resolves aliases to dated snapshots,
// so it need not match what was requested.
func partitionByCandidate(responses []batch.Response, byID map[string]Candidate) map[string][]batch.Response {
	partitions := make(map[string][]batch.Response)
	for _, resp := range responses {
		if resp.Response == nil {
			slog.Warn("response line without body, skipping", "custom_id", resp.CustomID)
			continue
		}
		c, ok := byID[resp.CustomID]
		if !ok {
			slog.Warn("response with unknown custom id, skipping", "custom_id", resp.CustomID)
			continue
		}
		partitions[c.Name] = append(partitions[c.Name], resp)
	}
	return partitions
}

// parseOutputs extracts each successful response's structured assistant
// content. Failed lines and unparseable content are skipped with a
// warning.
func parseOutputs(name string, lines []batch.Response) []map[string]any {
	outputs := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		content := line.AssistantContent()
		if strings.TrimSpace(content) == "" {
			slog.Warn("empty eval output, skipping", "candidate", name, "custom_id", line.CustomID)
			continue
		}
		var parsed map[string]any
		if err := json.Unmarshal([]byte(content), &parsed); err != nil {
			slog.Warn("unparseable eval output, skipping",
				"candidate", name, "custom_id", line.CustomID, "error", err)
			continue
		}
		outputs = append(outputs, parsed)
	}
	return outputs
}

// readEvalPrompts recovers the shared system message and the user
// prompts from a validation conversation file.
func readEvalPrompts(path string) (string, []string, error) {
	records, err := dataset.ReadConversationFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read validation file: %w", err)
	}
	if len(records) == 0 {
		return "", nil, fmt.Errorf("validation file %s is empty", path)
	}

	var system string
	prompts := make([]string, 0, len(records))
	for _, rec := range records {
		for _, msg := range rec.Messages {
			switch msg.Role {
			case "system":
				if system == "" {
					system = msg.Content
				}
			case "user":
				prompts = append(prompts, msg.Content)
			}
		}
	}
	if system == "" || len(prompts) == 0 {
		return "", nil, fmt.Errorf("validation file %s has no system/user turns", path)
	}
	return system, prompts, nil
}
