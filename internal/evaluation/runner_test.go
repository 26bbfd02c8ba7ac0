package evaluation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distillhq/distillery/internal/batch"
	"github.com/distillhq/distillery/internal/config"
	"github.com/distillhq/distillery/internal/dataset"
	"github.com/distillhq/distillery/internal/provider"
	"github.com/distillhq/distillery/pkg/jsonl"
)

// fakeEvalProvider answers each uploaded request. Like the real
// provider, it resolves model aliases to dated snapshots in response
// bodies, so the echoed model never matches the requested one exactly.
func fakeEvalProvider(t *testing.T) *httptest.Server {
	t.Helper()

	var uploaded []batch.Request

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/files", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(16<<20))
		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		requests, err := jsonl.Read[batch.Request](file)
		require.NoError(t, err)
		uploaded = requests

		json.NewEncoder(w).Encode(map[string]any{"id": "file-in", "object": "file", "purpose": "batch"})
	})
	mux.HandleFunc("POST /v1/batches", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id": "batch_eval", "object": "batch", "input_file_id": "file-in", "status": "validating",
		})
	})
	mux.HandleFunc("GET /v1/batches/batch_eval", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id": "batch_eval", "object": "batch", "input_file_id": "file-in",
			"status": "completed", "output_file_id": "file-out",
		})
	})
	mux.HandleFunc("GET /v1/files/file-out/content", func(w http.ResponseWriter, r *http.Request) {
		for _, req := range uploaded {
			model := req.Body.Model
			if !strings.HasPrefix(model, "ft:") {
				model += "-2024-07-18"
			}
			line := batch.Response{
				CustomID: req.CustomID,
				Response: &batch.ResponseBody{
					StatusCode: 200,
					Body: batch.CompletionBody{
						Model: model,
						Choices: []batch.Choice{{Message: batch.Message{
							Role:    "assistant",
							Content: `{"answer":"same","score":1.0}`,
						}}},
					},
				},
			}
			data, err := json.Marshal(line)
			require.NoError(t, err)
			w.Write(append(data, '\n'))
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeValidationFile(t *testing.T) string {
	t.Helper()
	records := []dataset.Conversation{}
	for _, prompt := range []string{"p1", "p2", "p3"} {
		records = append(records, dataset.Conversation{Messages: []dataset.Message{
			{Role: "system", Content: "sys"},
			{Role: "user", Content: prompt},
			{Role: "assistant", Content: `{"answer":"old"}`},
		}})
	}
	path := filepath.Join(t.TempDir(), "validation.jsonl")
	require.NoError(t, dataset.WriteFile(path, records))
	return path
}

func evalSchema() batch.Schema {
	return batch.Schema{
		Name: "answer",
		Fields: map[string]batch.Field{
			"answer": {Type: "string", Required: true},
			"score":  {Type: "number", Required: true},
		},
	}
}

func TestRunnerEndToEnd(t *testing.T) {
	srv := fakeEvalProvider(t)
	api := provider.NewClient(config.OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	client := batch.NewClient(api, "24h")

	embedder := &fakeEmbedder{vecs: map[string][]float32{"same": {1, 0}}}
	runner := NewRunner(client, embedder, nil, t.TempDir(), batch.PollOptions{Interval: time.Millisecond})

	result, err := runner.Run(context.Background(), Params{
		ValidationFile: writeValidationFile(t),
		Candidates: []Candidate{
			{Name: "base", Model: "gpt-4o-mini"},
			{Name: "tuned", Model: "ft:gpt-4o-mini:acme::abc"},
		},
		Schema:    evalSchema(),
		MaxTokens: 200,
	})
	require.NoError(t, err)

	assert.Equal(t, "batch_eval", result.JobID)
	assert.FileExists(t, result.InputFile)
	assert.FileExists(t, result.RawOutputFile)
	require.Contains(t, result.OutputFiles, "base")
	require.Contains(t, result.OutputFiles, "tuned")
	assert.FileExists(t, result.OutputFiles["base"])
	assert.FileExists(t, result.OutputFiles["tuned"])

	require.Contains(t, result.Scores, "base_vs_tuned")
	score := result.Scores["base_vs_tuned"]
	require.NotNil(t, score.StringSimilarity)
	require.NotNil(t, score.NumericSimilarity)
	assert.InDelta(t, 1.0, *score.StringSimilarity, 1e-9)
	assert.InDelta(t, 1.0, *score.NumericSimilarity, 1e-9)
	assert.Equal(t, 3, score.StringSamples)
	assert.Equal(t, 3, score.NumericSamples)

	// Each candidate got every validation prompt once.
	base, err := batch.ReadResponseFile(result.OutputFiles["base"])
	require.NoError(t, err)
	assert.Len(t, base, 3)
}

func TestRunnerRejectsTooFewCandidates(t *testing.T) {
	runner := NewRunner(nil, &fakeEmbedder{}, nil, t.TempDir(), batch.PollOptions{})

	_, err := runner.Run(context.Background(), Params{
		ValidationFile: writeValidationFile(t),
		Candidates:     []Candidate{{Name: "only", Model: "gpt-4o-mini"}},
		Schema:         evalSchema(),
		MaxTokens:      200,
	})
	assert.Error(t, err)
}

func TestRunnerRejectsDuplicateModels(t *testing.T) {
	runner := NewRunner(nil, &fakeEmbedder{}, nil, t.TempDir(), batch.PollOptions{})

	_, err := runner.Run(context.Background(), Params{
		ValidationFile: writeValidationFile(t),
		Candidates: []Candidate{
			{Name: "a", Model: "gpt-4o-mini"},
			{Name: "b", Model: "gpt-4o-mini"},
		},
		Schema:    evalSchema(),
		MaxTokens: 200,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate candidate model")
}

func TestPartitionByCandidate(t *testing.T) {
	byID := map[string]Candidate{
		"request-1": {Name: "a", Model: "gpt-a"},
		"request-2": {Name: "b", Model: "gpt-b"},
	}
	responses := []batch.Response{
		// Snapshot-resolved model names must not affect partitioning.
		{CustomID: "request-1", Response: &batch.ResponseBody{StatusCode: 200, Body: batch.CompletionBody{Model: "gpt-a-2024-07-18"}}},
		{CustomID: "request-2", Response: &batch.ResponseBody{StatusCode: 200, Body: batch.CompletionBody{Model: "gpt-b-2024-07-18"}}},
		{CustomID: "request-9", Response: &batch.ResponseBody{StatusCode: 200}},
		{CustomID: "request-3"},
	}

	partitions := partitionByCandidate(responses, byID)
	require.Len(t, partitions, 2)
	assert.Len(t, partitions["a"], 1)
	assert.Len(t, partitions["b"], 1)
}

func TestReadEvalPrompts(t *testing.T) {
	system, prompts, err := readEvalPrompts(writeValidationFile(t))
	require.NoError(t, err)
	assert.Equal(t, "sys", system)
	assert.Equal(t, []string{"p1", "p2", "p3"}, prompts)
}

func TestReadEvalPromptsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jsonl")
	require.NoError(t, dataset.WriteFile(path, nil))

	_, _, err := readEvalPrompts(path)
	assert.Error(t, err)
}
