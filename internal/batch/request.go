package batch

import (
	"fmt"

	"github.com/distillhq/distillery/pkg/jsonl"
)

// Endpoint is the chat-completions path every batch line targets.
const Endpoint = "/v1/chat/completions"

// FormatParams are the inputs to FormatRequests.
type FormatParams struct {
	Prompts       []string
	SystemMessage string
	Schema        Schema
	Model         string
	MaxTokens     int
}

// FormatRequests turns an ordered prompt list into request records, one
// per prompt, with ids request-1..request-n. Ids are stable for the
// life of the batch so results can be matched back to their inputs.
func FormatRequests(p FormatParams) ([]Request, error) {
	if len(p.Prompts) == 0 {
		return nil, fmt.Errorf("prompt list is empty")
	}
	if p.MaxTokens <= 0 {
		return nil, fmt.Errorf("max tokens must be positive, got %d", p.MaxTokens)
	}

	format, err := p.Schema.ResponseFormat()
	if err != nil {
		return nil, err
	}

	requests := make([]Request, len(p.Prompts))
	for i, prompt := range p.Prompts {
		requests[i] = Request{
			CustomID: fmt.Sprintf("request-%d", i+1),
			Method:   "POST",
			URL:      Endpoint,
			Body: RequestBody{
				Model: p.Model,
				Messages: []Message{
					{Role: "system", Content: p.SystemMessage},
					{Role: "user", Content: prompt},
				},
				MaxTokens:      p.MaxTokens,
				ResponseFormat: format,
			},
		}
	}
	return requests, nil
}

// WriteRequestFile persists request records as a JSONL batch input
// file.
func WriteRequestFile(path string, requests []Request) error {
	if err := jsonl.WriteFile(path, requests); err != nil {
		return fmt.Errorf("write request file: %w", err)
	}
	return nil
}

// ReadRequestFile loads a batch input file back into request records.
func ReadRequestFile(path string) ([]Request, error) {
	return jsonl.ReadFile[Request](path)
}

// ReadResponseFile loads a batch output file into response records.
func ReadResponseFile(path string) ([]Response, error) {
	return jsonl.ReadFile[Response](path)
}
