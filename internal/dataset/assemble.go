// Package dataset assembles, splits, and validates supervised
// fine-tuning corpora built from batch request/response files.
package dataset

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/distillhq/distillery/internal/batch"
	"github.com/distillhq/distillery/pkg/jsonl"
)

// Message is one turn of a conversation record.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is one training example: a fixed three-turn exchange of
// system instruction, user input, and assistant output.
type Conversation struct {
	Messages []Message `json:"messages"`
}

// Assemble pairs request records with response records into
// conversation records. Responses are matched by the id embedded in
// each line, never by position; requests keep their original order.
// Failed, missing, or empty responses are skipped with a warning, so
// the result may be shorter than the input.
func Assemble(requests []batch.Request, responses []batch.Response) []Conversation {
	byID := make(map[string]batch.Response, len(responses))
	for _, resp := range responses {
		byID[resp.CustomID] = resp
	}

	records := make([]Conversation, 0, len(requests))
	for _, req := range requests {
		resp, ok := byID[req.CustomID]
		if !ok {
			slog.Warn("no response for request, skipping", "custom_id", req.CustomID)
			continue
		}
		if resp.Response == nil || resp.Response.StatusCode != 200 {
			code := 0
			if resp.Response != nil {
				code = resp.Response.StatusCode
			}
			slog.Warn("failed response, skipping", "custom_id", req.CustomID, "status_code", code)
			continue
		}

		assistant := resp.AssistantContent()
		if strings.TrimSpace(assistant) == "" {
			slog.Warn("empty assistant content, skipping", "custom_id", req.CustomID)
			continue
		}

		records = append(records, Conversation{
			Messages: []Message{
				{Role: "system", Content: req.Body.SystemMessage()},
				{Role: "user", Content: req.Body.UserMessage()},
				{Role: "assistant", Content: assistant},
			},
		})
	}
	return records
}

// AssembleFiles reads a batch input and output file pair and assembles
// the conversation records.
func AssembleFiles(requestFile, responseFile string) ([]Conversation, error) {
	requests, err := batch.ReadRequestFile(requestFile)
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}
	responses, err := batch.ReadResponseFile(responseFile)
	if err != nil {
		return nil, fmt.Errorf("read response file: %w", err)
	}
	return Assemble(requests, responses), nil
}

// WriteFile persists conversation records as a JSONL corpus.
func WriteFile(path string, records []Conversation) error {
	if err := jsonl.WriteFile(path, records); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}

// ReadConversationFile loads a JSONL corpus.
func ReadConversationFile(path string) ([]Conversation, error) {
	return jsonl.ReadFile[Conversation](path)
}
