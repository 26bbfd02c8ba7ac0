package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Result is the outcome of validating a corpus: OK is true only when
// every record passed. Errors holds one entry per defective record, in
// file order, never silently dropped.
type Result struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors,omitempty"`
}

var expectedRoles = []string{"system", "user", "assistant"}

// Validate checks every record of a JSONL corpus against the structure
// fine-tuning consumption requires: exactly one top-level "messages"
// key; exactly three messages with roles system, user, assistant in
// order; each message exactly {role, content} with non-blank string
// values; and assistant content that parses as well-formed JSON
// (structural validity only, not schema conformance). The first failing
// condition of a record is reported and validation continues with the
// next record.
func Validate(r io.Reader) (Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	result := Result{OK: true}
	index := -1
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		index++

		if msg := checkRecord([]byte(line)); msg != "" {
			result.OK = false
			result.Errors = append(result.Errors, fmt.Sprintf("record %d: %s", index, msg))
		}
	}
	if err := scanner.Err(); err != nil {
		return Result{}, fmt.Errorf("scan corpus: %w", err)
	}
	return result, nil
}

// ValidateFile validates the corpus at path.
func ValidateFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Validate(f)
}

func checkRecord(line []byte) string {
	var record map[string]json.RawMessage
	if err := json.Unmarshal(line, &record); err != nil {
		return "not a JSON object"
	}

	raw, ok := record["messages"]
	if !ok || len(record) != 1 {
		return "must have exactly one top-level key \"messages\""
	}

	var rawMessages []json.RawMessage
	if err := json.Unmarshal(raw, &rawMessages); err != nil {
		return "\"messages\" is not an array"
	}
	if len(rawMessages) != 3 {
		return fmt.Sprintf("expected exactly 3 messages, got %d", len(rawMessages))
	}

	var contents [3]string
	for i, rawMsg := range rawMessages {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(rawMsg, &fields); err != nil {
			return fmt.Sprintf("message %d is not an object", i)
		}
		if len(fields) != 2 {
			return fmt.Sprintf("message %d must have exactly the keys role and content", i)
		}

		var role, content string
		if raw, ok := fields["role"]; !ok || json.Unmarshal(raw, &role) != nil {
			return fmt.Sprintf("message %d: role is missing or not a string", i)
		}
		if raw, ok := fields["content"]; !ok || json.Unmarshal(raw, &content) != nil {
			return fmt.Sprintf("message %d: content is missing or not a string", i)
		}

		if role != expectedRoles[i] {
			return fmt.Sprintf("message %d: expected role %q, got %q", i, expectedRoles[i], role)
		}
		if strings.TrimSpace(content) == "" {
			return fmt.Sprintf("message %d: content is empty", i)
		}
		contents[i] = content
	}

	if !json.Valid([]byte(contents[2])) {
		return "assistant content is not valid JSON"
	}
	return ""
}
