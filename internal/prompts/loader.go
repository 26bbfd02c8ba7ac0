// Package prompts loads prompt lists from local files.
package prompts

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/distillhq/distillery/pkg/textextract"
)

// Load reads a prompt list from path. Supported sources: .txt (one
// prompt per non-blank line), .jsonl (one {"prompt": ...} object per
// line), and .pdf/.docx (extracted text, one prompt per non-blank
// line).
func Load(path string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt":
		return loadLines(path)
	case ".jsonl":
		return loadJSONL(path)
	case ".pdf", ".docx":
		return loadDocument(path, ext)
	default:
		return nil, fmt.Errorf("unsupported prompt source %q (want .txt, .jsonl, .pdf, or .docx)", ext)
	}
}

func loadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var prompts []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			prompts = append(prompts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return prompts, nil
}

func loadJSONL(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var prompts []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var record struct {
			Prompt string `json:"prompt"`
		}
		if err := json.Unmarshal([]byte(text), &record); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		if strings.TrimSpace(record.Prompt) == "" {
			return nil, fmt.Errorf("%s line %d: empty prompt", path, line)
		}
		prompts = append(prompts, record.Prompt)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return prompts, nil
}

func loadDocument(path, ext string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	text, err := textextract.Text(f, info.Size(), ext)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}

	var prompts []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			prompts = append(prompts, line)
		}
	}
	return prompts, nil
}
