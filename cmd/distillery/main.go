// Command distillery drives the dataset pipeline from the terminal:
// prepare and submit batch jobs, assemble and validate datasets, run
// fine-tuning, and evaluate candidate models. It talks to the provider
// directly and needs no API server or database.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/distillhq/distillery/internal/batch"
	"github.com/distillhq/distillery/internal/config"
	"github.com/distillhq/distillery/internal/provider"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "distillery",
		Short:         "Batch LLM dataset pipeline: generate, fine-tune, evaluate",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newPrepareCmd(),
		newSubmitCmd(),
		newWaitCmd(),
		newFetchCmd(),
		newAssembleCmd(),
		newSplitCmd(),
		newValidateCmd(),
		newFinetuneCmd(),
		newMonitorCmd(),
		newEvaluateCmd(),
		newRunCmd(),
	)
	return root
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newBatchClient(cfg *config.Config) *batch.Client {
	return batch.NewClient(provider.NewClient(cfg.OpenAI), cfg.Pipeline.CompletionWindow)
}

func pollOptions(cfg *config.Config) batch.PollOptions {
	return batch.PollOptions{
		Interval: cfg.Pipeline.PollInterval,
		Deadline: cfg.Pipeline.PollDeadline,
	}
}

// loadSchema reads an output schema definition from a JSON file:
//
//	{"name": "extraction", "fields": {"title": {"type": "string", "required": true}}}
func loadSchema(path string) (batch.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return batch.Schema{}, fmt.Errorf("read schema file: %w", err)
	}
	var schema batch.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return batch.Schema{}, fmt.Errorf("parse schema file %s: %w", path, err)
	}
	return schema, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
