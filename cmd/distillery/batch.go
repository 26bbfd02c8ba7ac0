package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/distillhq/distillery/internal/batch"
	"github.com/distillhq/distillery/internal/prompts"
)

func newPrepareCmd() *cobra.Command {
	var (
		promptsFile string
		system      string
		schemaFile  string
		model       string
		maxTokens   int
		out         string
	)

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Format a prompt list into a batch input file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if model == "" {
				model = cfg.Pipeline.DefaultModel
			}
			if maxTokens <= 0 {
				maxTokens = cfg.Pipeline.MaxTokens
			}

			promptList, err := prompts.Load(promptsFile)
			if err != nil {
				return err
			}
			schema, err := loadSchema(schemaFile)
			if err != nil {
				return err
			}

			requests, err := batch.FormatRequests(batch.FormatParams{
				Prompts:       promptList,
				SystemMessage: system,
				Schema:        schema,
				Model:         model,
				MaxTokens:     maxTokens,
			})
			if err != nil {
				return err
			}
			if err := batch.WriteRequestFile(out, requests); err != nil {
				return err
			}

			fmt.Printf("wrote %d requests to %s\n", len(requests), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&promptsFile, "prompts", "", "prompt source file (.txt, .jsonl, .pdf, .docx)")
	cmd.Flags().StringVar(&system, "system", "", "shared system message")
	cmd.Flags().StringVar(&schemaFile, "schema", "", "output schema JSON file")
	cmd.Flags().StringVar(&model, "model", "", "model to request")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "max completion tokens per request")
	cmd.Flags().StringVar(&out, "out", "batch_input.jsonl", "output path")
	cmd.MarkFlagRequired("prompts")
	cmd.MarkFlagRequired("schema")
	cmd.MarkFlagRequired("system")
	return cmd
}

func newSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <request-file>",
		Short: "Upload a batch input file and create the batch job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			job, err := newBatchClient(cfg).Submit(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(job)
		},
	}
}

func newWaitCmd() *cobra.Command {
	var (
		interval time.Duration
		deadline time.Duration
	)

	cmd := &cobra.Command{
		Use:   "wait <job-id>",
		Short: "Poll a batch job until it reaches a terminal state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opts := pollOptions(cfg)
			if interval > 0 {
				opts.Interval = interval
			}
			if cmd.Flags().Changed("deadline") {
				opts.Deadline = deadline
			}

			job, err := batch.AwaitCompletion(cmd.Context(), newBatchClient(cfg), args[0], opts)
			if err != nil {
				return err
			}
			return printJSON(job)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (default from config)")
	cmd.Flags().DurationVar(&deadline, "deadline", 0, "give up after this long, 0 waits forever")
	return cmd
}

func newFetchCmd() *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "fetch <job-id>",
		Short: "Download the output file of a completed batch job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if dest == "" {
				dest = cfg.Pipeline.DataDir
			}
			path, err := newBatchClient(cfg).FetchResults(cmd.Context(), args[0], dest)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dest, "dest", "", "destination directory (default DATA_DIR)")
	return cmd
}
