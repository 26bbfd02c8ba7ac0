package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/distillhq/distillery/internal/finetune"
	"github.com/distillhq/distillery/internal/provider"
)

func newFinetuneCmd() *cobra.Command {
	var (
		trainFile      string
		validationFile string
		baseModel      string
		suffix         string
	)

	cmd := &cobra.Command{
		Use:   "finetune",
		Short: "Upload dataset files and start a fine-tuning job",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			svc := finetune.NewService(provider.NewClient(cfg.OpenAI))
			jobID, err := svc.Submit(cmd.Context(), trainFile, validationFile, baseModel, suffix)
			if err != nil {
				return err
			}
			fmt.Println(jobID)
			return nil
		},
	}

	cmd.Flags().StringVar(&trainFile, "train", "", "training dataset file")
	cmd.Flags().StringVar(&validationFile, "validation", "", "validation dataset file")
	cmd.Flags().StringVar(&baseModel, "base-model", "", "base model to fine-tune")
	cmd.Flags().StringVar(&suffix, "suffix", "", "suffix for the fine-tuned model name")
	cmd.MarkFlagRequired("train")
	cmd.MarkFlagRequired("base-model")
	return cmd
}

func newMonitorCmd() *cobra.Command {
	var (
		interval time.Duration
		deadline time.Duration
	)

	cmd := &cobra.Command{
		Use:   "monitor <job-id>",
		Short: "Wait for a fine-tuning job and print the resulting model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = cfg.Pipeline.PollInterval
			}
			if !cmd.Flags().Changed("deadline") {
				deadline = cfg.Pipeline.PollDeadline
			}

			svc := finetune.NewService(provider.NewClient(cfg.OpenAI))
			model, err := svc.Monitor(cmd.Context(), args[0], interval, deadline)
			if err != nil {
				return err
			}
			fmt.Println(model)
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (default from config)")
	cmd.Flags().DurationVar(&deadline, "deadline", 0, "give up after this long, 0 waits forever")
	return cmd
}
