package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/distillhq/distillery/internal/embedding"
	"github.com/distillhq/distillery/internal/evaluation"
	"github.com/distillhq/distillery/internal/provider"
)

func newEvaluateCmd() *cobra.Command {
	var (
		validationFile string
		candidateSpecs []string
		schemaFile     string
		maxTokens      int
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run candidate models over a validation set and score them pairwise",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if maxTokens <= 0 {
				maxTokens = cfg.Pipeline.MaxTokens
			}

			candidates, err := parseCandidates(candidateSpecs)
			if err != nil {
				return err
			}
			schema, err := loadSchema(schemaFile)
			if err != nil {
				return err
			}

			api := provider.NewClient(cfg.OpenAI)
			embedSvc := embedding.NewService(api, nil,
				cfg.Pipeline.EmbeddingModel, cfg.Pipeline.EmbeddingDims, cfg.Pipeline.EmbeddingTTL)
			runner := evaluation.NewRunner(newBatchClient(cfg), embedSvc, nil, cfg.Pipeline.DataDir, pollOptions(cfg))

			result, err := runner.Run(cmd.Context(), evaluation.Params{
				ValidationFile: validationFile,
				Candidates:     candidates,
				Schema:         schema,
				MaxTokens:      maxTokens,
			})
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}

	cmd.Flags().StringVar(&validationFile, "validation", "", "validation conversation file")
	cmd.Flags().StringArrayVar(&candidateSpecs, "candidate", nil, "candidate as name=model, repeatable")
	cmd.Flags().StringVar(&schemaFile, "schema", "", "output schema JSON file")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "max completion tokens per request")
	cmd.MarkFlagRequired("validation")
	cmd.MarkFlagRequired("candidate")
	cmd.MarkFlagRequired("schema")
	return cmd
}

func parseCandidates(specs []string) ([]evaluation.Candidate, error) {
	if len(specs) < 2 {
		return nil, fmt.Errorf("need at least two --candidate flags, got %d", len(specs))
	}
	candidates := make([]evaluation.Candidate, len(specs))
	for i, raw := range specs {
		name, model, ok := strings.Cut(raw, "=")
		if !ok || name == "" || model == "" {
			return nil, fmt.Errorf("candidate %q is not name=model", raw)
		}
		candidates[i] = evaluation.Candidate{Name: name, Model: model}
	}
	return candidates, nil
}
