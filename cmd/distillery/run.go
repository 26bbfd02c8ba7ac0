package main

import (
	"github.com/spf13/cobra"

	"github.com/distillhq/distillery/internal/pipeline"
	"github.com/distillhq/distillery/internal/prompts"
)

func newRunCmd() *cobra.Command {
	var (
		promptsFile string
		system      string
		schemaFile  string
		model       string
		maxTokens   int
		prefix      string
		noSplit     bool
		seed        int64
		ratio       float64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full generation pipeline: prepare, submit, wait, fetch, assemble, split",
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
			if !cmd.Flags().Changed("seed") {
				seed = cfg.Pipeline.SplitSeed
			}
			if !cmd.Flags().Changed("ratio") {
				ratio = cfg.Pipeline.TrainRatio
			}

			promptList, err := prompts.Load(promptsFile)
			if err != nil {
				return err
			}
			schema, err := loadSchema(schemaFile)
			if err != nil {
				return err
			}

			params := pipeline.GenerateParams{
				Prompts:       promptList,
				SystemMessage: system,
				Schema:        schema,
				Model:         model,
				MaxTokens:     maxTokens,
				Prefix:        prefix,
			}
			if !noSplit {
				params.Split = &pipeline.SplitParams{Seed: seed, TrainRatio: ratio}
			}

			pipe := pipeline.New(newBatchClient(cfg), nil, cfg.Pipeline.DataDir, pollOptions(cfg))
			result, err := pipe.Generate(cmd.Context(), params)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}

	cmd.Flags().StringVar(&promptsFile, "prompts", "", "prompt source file (.txt, .jsonl, .pdf, .docx)")
	cmd.Flags().StringVar(&system, "system", "", "shared system message")
	cmd.Flags().StringVar(&schemaFile, "schema", "", "output schema JSON file")
	cmd.Flags().StringVar(&model, "model", "", "model to request")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "max completion tokens per request")
	cmd.Flags().StringVar(&prefix, "prefix", "", "artifact filename prefix")
	cmd.Flags().BoolVar(&noSplit, "no-split", false, "skip the train/test split")
	cmd.Flags().Int64Var(&seed, "seed", 0, "shuffle seed for the split")
	cmd.Flags().Float64Var(&ratio, "ratio", 0, "train fraction for the split")
	cmd.MarkFlagRequired("prompts")
	cmd.MarkFlagRequired("schema")
	cmd.MarkFlagRequired("system")
	return cmd
}
