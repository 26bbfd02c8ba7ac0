package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/distillhq/distillery/internal/dataset"
)

func newAssembleCmd() *cobra.Command {
	var (
		requestFile  string
		responseFile string
		out          string
	)

	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Pair batch requests with their responses into a conversation dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := dataset.AssembleFiles(requestFile, responseFile)
			if err != nil {
				return err
			}
			if err := dataset.WriteFile(out, records); err != nil {
				return err
			}
			fmt.Printf("wrote %d conversations to %s\n", len(records), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&requestFile, "requests", "", "batch input file")
	cmd.Flags().StringVar(&responseFile, "responses", "", "batch output file")
	cmd.Flags().StringVar(&out, "out", "dataset.jsonl", "output path")
	cmd.MarkFlagRequired("requests")
	cmd.MarkFlagRequired("responses")
	return cmd
}

func newSplitCmd() *cobra.Command {
	var (
		seed  int64
		ratio float64
	)

	cmd := &cobra.Command{
		Use:   "split <dataset-file>",
		Short: "Shuffle a dataset into train and test files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ratio <= 0 || ratio >= 1 {
				return fmt.Errorf("ratio must be in (0, 1), got %v", ratio)
			}

			records, err := dataset.ReadConversationFile(args[0])
			if err != nil {
				return err
			}
			train, test := dataset.Split(records, dataset.SplitOptions{Seed: seed, TrainRatio: ratio})

			base := strings.TrimSuffix(args[0], ".jsonl")
			trainPath := base + "_train.jsonl"
			testPath := base + "_test.jsonl"
			if err := dataset.WriteFile(trainPath, train); err != nil {
				return err
			}
			if err := dataset.WriteFile(testPath, test); err != nil {
				return err
			}

			fmt.Printf("train: %s (%d records)\ntest:  %s (%d records)\n",
				trainPath, len(train), testPath, len(test))
			return nil
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 0, "shuffle seed, same seed gives the same split")
	cmd.Flags().Float64Var(&ratio, "ratio", 0.8, "train fraction")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <dataset-file>",
		Short: "Check every record is a well-formed three-turn conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := dataset.ValidateFile(args[0])
			if err != nil {
				return err
			}
			if !result.OK {
				for _, msg := range result.Errors {
					fmt.Println(msg)
				}
				return fmt.Errorf("%d defective records", len(result.Errors))
			}
			fmt.Println("ok")
			return nil
		},
	}
}
