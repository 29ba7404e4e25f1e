package main

import (
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/riskwise/internal/risk"
)

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the decision tree and random forest from a member dataset",
		Long: `Reads a delimited member dataset (the UCI bank-marketing layout works as is),
labels every row with the risk rule, trains both models on a held-out split,
prints their classification reports and saves the model bundle.`,
		RunE: runTrain,
	}

	cmd.Flags().String("data", "", "path to the dataset (required)")
	cmd.Flags().String("sep", ";", "field separator")
	cmd.Flags().String("out", "", "bundle output path (default: model.bundle_path)")
	cmd.Flags().Int("trees", 0, "forest size (default 100)")
	cmd.Flags().Int("depth", 0, "decision tree max depth (default 4)")
	cmd.Flags().Uint64("seed", 0, "random seed (default 42)")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runTrain(cmd *cobra.Command, _ []string) error {
	dataPath, _ := cmd.Flags().GetString("data")
	sep, _ := cmd.Flags().GetString("sep")
	out, _ := cmd.Flags().GetString("out")
	trees, _ := cmd.Flags().GetInt("trees")
	depth, _ := cmd.Flags().GetInt("depth")
	seed, _ := cmd.Flags().GetUint64("seed")

	if utf8.RuneCountInString(sep) != 1 {
		return fmt.Errorf("separator must be a single character, got %q", sep)
	}
	sepRune, _ := utf8.DecodeRuneInString(sep)
	if out == "" {
		out = cfg.Model.BundlePath
	}

	rows, err := risk.LoadDatasetFile(dataPath, sepRune)
	if err != nil {
		return err
	}
	log.Info().Str("path", dataPath).Int("rows", len(rows)).Msg("Dataset loaded")

	opts := risk.DefaultTrainOptions()
	if trees > 0 {
		opts.ForestTrees = trees
	}
	if depth > 0 {
		opts.TreeMaxDepth = depth
	}
	if seed > 0 {
		opts.Seed = seed
	}

	classifier := risk.NewClassifier(log.Logger)
	result, err := classifier.Train(cmd.Context(), rows, opts)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Trained on %d rows, evaluated on %d\n\n", result.TrainRows, result.TestRows)
	fmt.Fprintln(w, result.DecisionTree.String())
	fmt.Fprintln(w, result.RandomForest.String())

	if err := classifier.Save(out); err != nil {
		return err
	}
	fmt.Fprintf(w, "Model bundle saved to %s\n", out)
	return nil
}
