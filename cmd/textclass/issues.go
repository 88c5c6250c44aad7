package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/textclass/internal/cli"
	"github.com/Veraticus/textclass/internal/issues"
	"github.com/Veraticus/textclass/internal/model"
)

func issuesCmd() *cobra.Command {
	var metricsOut string

	cmd := &cobra.Command{
		Use:   "issues",
		Short: "Train the GitHub issue area labeler",
		Long: `Train a multiclass classifier that predicts the Area of a GitHub issue from
its Title and Description.

The model is trained on the training file, evaluated on the test file, saved,
and then used to label two sample issues: one with the freshly trained model
and one with the model read back from disk.`,
		Example: `  # Train with the default data locations
  textclass issues

  # Train on other files and keep the metrics
  textclass issues --train data/train.tsv --test data/test.tsv --metrics-out metrics.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIssues(cmd, metricsOut)
		},
	}

	cmd.Flags().String("train", "", "training data (TSV with header)")
	cmd.Flags().String("test", "", "test data (TSV with header)")
	cmd.Flags().String("model", "", "where to save the trained model")
	cmd.Flags().StringVar(&metricsOut, "metrics-out", "", "write evaluation metrics to this YAML file")

	_ = viper.BindPFlag("issues.train_path", cmd.Flags().Lookup("train"))
	_ = viper.BindPFlag("issues.test_path", cmd.Flags().Lookup("test"))
	_ = viper.BindPFlag("issues.model_path", cmd.Flags().Lookup("model"))

	return cmd
}

func runIssues(cmd *cobra.Command, metricsOut string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	handler := cli.NewInterruptHandler(os.Stderr, "Training")
	ctx, stop := handler.HandleInterrupts(cmd.Context())
	defer stop()

	fmt.Fprintln(out, cli.FormatTitle("GitHub issue labeler"))
	run := model.NewRun(model.ProgramIssues, cfg.Issues.ModelPath)

	opts, bar := trainingOptions(cfg, os.Stderr, "Training")
	result, err := issues.Run(ctx, issues.Options{
		TrainPath: cfg.Issues.TrainPath,
		TestPath:  cfg.Issues.TestPath,
		ModelPath: cfg.Issues.ModelPath,
		Env:       cfg.Training.Env(),
		SDCA:      opts,
	})
	bar.Finish()
	if err != nil {
		return interrupted(handler, err)
	}

	if err := cli.PrintMulticlassMetrics(out, "Metrics for multi-class classification model - test data", result.Metrics); err != nil {
		return err
	}
	if err := cli.PrintModelSaved(out, cfg.Issues.ModelPath, result.ModelSize); err != nil {
		return err
	}
	if err := cli.PrintIssuePrediction(out, "Single prediction just-trained-model", issues.SingleIssue, result.Single); err != nil {
		return err
	}
	if err := cli.PrintIssuePrediction(out, "Single prediction from saved model", issues.ReloadedIssue, result.Reloaded); err != nil {
		return err
	}

	if metricsOut != "" {
		if err := cli.WriteMetricsYAML(metricsOut, result.Metrics); err != nil {
			return err
		}
	}

	run.TrainRows = result.TrainRows
	run.TestRows = result.TestRows
	run.Metrics = result.Metrics.Summary()
	run.Finish()
	recordRun(ctx, cfg, run)
	return nil
}
