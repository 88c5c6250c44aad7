package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/textclass/internal/cli"
	"github.com/Veraticus/textclass/internal/model"
	"github.com/Veraticus/textclass/internal/sentiment"
)

func sentimentCmd() *cobra.Command {
	var (
		metricsOut string
		rocPlot    string
	)

	cmd := &cobra.Command{
		Use:   "sentiment",
		Short: "Train the review sentiment classifier",
		Long: `Train a binary classifier that tells positive reviews from negative ones.

The data file holds one review per line followed by a tab and 1 (positive) or
0 (negative). A share of the rows is held out for evaluation.`,
		Example: `  textclass sentiment --data data/yelp_labelled.txt --test-fraction 0.2
  textclass sentiment --roc-plot roc.png --metrics-out metrics.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSentiment(cmd, rocPlot, metricsOut)
		},
	}

	cmd.Flags().String("data", "", "labelled reviews (TSV without header)")
	cmd.Flags().Float64("test-fraction", 0, "share of rows held out for evaluation")
	cmd.Flags().String("model", "", "where to save the trained model")
	cmd.Flags().StringVar(&rocPlot, "roc-plot", "", "write the ROC curve to this PNG file")
	cmd.Flags().StringVar(&metricsOut, "metrics-out", "", "write evaluation metrics to this YAML file")

	_ = viper.BindPFlag("sentiment.data_path", cmd.Flags().Lookup("data"))
	_ = viper.BindPFlag("sentiment.test_fraction", cmd.Flags().Lookup("test-fraction"))
	_ = viper.BindPFlag("sentiment.model_path", cmd.Flags().Lookup("model"))

	return cmd
}

func runSentiment(cmd *cobra.Command, rocPlot, metricsOut string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	handler := cli.NewInterruptHandler(os.Stderr, "Training")
	ctx, stop := handler.HandleInterrupts(cmd.Context())
	defer stop()

	fmt.Fprintln(out, cli.FormatTitle("Review sentiment classifier"))
	run := model.NewRun(model.ProgramSentiment, cfg.Sentiment.ModelPath)

	opts, bar := trainingOptions(cfg, os.Stderr, "Training")
	result, err := sentiment.Run(ctx, sentiment.Options{
		DataPath:     cfg.Sentiment.DataPath,
		ModelPath:    cfg.Sentiment.ModelPath,
		ROCPath:      rocPlot,
		Env:          cfg.Training.Env(),
		SDCA:         opts,
		TestFraction: cfg.Sentiment.TestFraction,
	})
	bar.Finish()
	if err != nil {
		return interrupted(handler, err)
	}

	if err := cli.PrintBinaryMetrics(out, "Model quality metrics evaluation", result.Metrics); err != nil {
		return err
	}
	if err := cli.PrintModelSaved(out, cfg.Sentiment.ModelPath, result.ModelSize); err != nil {
		return err
	}

	fmt.Fprintln(out, cli.TitleStyle.Render("Prediction of a single review"))
	if err := cli.PrintSentimentPrediction(out, result.Single); err != nil {
		return err
	}
	fmt.Fprintln(out, cli.TitleStyle.Render("Predictions of several reviews"))
	for _, pred := range result.Batch {
		if err := cli.PrintSentimentPrediction(out, pred); err != nil {
			return err
		}
	}

	if rocPlot != "" {
		fmt.Fprintln(out, cli.FormatInfo("ROC curve written to "+rocPlot))
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
