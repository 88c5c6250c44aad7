package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/textclass/internal/cli"
	"github.com/Veraticus/textclass/internal/common"
	"github.com/Veraticus/textclass/internal/model"
	"github.com/Veraticus/textclass/internal/persist"
	"github.com/Veraticus/textclass/internal/predict"
)

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Use a saved model on new text",
		Long:  `Load a model saved by the issues or sentiment command and label new text with it.`,
	}

	cmd.AddCommand(predictIssueCmd())
	cmd.AddCommand(predictSentimentCmd())

	return cmd
}

func predictIssueCmd() *cobra.Command {
	var modelPath, title, description string

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Predict the area of a GitHub issue",
		Example: `  textclass predict issue --title "Entity Framework crashes" \
    --description "When connecting to the database, EF is crashing"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if modelPath == "" {
				modelPath = cfg.Issues.ModelPath
			}

			fitted, _, err := persist.Load(modelPath)
			if err != nil {
				return err
			}
			engine, err := predict.NewEngine[model.GitHubIssue, model.IssuePrediction](fitted)
			if err != nil {
				return common.NewUserError(fmt.Sprintf("%s is not an issue labeler model", modelPath), err)
			}

			issue := model.GitHubIssue{Title: title, Description: description}
			pred, err := engine.Predict(issue)
			if err != nil {
				return err
			}
			return cli.PrintIssuePrediction(cmd.OutOrStdout(), "Prediction", issue, pred)
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "saved issue labeler (default: issues.model_path)")
	cmd.Flags().StringVar(&title, "title", "", "issue title")
	cmd.Flags().StringVar(&description, "description", "", "issue description")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func predictSentimentCmd() *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:   "sentiment [TEXT...]",
		Short: "Predict the sentiment of reviews",
		Long: `Predict the sentiment of each review given as an argument. With no
arguments, reviews are read from standard input, one per line.`,
		Example: `  textclass predict sentiment "This was a horrible meal" "I love this spaghetti."
  cat reviews.txt | textclass predict sentiment`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if modelPath == "" {
				modelPath = cfg.Sentiment.ModelPath
			}

			texts := args
			if len(texts) == 0 {
				texts, err = cli.NewLineReader(cmd.InOrStdin()).NonEmptyLines(cmd.Context())
				if err != nil {
					if errors.Is(err, cli.ErrInputCancelled) {
						return common.NewUserError("Reading reviews was cancelled", err)
					}
					return err
				}
			}
			if len(texts) == 0 {
				fmt.Fprintln(os.Stderr, cli.FormatWarning("No reviews to predict."))
				return nil
			}

			fitted, _, err := persist.Load(modelPath)
			if err != nil {
				return err
			}

			reviews := make([]model.SentimentData, len(texts))
			for i, t := range texts {
				reviews[i] = model.SentimentData{SentimentText: t}
			}
			for pred, err := range predict.Batch[model.SentimentData, model.SentimentPrediction](fitted, reviews) {
				if err != nil {
					return common.NewUserError(fmt.Sprintf("%s is not a sentiment model", modelPath), err)
				}
				if err := cli.PrintSentimentPrediction(cmd.OutOrStdout(), pred); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "saved sentiment model (default: sentiment.model_path)")

	return cmd
}
