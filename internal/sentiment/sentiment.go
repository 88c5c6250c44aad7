// Package sentiment trains a binary classifier over short restaurant reviews.
package sentiment

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/textclass/internal/common"
	"github.com/Veraticus/textclass/internal/data"
	"github.com/Veraticus/textclass/internal/evaluate"
	"github.com/Veraticus/textclass/internal/model"
	"github.com/Veraticus/textclass/internal/persist"
	"github.com/Veraticus/textclass/internal/pipeline"
	"github.com/Veraticus/textclass/internal/predict"
	"github.com/Veraticus/textclass/internal/sdca"
)

// DefaultTestFraction is the share of rows held out for evaluation.
const DefaultTestFraction = 0.2

// SingleReview is predicted on its own after training.
var SingleReview = model.SentimentData{SentimentText: "This was a very bad steak"}

// BatchReviews are predicted together after training.
var BatchReviews = []model.SentimentData{
	{SentimentText: "This was a horrible meal"},
	{SentimentText: "I love this spaghetti."},
}

// Options configures a run.
type Options struct {
	DataPath  string
	ModelPath string
	// ROCPath, when set, receives a PNG of the ROC curve.
	ROCPath      string
	Env          pipeline.Env
	SDCA         sdca.Options
	TestFraction float64
}

// Result is everything a run produced.
type Result struct {
	Metrics   *evaluate.BinaryMetrics
	Single    model.SentimentPrediction
	Batch     []model.SentimentPrediction
	ModelSize int64
	TrainRows int
	TestRows  int
}

// BuildPipeline featurizes SentimentText and trains a logistic regression on
// the Label column.
func BuildPipeline(env pipeline.Env, opts sdca.Options) *pipeline.EstimatorChain {
	return pipeline.Append(
		pipeline.FeaturizeText(env, pipeline.ColumnFeatures, "SentimentText"),
		sdca.NewLogisticRegression(env, pipeline.ColumnLabel, pipeline.ColumnFeatures, opts),
	)
}

// LoadData reads a header-less file of review<TAB>0|1 lines.
func LoadData(path string) (*data.View, error) {
	schema, err := data.SchemaOf[model.SentimentData]()
	if err != nil {
		return nil, err
	}
	return data.LoadFromTextFile(path, schema, data.TextOptions{})
}

// Evaluate scores fitted against the labelled rows of test.
func Evaluate(fitted *pipeline.Model, test *data.View) (*evaluate.BinaryMetrics, *evaluate.ROCCurve, error) {
	scored, err := fitted.Transform(test)
	if err != nil {
		return nil, nil, err
	}
	metrics, err := evaluate.Binary(scored, evaluate.BinaryOptions{})
	if err != nil {
		return nil, nil, err
	}
	curve, err := evaluate.ROC(scored, evaluate.BinaryOptions{})
	if err != nil {
		return nil, nil, err
	}
	return metrics, curve, nil
}

// Predict classifies a single review.
func Predict(fitted *pipeline.Model, review model.SentimentData) (model.SentimentPrediction, error) {
	engine, err := predict.NewEngine[model.SentimentData, model.SentimentPrediction](fitted)
	if err != nil {
		return model.SentimentPrediction{}, err
	}
	return engine.Predict(review)
}

// PredictAll classifies reviews in order.
func PredictAll(fitted *pipeline.Model, reviews []model.SentimentData) ([]model.SentimentPrediction, error) {
	out := make([]model.SentimentPrediction, 0, len(reviews))
	for pred, err := range predict.Batch[model.SentimentData, model.SentimentPrediction](fitted, reviews) {
		if err != nil {
			return nil, err
		}
		out = append(out, pred)
	}
	return out, nil
}

// Run splits the data, trains, evaluates, saves the model and predicts
// SingleReview and BatchReviews.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.TestFraction == 0 {
		opts.TestFraction = DefaultTestFraction
	}

	all, err := LoadData(opts.DataPath)
	if err != nil {
		return nil, err
	}
	train, test, err := data.TrainTestSplit(all, opts.TestFraction, opts.Env.Seed)
	if err != nil {
		return nil, err
	}

	fitted, err := BuildPipeline(opts.Env, opts.SDCA).Fit(ctx, train)
	if err != nil {
		return nil, err
	}
	slog.Info("Trained sentiment classifier", "train_rows", train.Rows(), "test_rows", test.Rows())

	metrics, curve, err := Evaluate(fitted, test)
	if err != nil {
		return nil, fmt.Errorf("evaluating held-out rows: %w", err)
	}
	if opts.ROCPath != "" {
		if err := evaluate.PlotROC(curve, opts.ROCPath); err != nil {
			return nil, err
		}
	}

	if err := persist.Save(fitted, all.Schema(), opts.ModelPath); err != nil {
		return nil, err
	}
	info, err := os.Stat(opts.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrIO, err)
	}

	single, err := Predict(fitted, SingleReview)
	if err != nil {
		return nil, err
	}
	batch, err := PredictAll(fitted, BatchReviews)
	if err != nil {
		return nil, err
	}

	return &Result{
		Metrics:   metrics,
		Single:    single,
		Batch:     batch,
		ModelSize: info.Size(),
		TrainRows: train.Rows(),
		TestRows:  test.Rows(),
	}, nil
}
