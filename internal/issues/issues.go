// Package issues trains a classifier that labels GitHub issues with the area
// of the codebase they concern, evaluates it, saves it, and uses it on new
// issues.
package issues

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Veraticus/textclass/internal/common"
	"github.com/Veraticus/textclass/internal/data"
	"github.com/Veraticus/textclass/internal/evaluate"
	"github.com/Veraticus/textclass/internal/model"
	"github.com/Veraticus/textclass/internal/persist"
	"github.com/Veraticus/textclass/internal/pipeline"
	"github.com/Veraticus/textclass/internal/predict"
	"github.com/Veraticus/textclass/internal/sdca"
)

// Intermediate column names.
const (
	ColumnTitleFeaturized       = "TitleFeaturized"
	ColumnDescriptionFeaturized = "DescriptionFeaturized"
)

// SingleIssue is the issue predicted right after training.
var SingleIssue = model.GitHubIssue{
	Title:       "WebSockets communication is slow in my machine",
	Description: "The WebSockets communication used under the covers by SignalR looks like is going slow in my development machine..",
}

// ReloadedIssue is the issue predicted with the model read back from disk.
var ReloadedIssue = model.GitHubIssue{
	Title:       "Entity Framework crashes",
	Description: "When connecting to the database, EF is crashing",
}

// Options configures a run.
type Options struct {
	TrainPath string
	TestPath  string
	ModelPath string
	Env       pipeline.Env
	SDCA      sdca.Options
}

// Result is everything a run produced.
type Result struct {
	Metrics   *evaluate.MulticlassMetrics
	Single    model.IssuePrediction
	Reloaded  model.IssuePrediction
	ModelSize int64
	TrainRows int
	TestRows  int
}

// BuildPipeline returns the issue labeling pipeline: Area becomes the key
// label, Title and Description are featurized and concatenated, a maximum
// entropy model is trained and its predicted key is mapped back to an area.
func BuildPipeline(env pipeline.Env, opts sdca.Options) *pipeline.EstimatorChain {
	return pipeline.Append(
		pipeline.MapValueToKey(pipeline.ColumnLabel, "Area"),
		pipeline.FeaturizeText(env, ColumnTitleFeaturized, "Title"),
		pipeline.FeaturizeText(env, ColumnDescriptionFeaturized, "Description"),
		pipeline.Concatenate(pipeline.ColumnFeatures, ColumnTitleFeaturized, ColumnDescriptionFeaturized),
		sdca.NewMaximumEntropy(env, pipeline.ColumnLabel, pipeline.ColumnFeatures, opts),
		pipeline.MapKeyToValue(pipeline.ColumnPredictedLabel),
	)
}

// LoadData reads an issues file. The file has a header row and tab
// separated ID, Area, Title and Description columns.
func LoadData(path string) (*data.View, error) {
	schema, err := data.SchemaOf[model.GitHubIssue]()
	if err != nil {
		return nil, err
	}
	return data.LoadFromTextFile(path, schema, data.TextOptions{HasHeader: true})
}

// Train fits the pipeline on the rows at path.
func Train(ctx context.Context, path string, env pipeline.Env, opts sdca.Options) (*pipeline.Model, *data.View, error) {
	train, err := LoadData(path)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	fitted, err := BuildPipeline(env, opts).Fit(ctx, train)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Trained issue labeler", "rows", train.Rows(), "elapsed", time.Since(start))
	return fitted, train, nil
}

// Evaluate scores fitted against the labelled rows of test.
func Evaluate(fitted *pipeline.Model, test *data.View) (*evaluate.MulticlassMetrics, error) {
	scored, err := fitted.Transform(test)
	if err != nil {
		return nil, err
	}
	return evaluate.Multiclass(scored, evaluate.MulticlassOptions{})
}

// Predict labels a single issue.
func Predict(fitted *pipeline.Model, issue model.GitHubIssue) (model.IssuePrediction, error) {
	engine, err := predict.NewEngine[model.GitHubIssue, model.IssuePrediction](fitted)
	if err != nil {
		return model.IssuePrediction{}, err
	}
	return engine.Predict(issue)
}

// Run trains on the training file, evaluates on the test file, saves the
// model, predicts SingleIssue, then reloads the model and predicts
// ReloadedIssue.
func Run(ctx context.Context, opts Options) (*Result, error) {
	fitted, train, err := Train(ctx, opts.TrainPath, opts.Env, opts.SDCA)
	if err != nil {
		return nil, err
	}

	test, err := LoadData(opts.TestPath)
	if err != nil {
		return nil, err
	}
	metrics, err := Evaluate(fitted, test)
	if err != nil {
		return nil, fmt.Errorf("evaluating on %s: %w", opts.TestPath, err)
	}

	if err := persist.Save(fitted, train.Schema(), opts.ModelPath); err != nil {
		return nil, err
	}
	info, err := os.Stat(opts.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrIO, err)
	}

	single, err := Predict(fitted, SingleIssue)
	if err != nil {
		return nil, err
	}

	reloaded, _, err := persist.Load(opts.ModelPath)
	if err != nil {
		return nil, err
	}
	again, err := Predict(reloaded, ReloadedIssue)
	if err != nil {
		return nil, err
	}

	return &Result{
		Metrics:   metrics,
		Single:    single,
		Reloaded:  again,
		ModelSize: info.Size(),
		TrainRows: train.Rows(),
		TestRows:  test.Rows(),
	}, nil
}
