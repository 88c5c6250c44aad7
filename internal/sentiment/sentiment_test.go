package sentiment

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/textclass/internal/common"
	"github.com/Veraticus/textclass/internal/data"
	"github.com/Veraticus/textclass/internal/model"
	"github.com/Veraticus/textclass/internal/persist"
	"github.com/Veraticus/textclass/internal/pipeline"
	"github.com/Veraticus/textclass/internal/sdca"
)

const dataPath = "../../data/yelp_labelled.txt"

func testOptions(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	return Options{
		DataPath:     dataPath,
		ModelPath:    filepath.Join(dir, "sentiment.zip"),
		ROCPath:      filepath.Join(dir, "plots", "roc.png"),
		Env:          pipeline.Env{Seed: 1, FeatureBits: 12},
		SDCA:         sdca.Options{L2: 0.01, MaxIterations: 100},
		TestFraction: 0.2,
	}
}

func TestLoadData(t *testing.T) {
	v, err := LoadData(dataPath)
	require.NoError(t, err)
	assert.Equal(t, 60, v.Rows())

	labels, err := v.Bools(pipeline.ColumnLabel)
	require.NoError(t, err)
	var positive int
	for _, l := range labels {
		if l {
			positive++
		}
	}
	assert.Equal(t, 30, positive)
}

func TestLoadData_MissingFile(t *testing.T) {
	_, err := LoadData(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, err, common.ErrIO)
}

func TestRun(t *testing.T) {
	opts := testOptions(t)

	result, err := Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 48, result.TrainRows)
	assert.Equal(t, 12, result.TestRows)
	assert.Equal(t, 12, result.Metrics.Rows)
	assert.GreaterOrEqual(t, result.Metrics.Accuracy, 0.0)
	assert.LessOrEqual(t, result.Metrics.Accuracy, 1.0)
	assert.FileExists(t, opts.ModelPath)
	assert.FileExists(t, opts.ROCPath)
	assert.Positive(t, result.ModelSize)

	assert.Equal(t, SingleReview.SentimentText, result.Single.SentimentText)

	require.Len(t, result.Batch, 2)
	horrible, love := result.Batch[0], result.Batch[1]

	assert.Equal(t, "This was a horrible meal", horrible.SentimentText)
	assert.False(t, horrible.Prediction)
	assert.Less(t, horrible.Probability, float32(0.5))

	assert.Equal(t, "I love this spaghetti.", love.SentimentText)
	assert.True(t, love.Prediction)
	assert.Greater(t, love.Probability, float32(0.5))
}

func TestRun_DefaultTestFraction(t *testing.T) {
	opts := testOptions(t)
	opts.TestFraction = 0
	opts.ROCPath = ""

	result, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 12, result.TestRows)
}

func TestRun_InvalidTestFraction(t *testing.T) {
	opts := testOptions(t)
	opts.TestFraction = 1.5

	_, err := Run(context.Background(), opts)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
	assert.NoFileExists(t, opts.ModelPath)
}

func TestSaveLoad_PredictsIdentically(t *testing.T) {
	all, err := LoadData(dataPath)
	require.NoError(t, err)

	opts := testOptions(t)
	fitted, err := BuildPipeline(opts.Env, opts.SDCA).Fit(context.Background(), all)
	require.NoError(t, err)
	require.NoError(t, persist.Save(fitted, all.Schema(), opts.ModelPath))

	reloaded, schema, err := persist.Load(opts.ModelPath)
	require.NoError(t, err)
	want, err := data.SchemaOf[model.SentimentData]()
	require.NoError(t, err)
	assert.Equal(t, want, schema)

	reviews := append([]model.SentimentData{SingleReview}, BatchReviews...)
	before, err := PredictAll(fitted, reviews)
	require.NoError(t, err)
	after, err := PredictAll(reloaded, reviews)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPredictAll_Empty(t *testing.T) {
	all, err := LoadData(dataPath)
	require.NoError(t, err)
	opts := testOptions(t)
	fitted, err := BuildPipeline(opts.Env, opts.SDCA).Fit(context.Background(), all)
	require.NoError(t, err)

	preds, err := PredictAll(fitted, nil)
	require.NoError(t, err)
	assert.Empty(t, preds)
}
