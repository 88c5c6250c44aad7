package sdca

import (
	"context"
	"testing"

	"github.com/Veraticus/textclass/internal/common"
	"github.com/Veraticus/textclass/internal/data"
	"github.com/Veraticus/textclass/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sparse(length int, entries map[int]float64) data.Vector {
	v := data.Vector{Length: length}
	for i := 0; i < length; i++ {
		if x, ok := entries[i]; ok {
			v.Indices = append(v.Indices, i)
			v.Values = append(v.Values, x)
		}
	}
	return v
}

func featureColumn(size int) data.Column {
	return data.Column{Name: "Features", Kind: data.KindVector, Index: -1, Size: size}
}

func binaryView(t *testing.T) *data.View {
	t.Helper()
	vecs := []data.Vector{
		sparse(4, map[int]float64{0: 1}),
		sparse(4, map[int]float64{0: 0.6, 1: 0.8}),
		sparse(4, map[int]float64{1: 1}),
		sparse(4, map[int]float64{0: 0.8, 1: 0.6}),
		sparse(4, map[int]float64{2: 1}),
		sparse(4, map[int]float64{2: 0.6, 3: 0.8}),
		sparse(4, map[int]float64{3: 1}),
		sparse(4, map[int]float64{2: 0.8, 3: 0.6}),
	}
	labels := []bool{true, true, true, true, false, false, false, false}

	v, err := data.NewView(len(vecs)).With(featureColumn(4), vecs)
	require.NoError(t, err)
	v, err = v.With(data.Column{Name: "Label", Kind: data.KindBool, Index: 1}, labels)
	require.NoError(t, err)
	return v
}

func multiclassView(t *testing.T) *data.View {
	t.Helper()
	var (
		vecs []data.Vector
		keys []uint32
	)
	for c := 0; c < 3; c++ {
		for j := 0; j < 3; j++ {
			vecs = append(vecs, sparse(6, map[int]float64{2 * c: 0.5 + 0.2*float64(j), 2*c + 1: 0.5}))
			keys = append(keys, uint32(c+1))
		}
	}
	// A row with a missing label takes no part in training.
	vecs = append(vecs, sparse(6, map[int]float64{0: 1}))
	keys = append(keys, 0)

	v, err := data.NewView(len(vecs)).With(featureColumn(6), vecs)
	require.NoError(t, err)
	v, err = v.With(data.Column{
		Name:      "Label",
		Kind:      data.KindKey,
		Index:     -1,
		KeyValues: []string{"area-System.Net", "area-System.Data", "area-Infrastructure"},
	}, keys)
	require.NoError(t, err)
	return v
}

func fastOptions(progress *[]Progress) Options {
	return Options{
		L2:            0.1,
		MaxIterations: 500,
		Tolerance:     0.01,
		Progress: func(p Progress) {
			*progress = append(*progress, p)
		},
	}
}

func TestLogisticRegression_Separable(t *testing.T) {
	var progress []Progress
	v := binaryView(t)

	est := NewLogisticRegression(pipeline.Env{Seed: 1}, "Label", "Features", fastOptions(&progress))
	fitted, err := est.Fit(context.Background(), v)
	require.NoError(t, err)

	out, err := fitted.Transform(v)
	require.NoError(t, err)

	predicted, err := out.Bools(pipeline.ColumnPredictedLabel)
	require.NoError(t, err)
	labels, err := v.Bools("Label")
	require.NoError(t, err)
	assert.Equal(t, labels, predicted)

	probs, err := out.Floats(pipeline.ColumnProbability)
	require.NoError(t, err)
	for _, p := range probs {
		assert.Greater(t, p, 0.0)
		assert.Less(t, p, 1.0)
	}

	require.NotEmpty(t, progress)
	last := progress[len(progress)-1]
	assert.Less(t, last.Gap, 0.01)
	assert.Less(t, last.Epoch, 500)
	assert.LessOrEqual(t, last.Dual, last.Primal+1e-9)
}

func TestLogisticRegression_Deterministic(t *testing.T) {
	v := binaryView(t)
	opts := Options{L2: 0.01, MaxIterations: 5}

	a, err := NewLogisticRegression(pipeline.Env{Seed: 7}, "Label", "Features", opts).Fit(context.Background(), v)
	require.NoError(t, err)
	b, err := NewLogisticRegression(pipeline.Env{Seed: 7}, "Label", "Features", opts).Fit(context.Background(), v)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestMaximumEntropy_ProbabilitiesSumToOne(t *testing.T) {
	var progress []Progress
	v := multiclassView(t)

	fitted, err := NewMaximumEntropy(pipeline.Env{Seed: 3}, "Label", "Features", fastOptions(&progress)).
		Fit(context.Background(), v)
	require.NoError(t, err)

	predictor, ok := fitted.(*MulticlassPredictor)
	require.True(t, ok)
	assert.Len(t, predictor.Weights, 3)
	assert.Equal(t, "area-Infrastructure", predictor.Classes[2])

	out, err := fitted.Transform(v)
	require.NoError(t, err)

	scores, err := out.Dense(pipeline.ColumnScore)
	require.NoError(t, err)
	for _, row := range scores {
		require.Len(t, row, 3)
		var sum float64
		for _, p := range row {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}

	predicted, err := out.Keys(pipeline.ColumnPredictedLabel)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 1, 1, 2, 2, 2, 3, 3, 3}, predicted[:9])

	col, ok := out.Schema().Lookup(pipeline.ColumnPredictedLabel)
	require.True(t, ok)
	assert.Equal(t, "area-System.Data", data.KeyValue(col, predicted[3]))

	require.NotEmpty(t, progress)
	assert.Less(t, progress[len(progress)-1].Gap, 0.01)
}

func TestMaximumEntropy_Deterministic(t *testing.T) {
	v := multiclassView(t)
	opts := Options{MaxIterations: 4}

	a, err := NewMaximumEntropy(pipeline.Env{Seed: 11}, "Label", "Features", opts).Fit(context.Background(), v)
	require.NoError(t, err)
	b, err := NewMaximumEntropy(pipeline.Env{Seed: 11}, "Label", "Features", opts).Fit(context.Background(), v)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestMaximumEntropy_NoLabeledRows(t *testing.T) {
	v, err := data.NewView(1).With(featureColumn(2), []data.Vector{sparse(2, map[int]float64{0: 1})})
	require.NoError(t, err)
	v, err = v.With(data.Column{Name: "Label", Kind: data.KindKey, KeyValues: []string{"a"}}, []uint32{0})
	require.NoError(t, err)

	_, err = NewMaximumEntropy(pipeline.Env{}, "Label", "Features", Options{}).Fit(context.Background(), v)
	assert.ErrorIs(t, err, common.ErrTraining)
}

func TestTrainers_OutputSchema(t *testing.T) {
	in := data.NewSchema(
		featureColumn(4),
		data.Column{Name: "Label", Kind: data.KindText},
	)

	_, err := NewMaximumEntropy(pipeline.Env{}, "Label", "Features", Options{}).OutputSchema(in)
	assert.ErrorIs(t, err, common.ErrPipelineConfiguration)

	_, err = NewLogisticRegression(pipeline.Env{}, "Label", "Missing", Options{}).OutputSchema(in)
	assert.ErrorIs(t, err, common.ErrPipelineConfiguration)
}

func TestOptions_Invalid(t *testing.T) {
	_, err := Options{L2: -1}.withDefaults()
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	opts, err := Options{}.withDefaults()
	require.NoError(t, err)
	assert.Equal(t, DefaultL2, opts.L2)
	assert.Equal(t, DefaultMaxIterations, opts.MaxIterations)
	assert.Equal(t, DefaultTolerance, opts.Tolerance)
}

func TestBinaryPredictor_LengthMismatch(t *testing.T) {
	p := &BinaryPredictor{Features: "Features", Weights: make([]float64, 3)}
	v, err := data.NewView(1).With(featureColumn(4), []data.Vector{sparse(4, nil)})
	require.NoError(t, err)

	_, err = p.Transform(v)
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)
}

func TestFit_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLogisticRegression(pipeline.Env{}, "Label", "Features", Options{}).Fit(ctx, binaryView(t))
	assert.ErrorIs(t, err, context.Canceled)
}
