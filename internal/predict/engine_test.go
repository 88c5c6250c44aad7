package predict

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/Veraticus/textclass/internal/common"
	"github.com/Veraticus/textclass/internal/data"
	"github.com/Veraticus/textclass/internal/pipeline"
	"github.com/Veraticus/textclass/internal/sdca"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type labeled struct {
	Text  string `column:"SentimentText"`
	Label bool
}

type review struct {
	Text string `column:"SentimentText"`
}

type verdict struct {
	Text        string  `column:"SentimentText"`
	Prediction  bool    `column:"PredictedLabel"`
	Probability float32 `column:"Probability"`
}

type unrelated struct {
	Body string
}

func trainedModel(t *testing.T) *pipeline.Model {
	t.Helper()
	env := pipeline.Env{Seed: 1, FeatureBits: 10}
	v, err := data.LoadFromRecords([]labeled{
		{Text: "great food, loved it", Label: true},
		{Text: "wonderful service and great staff", Label: true},
		{Text: "loved the dessert", Label: true},
		{Text: "terrible food, hated it", Label: false},
		{Text: "awful service and rude staff", Label: false},
		{Text: "hated the dessert", Label: false},
	})
	require.NoError(t, err)

	model, err := pipeline.Append(
		pipeline.FeaturizeText(env, "Features", "SentimentText"),
		sdca.NewLogisticRegression(env, "Label", "Features", sdca.Options{L2: 0.01, MaxIterations: 50}),
	).Fit(context.Background(), v)
	require.NoError(t, err)
	return model
}

func TestEngine_Predict(t *testing.T) {
	engine, err := NewEngine[review, verdict](trainedModel(t))
	require.NoError(t, err)

	got, err := engine.Predict(review{Text: "loved it, great"})
	require.NoError(t, err)
	assert.Equal(t, "loved it, great", got.Text)
	assert.True(t, got.Prediction)
	assert.Greater(t, got.Probability, float32(0.5))

	got, err = engine.Predict(review{Text: "hated it, terrible"})
	require.NoError(t, err)
	assert.False(t, got.Prediction)
	assert.Less(t, got.Probability, float32(0.5))
}

func TestNewEngine_SchemaMismatch(t *testing.T) {
	_, err := NewEngine[unrelated, verdict](trainedModel(t))
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)
	assert.ErrorIs(t, err, common.ErrPipelineConfiguration)
}

func TestBatch_PreservesOrder(t *testing.T) {
	model := trainedModel(t)
	engine, err := NewEngine[review, verdict](model)
	require.NoError(t, err)

	for _, size := range []int{0, 1, 2, 7} {
		t.Run(fmt.Sprintf("size %d", size), func(t *testing.T) {
			records := make([]review, size)
			for i := range records {
				records[i] = review{Text: fmt.Sprintf("review %d was great", i)}
			}

			var got []verdict
			for out, err := range Batch[review, verdict](model, records) {
				require.NoError(t, err)
				got = append(got, out)
			}
			require.Len(t, got, size)

			for i, out := range got {
				assert.Equal(t, records[i].Text, out.Text)
				single, err := engine.Predict(records[i])
				require.NoError(t, err)
				assert.Equal(t, single, out)
			}
		})
	}
}

func TestEngine_PredictBatchStopsEarly(t *testing.T) {
	engine, err := NewEngine[review, verdict](trainedModel(t))
	require.NoError(t, err)

	records := []review{{Text: "a"}, {Text: "b"}, {Text: "c"}}
	var seen []string
	for out, err := range engine.PredictBatch(records) {
		require.NoError(t, err)
		seen = append(seen, out.Text)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestBatch_SchemaMismatch(t *testing.T) {
	var errs []error
	for _, err := range Batch[unrelated, verdict](trainedModel(t), []unrelated{{Body: "x"}}) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], common.ErrSchemaMismatch)
}

func TestPool_Concurrent(t *testing.T) {
	model := trainedModel(t)
	pool, err := NewPool[review, verdict](model)
	require.NoError(t, err)
	engine, err := NewEngine[review, verdict](model)
	require.NoError(t, err)

	texts := []string{"great food", "terrible food", "loved the staff", "rude staff"}
	want := make([]verdict, len(texts))
	for i, text := range texts {
		want[i], err = engine.Predict(review{Text: text})
		require.NoError(t, err)
	}

	got := make([]verdict, len(texts)*8)
	errs := make([]error, len(got))
	var wg sync.WaitGroup
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], errs[i] = pool.Predict(review{Text: texts[i%len(texts)]})
		}(i)
	}
	wg.Wait()

	for i := range got {
		require.NoError(t, errs[i])
		assert.Equal(t, want[i%len(texts)], got[i])
	}
}
