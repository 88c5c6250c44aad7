package pipeline

import (
	"context"
	"testing"

	"github.com/Veraticus/textclass/internal/common"
	"github.com/Veraticus/textclass/internal/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type issue struct {
	Area  string
	Title string
	Body  string `column:"Description"`
}

func issueView(t *testing.T, issues ...issue) *data.View {
	t.Helper()
	v, err := data.LoadFromRecords(issues)
	require.NoError(t, err)
	return v
}

func TestMapValueToKey_FirstAppearanceOrder(t *testing.T) {
	train := issueView(t,
		issue{Area: "area-System.Net", Title: "a"},
		issue{Area: "area-System.Data", Title: "b"},
		issue{Area: "area-System.Net", Title: "c"},
		issue{Area: "", Title: "d"},
	)

	fitted, err := MapValueToKey("Label", "Area").Fit(context.Background(), train)
	require.NoError(t, err)

	out, err := fitted.Transform(train)
	require.NoError(t, err)

	keys, err := out.Keys("Label")
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 1, 0}, keys)

	col, ok := out.Schema().Lookup("Label")
	require.True(t, ok)
	assert.Equal(t, []string{"area-System.Net", "area-System.Data"}, col.KeyValues)

	// Values unseen during fitting map to the missing key.
	unseen, err := fitted.Transform(issueView(t, issue{Area: "area-Meta"}))
	require.NoError(t, err)
	keys, err = unseen.Keys("Label")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0}, keys)
}

func TestMapValueToKey_Bool(t *testing.T) {
	v, err := data.NewView(3).With(data.Column{Name: "Label", Kind: data.KindBool}, []bool{true, false, true})
	require.NoError(t, err)

	fitted, err := MapValueToKey("Key", "Label").Fit(context.Background(), v)
	require.NoError(t, err)

	out, err := fitted.Transform(v)
	require.NoError(t, err)
	keys, err := out.Keys("Key")
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 1}, keys)
}

func TestMapKeyToValue_RoundTrip(t *testing.T) {
	train := issueView(t, issue{Area: "x"}, issue{Area: "y"})

	model, err := Append(
		MapValueToKey("Area", "Area"),
		MapKeyToValue("Area"),
	).Fit(context.Background(), train)
	require.NoError(t, err)

	out, err := model.Transform(train)
	require.NoError(t, err)
	areas, err := out.Texts("Area")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, areas)
}

func TestFeaturizeAndConcatenate(t *testing.T) {
	env := Env{Seed: 1, FeatureBits: 8}
	v := issueView(t,
		issue{Title: "EF crashes", Body: "When connecting to the database, EF is crashing"},
		issue{Title: "", Body: ""},
	)

	model, err := Append(
		FeaturizeText(env, "TitleFeaturized", "Title"),
		FeaturizeText(env, "DescriptionFeaturized", "Description"),
		Concatenate("Features", "TitleFeaturized", "DescriptionFeaturized"),
	).Fit(context.Background(), v)
	require.NoError(t, err)
	assert.Len(t, model.Steps(), 3)

	out, err := model.Transform(v)
	require.NoError(t, err)

	col, ok := out.Schema().Lookup("Features")
	require.True(t, ok)
	assert.Equal(t, data.KindVector, col.Kind)
	assert.Equal(t, 2*2*256, col.Size)

	features, err := out.Vectors("Features")
	require.NoError(t, err)
	require.Len(t, features, 2)
	assert.Equal(t, col.Size, features[0].Length)
	assert.InDelta(t, 2.0, features[0].NormSquared(), 1e-9)
	assert.Zero(t, features[1].NNZ())
}

func TestFeaturizeText_DefaultBits(t *testing.T) {
	est := FeaturizeText(Env{}, "F", "Title")
	s, err := est.OutputSchema(data.NewSchema(data.Column{Name: "Title", Kind: data.KindText}))
	require.NoError(t, err)

	col, ok := s.Lookup("F")
	require.True(t, ok)
	assert.Equal(t, 2<<16, col.Size)
}

func TestChain_MissingColumn(t *testing.T) {
	chain := Append(
		FeaturizeText(Env{FeatureBits: 8}, "TitleFeaturized", "Title"),
		Concatenate("Features", "TitleFeaturized", "DescriptionFeaturized"),
	)

	_, err := chain.OutputSchema(data.NewSchema(data.Column{Name: "Title", Kind: data.KindText}))
	assert.ErrorIs(t, err, common.ErrPipelineConfiguration)
}

func TestChain_FitWrapsConfigurationErrors(t *testing.T) {
	chain := Append(FeaturizeText(Env{FeatureBits: 8}, "F", "Missing"))

	_, err := chain.Fit(context.Background(), issueView(t, issue{Title: "x"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTraining)
	assert.ErrorIs(t, err, common.ErrPipelineConfiguration)
}

func TestChain_FitCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Append(MapValueToKey("Label", "Area")).Fit(ctx, issueView(t, issue{Area: "x"}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChain_AppendDoesNotMutate(t *testing.T) {
	base := Append(MapValueToKey("Label", "Area"))
	longer := base.Append(MapKeyToValue("Label"))

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, longer.Len())
}

func TestMapValueToKey_NoValues(t *testing.T) {
	_, err := Append(MapValueToKey("Label", "Area")).Fit(context.Background(), issueView(t, issue{Title: "x"}))
	assert.ErrorIs(t, err, common.ErrTraining)
}

func TestModel_TransformSchemaMismatch(t *testing.T) {
	model := NewModel(&TextFeaturizer{Output: "F", Input: "Title", Bits: 8})

	v, err := data.NewView(1).With(data.Column{Name: "Title", Kind: data.KindBool}, []bool{true})
	require.NoError(t, err)

	_, err = model.Transform(v)
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)
}
