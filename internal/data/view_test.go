package data

import (
	"testing"

	"github.com/Veraticus/textclass/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView_WithAndAccessors(t *testing.T) {
	v := NewView(2)

	v1, err := v.With(Column{Name: "Title", Kind: KindText, Index: 0}, []string{"a", "b"})
	require.NoError(t, err)
	v2, err := v1.With(Column{Name: "Label", Kind: KindBool, Index: 1}, []bool{true, false})
	require.NoError(t, err)

	// Adding a column leaves the original view untouched.
	assert.Len(t, v1.Schema().Columns, 1)
	assert.Len(t, v2.Schema().Columns, 2)

	titles, err := v2.Texts("Title")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, titles)

	_, err = v2.Bools("Title")
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)

	_, err = v2.Texts("Missing")
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)
}

func TestView_WithRejectsBadColumns(t *testing.T) {
	v := NewView(2)

	_, err := v.With(Column{Name: "X", Kind: KindText}, []string{"only one"})
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)

	_, err = v.With(Column{Name: "X", Kind: KindBool}, []string{"a", "b"})
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)

	_, err = v.With(Column{Name: "X", Kind: KindText}, []int{1, 2})
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)
}

func TestView_ReplaceColumn(t *testing.T) {
	v, err := NewView(1).With(Column{Name: "PredictedLabel", Kind: KindKey, KeyValues: []string{"x"}}, []uint32{1})
	require.NoError(t, err)

	v, err = v.With(Column{Name: "PredictedLabel", Kind: KindText}, []string{"x"})
	require.NoError(t, err)

	col, ok := v.Schema().Lookup("PredictedLabel")
	require.True(t, ok)
	assert.Equal(t, KindText, col.Kind)
	assert.Len(t, v.Schema().Columns, 1)
}

func TestView_Select(t *testing.T) {
	v, err := NewView(3).With(Column{Name: "N", Kind: KindFloat}, []float64{10, 20, 30})
	require.NoError(t, err)
	v, err = v.With(Column{Name: "V", Kind: KindVector, Size: 4}, []Vector{
		{Indices: []int{0}, Values: []float64{1}, Length: 4},
		{Indices: []int{1}, Values: []float64{2}, Length: 4},
		{Indices: []int{2}, Values: []float64{3}, Length: 4},
	})
	require.NoError(t, err)

	sub := v.Select([]int{2, 0})
	assert.Equal(t, 2, sub.Rows())

	nums, err := sub.Floats("N")
	require.NoError(t, err)
	assert.Equal(t, []float64{30, 10}, nums)

	vecs, err := sub.Vectors("V")
	require.NoError(t, err)
	assert.Equal(t, []int{2}, vecs[0].Indices)
}

func TestVector(t *testing.T) {
	a := Vector{Indices: []int{0, 2}, Values: []float64{1, 2}, Length: 3}
	b := Vector{Indices: []int{1}, Values: []float64{3}, Length: 2}

	assert.InDelta(t, 5.0, a.NormSquared(), 1e-12)
	assert.InDelta(t, 1*4+2*6.0, a.Dot([]float64{4, 5, 6}), 1e-12)
	assert.Equal(t, []float64{1, 0, 2}, a.Dense())

	c := Concat(a, b)
	assert.Equal(t, 5, c.Length)
	assert.Equal(t, []int{0, 2, 4}, c.Indices)
	assert.Equal(t, []float64{1, 2, 3}, c.Values)

	w := make([]float64, 5)
	c.AddScaledTo(w, 2)
	assert.Equal(t, []float64{2, 0, 4, 0, 6}, w)
}
