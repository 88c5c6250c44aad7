package data

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/textclass/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewSchema() Schema {
	return NewSchema(
		Column{Name: "SentimentText", Kind: KindText, Index: 0},
		Column{Name: "Label", Kind: KindBool, Index: 1},
	)
}

func TestReadText(t *testing.T) {
	input := "Loved this place.\t1\r\nCrust is not good.\t0\n\nGreat service\ttrue\n"

	v, err := ReadText(strings.NewReader(input), reviewSchema(), TextOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, v.Rows())

	texts, err := v.Texts("SentimentText")
	require.NoError(t, err)
	assert.Equal(t, []string{"Loved this place.", "Crust is not good.", "Great service"}, texts)

	labels, err := v.Bools("Label")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, labels)
}

func TestReadText_HeaderAndSeparator(t *testing.T) {
	input := "name,score\nalpha,1.5\nbeta,\n"
	schema := NewSchema(
		Column{Name: "Name", Kind: KindText, Index: 0},
		Column{Name: "Score", Kind: KindFloat, Index: 1},
	)

	v, err := ReadText(strings.NewReader(input), schema, TextOptions{HasHeader: true, Separator: ','})
	require.NoError(t, err)
	require.Equal(t, 2, v.Rows())

	scores, err := v.Floats("Score")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, scores[0], 1e-12)
	assert.True(t, math.IsNaN(scores[1]))
}

func TestReadText_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		schema Schema
	}{
		{
			name:   "index beyond row",
			input:  "only one field\n",
			schema: reviewSchema(),
		},
		{
			name:   "bad bool",
			input:  "text\tmaybe\n",
			schema: reviewSchema(),
		},
		{
			name:   "derived column",
			input:  "text\t1\n",
			schema: NewSchema(Column{Name: "Features", Kind: KindVector, Index: 0}),
		},
		{
			name:   "missing index",
			input:  "text\t1\n",
			schema: NewSchema(Column{Name: "Text", Kind: KindText, Index: -1}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadText(strings.NewReader(tt.input), tt.schema, TextOptions{})
			assert.ErrorIs(t, err, common.ErrSchemaMismatch)
		})
	}
}

func TestLoadFromTextFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reviews.txt")
	require.NoError(t, os.WriteFile(path, []byte("Good food\t1\nBad food\t0\n"), 0600))

	v, err := LoadFromTextFile(path, reviewSchema(), TextOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, v.Rows())

	_, err = LoadFromTextFile(filepath.Join(dir, "missing.txt"), reviewSchema(), TextOptions{})
	assert.ErrorIs(t, err, common.ErrIO)
}

func TestReadText_Empty(t *testing.T) {
	v, err := ReadText(strings.NewReader(""), reviewSchema(), TextOptions{HasHeader: true})
	require.NoError(t, err)
	assert.Equal(t, 0, v.Rows())

	texts, err := v.Texts("SentimentText")
	require.NoError(t, err)
	assert.Empty(t, texts)
}
