package pipeline

import (
	"encoding/gob"
	"fmt"

	"github.com/Veraticus/textclass/internal/common"
	"github.com/Veraticus/textclass/internal/data"
	"github.com/Veraticus/textclass/internal/text"
)

func init() {
	gob.Register(&TextFeaturizer{})
	gob.Register(&Concatenator{})
}

// FeaturizeText maps a text column to a hashed n-gram vector column.
func FeaturizeText(env Env, output, input string) Estimator {
	bits := env.FeatureBits
	if bits <= 0 {
		bits = text.DefaultBits
	}
	return stateless{t: &TextFeaturizer{Output: output, Input: input, Bits: bits}}
}

// TextFeaturizer is the transformer behind FeaturizeText.
type TextFeaturizer struct {
	Output string
	Input  string
	Bits   int
}

func (t *TextFeaturizer) featurizer() *text.Featurizer {
	return text.NewFeaturizer(t.Bits)
}

// OutputSchema implements Transformer.
func (t *TextFeaturizer) OutputSchema(in data.Schema) (data.Schema, error) {
	if _, err := RequireColumn(in, t.Input, data.KindText); err != nil {
		return data.Schema{}, err
	}
	return in.With(data.Column{
		Name:  t.Output,
		Kind:  data.KindVector,
		Index: -1,
		Size:  t.featurizer().Length(),
	}), nil
}

// Transform implements Transformer.
func (t *TextFeaturizer) Transform(v *data.View) (*data.View, error) {
	texts, err := v.Texts(t.Input)
	if err != nil {
		return nil, err
	}

	f := t.featurizer()
	vectors := make([]data.Vector, len(texts))
	for i, s := range texts {
		vectors[i] = f.Featurize(s)
	}
	return v.With(data.Column{Name: t.Output, Kind: data.KindVector, Index: -1, Size: f.Length()}, vectors)
}

// Concatenate joins vector columns, in the given order, into one vector
// column.
func Concatenate(output string, inputs ...string) Estimator {
	return stateless{t: &Concatenator{Output: output, Inputs: append([]string(nil), inputs...)}}
}

// Concatenator is the transformer behind Concatenate.
type Concatenator struct {
	Output string
	Inputs []string
}

// OutputSchema implements Transformer.
func (t *Concatenator) OutputSchema(in data.Schema) (data.Schema, error) {
	if len(t.Inputs) == 0 {
		return data.Schema{}, fmt.Errorf("%w: concatenate %q has no inputs", common.ErrPipelineConfiguration, t.Output)
	}
	size := 0
	for _, name := range t.Inputs {
		col, err := RequireColumn(in, name, data.KindVector)
		if err != nil {
			return data.Schema{}, err
		}
		size += col.Size
	}
	return in.With(data.Column{Name: t.Output, Kind: data.KindVector, Index: -1, Size: size}), nil
}

// Transform implements Transformer.
func (t *Concatenator) Transform(v *data.View) (*data.View, error) {
	out, err := t.OutputSchema(v.Schema())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrSchemaMismatch, err)
	}
	col, _ := out.Lookup(t.Output)

	columns := make([][]data.Vector, len(t.Inputs))
	for i, name := range t.Inputs {
		vecs, err := v.Vectors(name)
		if err != nil {
			return nil, err
		}
		columns[i] = vecs
	}

	joined := make([]data.Vector, v.Rows())
	parts := make([]data.Vector, len(columns))
	for row := range joined {
		for i, vecs := range columns {
			parts[i] = vecs[row]
		}
		joined[row] = data.Concat(parts...)
	}
	return v.With(col, joined)
}
