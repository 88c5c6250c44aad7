package pipeline

import (
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Veraticus/textclass/internal/common"
	"github.com/Veraticus/textclass/internal/data"
)

func init() {
	gob.Register(&ValueToKeyTransformer{})
	gob.Register(&KeyToValueTransformer{})
}

type valueToKeyEstimator struct {
	output string
	input  string
}

// MapValueToKey maps a text or bool column to a key column. Keys are
// assigned in order of first appearance in the training data; empty values
// and values never seen during Fit map to the missing key 0.
func MapValueToKey(output, input string) Estimator {
	return &valueToKeyEstimator{output: output, input: input}
}

func (e *valueToKeyEstimator) OutputSchema(in data.Schema) (data.Schema, error) {
	if _, err := RequireColumn(in, e.input, data.KindText, data.KindBool); err != nil {
		return data.Schema{}, err
	}
	return in.With(data.Column{Name: e.output, Kind: data.KindKey, Index: -1}), nil
}

func (e *valueToKeyEstimator) Fit(_ context.Context, v *data.View) (Transformer, error) {
	values, err := stringValues(v, e.input)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var keys []string
	for _, val := range values {
		if val == "" || seen[val] {
			continue
		}
		seen[val] = true
		keys = append(keys, val)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: column %q has no values to map", common.ErrTraining, e.input)
	}

	slog.Debug("Mapped values to keys", "input", e.input, "output", e.output, "keys", len(keys))
	return &ValueToKeyTransformer{Output: e.output, Input: e.input, Values: keys}, nil
}

// ValueToKeyTransformer is the fitted form of MapValueToKey.
type ValueToKeyTransformer struct {
	Output string
	Input  string
	// Values[k-1] is the value of key k.
	Values []string
}

// OutputSchema implements Transformer.
func (t *ValueToKeyTransformer) OutputSchema(in data.Schema) (data.Schema, error) {
	if _, err := RequireColumn(in, t.Input, data.KindText, data.KindBool); err != nil {
		return data.Schema{}, err
	}
	return in.With(t.column()), nil
}

func (t *ValueToKeyTransformer) column() data.Column {
	return data.Column{Name: t.Output, Kind: data.KindKey, Index: -1, KeyValues: t.Values}
}

// Transform implements Transformer.
func (t *ValueToKeyTransformer) Transform(v *data.View) (*data.View, error) {
	values, err := stringValues(v, t.Input)
	if err != nil {
		return nil, err
	}

	lookup := make(map[string]uint32, len(t.Values))
	for i, val := range t.Values {
		lookup[val] = uint32(i + 1)
	}

	keys := make([]uint32, len(values))
	for i, val := range values {
		keys[i] = lookup[val]
	}
	return v.With(t.column(), keys)
}

// stringValues reads a text column, or a bool column rendered as
// "false"/"true".
func stringValues(v *data.View, name string) ([]string, error) {
	col, ok := v.Schema().Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: column %q not found", common.ErrSchemaMismatch, name)
	}
	if col.Kind == data.KindBool {
		bools, err := v.Bools(name)
		if err != nil {
			return nil, err
		}
		out := make([]string, len(bools))
		for i, b := range bools {
			out[i] = strconv.FormatBool(b)
		}
		return out, nil
	}
	return v.Texts(name)
}

// MapKeyToValue replaces the key column with the text values its keys map
// to. Missing keys become empty strings.
func MapKeyToValue(column string) Estimator {
	return stateless{t: &KeyToValueTransformer{Output: column, Input: column}}
}

// KeyToValueTransformer is the inverse of ValueToKeyTransformer.
type KeyToValueTransformer struct {
	Output string
	Input  string
}

// OutputSchema implements Transformer.
func (t *KeyToValueTransformer) OutputSchema(in data.Schema) (data.Schema, error) {
	if _, err := RequireColumn(in, t.Input, data.KindKey); err != nil {
		return data.Schema{}, err
	}
	return in.With(data.Column{Name: t.Output, Kind: data.KindText, Index: -1}), nil
}

// Transform implements Transformer.
func (t *KeyToValueTransformer) Transform(v *data.View) (*data.View, error) {
	keys, err := v.Keys(t.Input)
	if err != nil {
		return nil, err
	}
	col, _ := v.Schema().Lookup(t.Input)

	texts := make([]string, len(keys))
	for i, k := range keys {
		texts[i] = data.KeyValue(col, k)
	}
	return v.With(data.Column{Name: t.Output, Kind: data.KindText, Index: -1}, texts)
}
