// Package pipeline composes data transforms and trainers into estimator
// chains and fits them into immutable models.
package pipeline

import (
	"context"
	"fmt"
	"slices"

	"github.com/Veraticus/textclass/internal/common"
	"github.com/Veraticus/textclass/internal/data"
)

// Conventional column names shared by trainers, evaluators and prediction
// records.
const (
	ColumnLabel          = "Label"
	ColumnFeatures       = "Features"
	ColumnScore          = "Score"
	ColumnProbability    = "Probability"
	ColumnPredictedLabel = "PredictedLabel"
)

// Transformer is a fitted, immutable step mapping one view to another.
// Implementations must be gob-encodable and registered with gob.Register.
type Transformer interface {
	// Transform applies the step to v and returns a new view.
	Transform(v *data.View) (*data.View, error)
	// OutputSchema reports the schema Transform would produce for in.
	OutputSchema(in data.Schema) (data.Schema, error)
}

// Estimator is a step that must see data before it can transform it.
type Estimator interface {
	// Fit learns from v and returns the fitted step.
	Fit(ctx context.Context, v *data.View) (Transformer, error)
	// OutputSchema reports the schema the fitted step would produce for in.
	OutputSchema(in data.Schema) (data.Schema, error)
}

// Env carries the settings shared by every stage of one program run. It is
// passed to stage constructors explicitly.
type Env struct {
	// Seed drives every source of randomness.
	Seed int64
	// FeatureBits is the hash width of text featurizers.
	FeatureBits int
}

// RequireColumn returns the column named name from s, failing with
// ErrPipelineConfiguration when it is missing or not one of kinds.
func RequireColumn(s data.Schema, name string, kinds ...data.Kind) (data.Column, error) {
	col, ok := s.Lookup(name)
	if !ok {
		return data.Column{}, fmt.Errorf("%w: column %q is not defined (have %v)",
			common.ErrPipelineConfiguration, name, s.Names())
	}
	if len(kinds) > 0 && !slices.Contains(kinds, col.Kind) {
		return data.Column{}, fmt.Errorf("%w: column %q is %s, want one of %v",
			common.ErrPipelineConfiguration, name, col.Kind, kinds)
	}
	return col, nil
}

// stateless adapts a Transformer that needs no fitting into an Estimator.
type stateless struct {
	t Transformer
}

func (s stateless) Fit(_ context.Context, v *data.View) (Transformer, error) {
	if _, err := s.t.OutputSchema(v.Schema()); err != nil {
		return nil, err
	}
	return s.t, nil
}

func (s stateless) OutputSchema(in data.Schema) (data.Schema, error) {
	return s.t.OutputSchema(in)
}
