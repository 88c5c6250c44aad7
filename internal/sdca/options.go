// Package sdca trains linear classifiers with stochastic dual coordinate
// ascent: a logistic regression for binary labels and a maximum entropy
// model for multiclass labels.
package sdca

import (
	"fmt"
	"math"

	"github.com/Veraticus/textclass/internal/common"
)

// Default training options.
const (
	DefaultL2            = 1e-4
	DefaultMaxIterations = 30
	DefaultTolerance     = 0.01
)

// Progress is reported once per epoch.
type Progress struct {
	Epoch         int
	MaxIterations int
	Primal        float64
	Dual          float64
	// Gap is the duality gap relative to the primal objective.
	Gap float64
}

// Options configures a trainer. Zero fields take the defaults.
type Options struct {
	// Progress, when set, is called after every epoch.
	Progress func(Progress)
	// L2 is the regularization strength.
	L2 float64
	// MaxIterations bounds the number of passes over the data.
	MaxIterations int
	// Tolerance stops training once the relative duality gap drops below it.
	Tolerance float64
}

func (o Options) withDefaults() (Options, error) {
	if o.L2 == 0 {
		o.L2 = DefaultL2
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Tolerance == 0 {
		o.Tolerance = DefaultTolerance
	}

	switch {
	case o.L2 < 0 || math.IsNaN(o.L2) || math.IsInf(o.L2, 0):
		return o, fmt.Errorf("%w: l2 must be positive, got %v", common.ErrInvalidConfig, o.L2)
	case o.MaxIterations < 0:
		return o, fmt.Errorf("%w: max iterations must be positive, got %d", common.ErrInvalidConfig, o.MaxIterations)
	case o.Tolerance < 0 || math.IsNaN(o.Tolerance):
		return o, fmt.Errorf("%w: tolerance must be positive, got %v", common.ErrInvalidConfig, o.Tolerance)
	}
	return o, nil
}

func (o Options) report(p Progress) {
	if o.Progress != nil {
		o.Progress(p)
	}
}

// relativeGap is the duality gap scaled by the primal objective.
func relativeGap(primal, dual float64) float64 {
	gap := primal - dual
	if primal > 1e-12 {
		gap /= primal
	}
	return math.Max(gap, 0)
}

// entropy returns -Σ p log p over probs, treating 0 log 0 as 0.
func entropy(probs ...float64) float64 {
	var h float64
	for _, p := range probs {
		if p > 0 {
			h -= p * math.Log(p)
		}
	}
	return h
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// softplus returns log(1 + exp(x)) without overflow.
func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}
