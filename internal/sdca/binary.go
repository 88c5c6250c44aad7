package sdca

import (
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/Veraticus/textclass/internal/common"
	"github.com/Veraticus/textclass/internal/data"
	"github.com/Veraticus/textclass/internal/pipeline"
)

func init() {
	gob.Register(&BinaryPredictor{})
}

type logisticRegression struct {
	label    string
	features string
	opts     Options
	env      pipeline.Env
}

// NewLogisticRegression returns an estimator training a binary logistic
// regression on a bool label column and a vector feature column. The fitted
// predictor adds Score, Probability and PredictedLabel columns.
func NewLogisticRegression(env pipeline.Env, label, features string, opts Options) pipeline.Estimator {
	return &logisticRegression{label: label, features: features, opts: opts, env: env}
}

func (e *logisticRegression) OutputSchema(in data.Schema) (data.Schema, error) {
	if _, err := pipeline.RequireColumn(in, e.label, data.KindBool); err != nil {
		return data.Schema{}, err
	}
	if _, err := pipeline.RequireColumn(in, e.features, data.KindVector); err != nil {
		return data.Schema{}, err
	}
	return binaryOutput(in), nil
}

func (e *logisticRegression) Fit(ctx context.Context, v *data.View) (pipeline.Transformer, error) {
	opts, err := e.opts.withDefaults()
	if err != nil {
		return nil, err
	}
	labels, err := v.Bools(e.label)
	if err != nil {
		return nil, err
	}
	xs, dim, err := featureRows(v, e.features)
	if err != nil {
		return nil, err
	}
	n := len(xs)
	if n == 0 {
		return nil, fmt.Errorf("%w: no training rows", common.ErrTraining)
	}

	y := make([]float64, n)
	sq := make([]float64, n)
	for i := range xs {
		y[i] = -1
		if labels[i] {
			y[i] = 1
		}
		sq[i] = xs[i].NormSquared() + 1
	}

	var (
		w      = make([]float64, dim)
		bias   float64
		alpha  = make([]float64, n)
		scale  = 1 / (opts.L2 * float64(n))
		rng    = rand.New(rand.NewSource(e.env.Seed))
		epochs int
		gap    float64
	)

	for epoch := 1; epoch <= opts.MaxIterations; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		epochs = epoch

		for _, i := range rng.Perm(n) {
			margin := xs[i].Dot(w) + bias
			step := 1 / (1 + sq[i]*scale/4)
			delta := step * (y[i]*sigmoid(-y[i]*margin) - alpha[i])
			if delta == 0 {
				continue
			}
			alpha[i] += delta
			xs[i].AddScaledTo(w, delta*scale)
			bias += delta * scale
		}

		reg := opts.L2 / 2 * (floats.Dot(w, w) + bias*bias)
		var loss, ent float64
		for i := range xs {
			loss += softplus(-y[i] * (xs[i].Dot(w) + bias))
			b := alpha[i] * y[i]
			ent += entropy(b, 1-b)
		}
		primal := loss/float64(n) + reg
		dual := ent/float64(n) - reg
		gap = relativeGap(primal, dual)

		opts.report(Progress{Epoch: epoch, MaxIterations: opts.MaxIterations, Primal: primal, Dual: dual, Gap: gap})
		slog.Debug("SDCA epoch", "trainer", "logistic", "epoch", epoch, "primal", primal, "dual", dual, "gap", gap)
		if gap < opts.Tolerance {
			break
		}
	}

	slog.Info("Trained binary classifier",
		"rows", n, "features", dim, "epochs", epochs, "gap", gap, "converged", gap < opts.Tolerance)
	return &BinaryPredictor{Features: e.features, Weights: w, Bias: bias}, nil
}

// BinaryPredictor is a fitted logistic regression.
type BinaryPredictor struct {
	Features string
	Weights  []float64
	Bias     float64
}

func binaryOutput(in data.Schema) data.Schema {
	return in.
		With(data.Column{Name: pipeline.ColumnScore, Kind: data.KindFloat, Index: -1}).
		With(data.Column{Name: pipeline.ColumnProbability, Kind: data.KindFloat, Index: -1}).
		With(data.Column{Name: pipeline.ColumnPredictedLabel, Kind: data.KindBool, Index: -1})
}

// OutputSchema implements pipeline.Transformer.
func (p *BinaryPredictor) OutputSchema(in data.Schema) (data.Schema, error) {
	if _, err := pipeline.RequireColumn(in, p.Features, data.KindVector); err != nil {
		return data.Schema{}, err
	}
	return binaryOutput(in), nil
}

// Transform scores every row. PredictedLabel is true when Probability is
// above one half.
func (p *BinaryPredictor) Transform(v *data.View) (*data.View, error) {
	xs, err := v.Vectors(p.Features)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(xs))
	probs := make([]float64, len(xs))
	predicted := make([]bool, len(xs))
	for i, x := range xs {
		if x.Length != len(p.Weights) {
			return nil, fmt.Errorf("%w: feature vector has length %d, model expects %d",
				common.ErrSchemaMismatch, x.Length, len(p.Weights))
		}
		scores[i] = x.Dot(p.Weights) + p.Bias
		probs[i] = sigmoid(scores[i])
		predicted[i] = probs[i] > 0.5
	}

	out, err := v.With(data.Column{Name: pipeline.ColumnScore, Kind: data.KindFloat, Index: -1}, scores)
	if err != nil {
		return nil, err
	}
	out, err = out.With(data.Column{Name: pipeline.ColumnProbability, Kind: data.KindFloat, Index: -1}, probs)
	if err != nil {
		return nil, err
	}
	return out.With(data.Column{Name: pipeline.ColumnPredictedLabel, Kind: data.KindBool, Index: -1}, predicted)
}

// featureRows returns the vectors of a feature column and their common
// length.
func featureRows(v *data.View, name string) ([]data.Vector, int, error) {
	xs, err := v.Vectors(name)
	if err != nil {
		return nil, 0, err
	}
	col, _ := v.Schema().Lookup(name)
	dim := col.Size
	if dim == 0 && len(xs) > 0 {
		dim = xs[0].Length
	}
	for i, x := range xs {
		if x.Length != dim {
			return nil, 0, fmt.Errorf("%w: row %d has %d features, column declares %d",
				common.ErrSchemaMismatch, i, x.Length, dim)
		}
	}
	return xs, dim, nil
}
