package sdca

import (
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/Veraticus/textclass/internal/common"
	"github.com/Veraticus/textclass/internal/data"
	"github.com/Veraticus/textclass/internal/pipeline"
)

func init() {
	gob.Register(&MulticlassPredictor{})
}

type maximumEntropy struct {
	label    string
	features string
	opts     Options
	env      pipeline.Env
}

// NewMaximumEntropy returns an estimator training a multinomial logistic
// regression on a key label column and a vector feature column. Rows with a
// missing label are ignored. The fitted predictor adds a Score column of
// class probabilities and a PredictedLabel key column.
func NewMaximumEntropy(env pipeline.Env, label, features string, opts Options) pipeline.Estimator {
	return &maximumEntropy{label: label, features: features, opts: opts, env: env}
}

func (e *maximumEntropy) OutputSchema(in data.Schema) (data.Schema, error) {
	label, err := pipeline.RequireColumn(in, e.label, data.KindKey)
	if err != nil {
		return data.Schema{}, err
	}
	if _, err := pipeline.RequireColumn(in, e.features, data.KindVector); err != nil {
		return data.Schema{}, err
	}
	return multiclassOutput(in, label.KeyValues), nil
}

func (e *maximumEntropy) Fit(ctx context.Context, v *data.View) (pipeline.Transformer, error) {
	opts, err := e.opts.withDefaults()
	if err != nil {
		return nil, err
	}
	keys, err := v.Keys(e.label)
	if err != nil {
		return nil, err
	}
	labelCol, _ := v.Schema().Lookup(e.label)
	classes := labelCol.KeyValues
	k := len(classes)
	if k == 0 {
		return nil, fmt.Errorf("%w: label column %q has no classes", common.ErrTraining, e.label)
	}

	all, dim, err := featureRows(v, e.features)
	if err != nil {
		return nil, err
	}

	var (
		xs []data.Vector
		y  []int
	)
	for i, key := range keys {
		if key == 0 || int(key) > k {
			continue
		}
		xs = append(xs, all[i])
		y = append(y, int(key)-1)
	}
	n := len(xs)
	if n == 0 {
		return nil, fmt.Errorf("%w: no labeled training rows", common.ErrTraining)
	}

	sq := make([]float64, n)
	alpha := make([][]float64, n)
	for i := range xs {
		sq[i] = xs[i].NormSquared() + 1
		alpha[i] = make([]float64, k)
	}

	var (
		w      = make([][]float64, k)
		bias   = make([]float64, k)
		margin = make([]float64, k)
		target = make([]float64, k)
		scale  = 1 / (opts.L2 * float64(n))
		rng    = rand.New(rand.NewSource(e.env.Seed))
		epochs int
		gap    float64
	)
	for c := range w {
		w[c] = make([]float64, dim)
	}

	for epoch := 1; epoch <= opts.MaxIterations; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		epochs = epoch

		for _, i := range rng.Perm(n) {
			scores(margin, xs[i], w, bias)
			softmax(margin)
			step := 1 / (1 + sq[i]*scale/2)
			for c := range target {
				target[c] = -margin[c]
			}
			target[y[i]]++

			for c := range target {
				delta := step * (target[c] - alpha[i][c])
				if delta == 0 {
					continue
				}
				alpha[i][c] += delta
				xs[i].AddScaledTo(w[c], delta*scale)
				bias[c] += delta * scale
			}
		}

		var reg float64
		for c := range w {
			reg += floats.Dot(w[c], w[c]) + bias[c]*bias[c]
		}
		reg *= opts.L2 / 2

		var loss, ent float64
		dist := make([]float64, k)
		for i := range xs {
			scores(margin, xs[i], w, bias)
			loss += floats.LogSumExp(margin) - margin[y[i]]
			for c := range dist {
				dist[c] = -alpha[i][c]
			}
			dist[y[i]]++
			ent += entropy(dist...)
		}
		primal := loss/float64(n) + reg
		dual := ent/float64(n) - reg
		gap = relativeGap(primal, dual)

		opts.report(Progress{Epoch: epoch, MaxIterations: opts.MaxIterations, Primal: primal, Dual: dual, Gap: gap})
		slog.Debug("SDCA epoch", "trainer", "maximum_entropy", "epoch", epoch, "primal", primal, "dual", dual, "gap", gap)
		if gap < opts.Tolerance {
			break
		}
	}

	slog.Info("Trained multiclass classifier",
		"rows", n, "classes", k, "features", dim, "epochs", epochs, "gap", gap, "converged", gap < opts.Tolerance)
	return &MulticlassPredictor{
		Features: e.features,
		Classes:  append([]string(nil), classes...),
		Weights:  w,
		Bias:     bias,
	}, nil
}

// scores writes x·w[c] + bias[c] for every class into dst.
func scores(dst []float64, x data.Vector, w [][]float64, bias []float64) {
	for c := range dst {
		dst[c] = x.Dot(w[c]) + bias[c]
	}
}

// softmax replaces margins with class probabilities in place.
func softmax(margins []float64) {
	lse := floats.LogSumExp(margins)
	for c, m := range margins {
		margins[c] = math.Exp(m - lse)
	}
}

// MulticlassPredictor is a fitted maximum entropy model.
type MulticlassPredictor struct {
	Features string
	// Classes[c] is the label value of key c+1.
	Classes []string
	Weights [][]float64
	Bias    []float64
}

func multiclassOutput(in data.Schema, classes []string) data.Schema {
	return in.
		With(data.Column{Name: pipeline.ColumnScore, Kind: data.KindFloats, Index: -1, Size: len(classes)}).
		With(data.Column{Name: pipeline.ColumnPredictedLabel, Kind: data.KindKey, Index: -1, KeyValues: classes})
}

// OutputSchema implements pipeline.Transformer.
func (p *MulticlassPredictor) OutputSchema(in data.Schema) (data.Schema, error) {
	if _, err := pipeline.RequireColumn(in, p.Features, data.KindVector); err != nil {
		return data.Schema{}, err
	}
	return multiclassOutput(in, p.Classes), nil
}

// Transform scores every row. Score holds one probability per class, in
// key order, and PredictedLabel is the most probable class; ties go to the
// lowest key.
func (p *MulticlassPredictor) Transform(v *data.View) (*data.View, error) {
	xs, err := v.Vectors(p.Features)
	if err != nil {
		return nil, err
	}

	dim := 0
	if len(p.Weights) > 0 {
		dim = len(p.Weights[0])
	}

	probs := make([][]float64, len(xs))
	predicted := make([]uint32, len(xs))
	for i, x := range xs {
		if x.Length != dim {
			return nil, fmt.Errorf("%w: feature vector has length %d, model expects %d",
				common.ErrSchemaMismatch, x.Length, dim)
		}
		row := make([]float64, len(p.Classes))
		scores(row, x, p.Weights, p.Bias)
		softmax(row)
		probs[i] = row
		predicted[i] = uint32(floats.MaxIdx(row) + 1)
	}

	out, err := v.With(data.Column{Name: pipeline.ColumnScore, Kind: data.KindFloats, Index: -1, Size: len(p.Classes)}, probs)
	if err != nil {
		return nil, err
	}
	return out.With(data.Column{
		Name:      pipeline.ColumnPredictedLabel,
		Kind:      data.KindKey,
		Index:     -1,
		KeyValues: p.Classes,
	}, predicted)
}
