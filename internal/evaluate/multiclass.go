// Package evaluate computes quality metrics for scored views produced by a
// fitted pipeline.
package evaluate

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"

	"github.com/Veraticus/textclass/internal/common"
	"github.com/Veraticus/textclass/internal/data"
	"github.com/Veraticus/textclass/internal/pipeline"
)

// DefaultTopK is the rank cutoff used for TopKAccuracy.
const DefaultTopK = 3

// minProbability clamps probabilities before taking logarithms.
const minProbability = 1e-15

// MulticlassOptions names the columns to evaluate.
type MulticlassOptions struct {
	// Label is a key column. Rows with a missing key are skipped.
	Label string
	// Score is a floats column of class probabilities in key order.
	Score string
	TopK  int
}

func (o MulticlassOptions) withDefaults() MulticlassOptions {
	if o.Label == "" {
		o.Label = pipeline.ColumnLabel
	}
	if o.Score == "" {
		o.Score = pipeline.ColumnScore
	}
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	return o
}

// MulticlassMetrics summarizes a multiclass classifier on one data set.
type MulticlassMetrics struct {
	Classes []string `yaml:"classes"`
	// PerClassLogLoss is the mean log-loss of the rows of each class, zero for
	// classes absent from the data.
	PerClassLogLoss []float64 `yaml:"per_class_log_loss"`
	// ConfusionMatrix counts rows by [actual][predicted] class.
	ConfusionMatrix [][]int `yaml:"confusion_matrix"`
	MicroAccuracy   float64 `yaml:"micro_accuracy"`
	// MacroAccuracy averages per-class accuracy over the classes present.
	MacroAccuracy    float64 `yaml:"macro_accuracy"`
	LogLoss          float64 `yaml:"log_loss"`
	LogLossReduction float64 `yaml:"log_loss_reduction"`
	TopKAccuracy     float64 `yaml:"top_k_accuracy"`
	TopK             int     `yaml:"top_k"`
	Rows             int     `yaml:"rows"`
}

// Multiclass evaluates the scored view v. The predicted class of a row is
// its highest scoring class, ties going to the lowest key.
func Multiclass(v *data.View, opts MulticlassOptions) (*MulticlassMetrics, error) {
	opts = opts.withDefaults()

	labelCol, err := pipeline.RequireColumn(v.Schema(), opts.Label, data.KindKey)
	if err != nil {
		return nil, err
	}
	labels, err := v.Keys(opts.Label)
	if err != nil {
		return nil, err
	}
	scores, err := v.Dense(opts.Score)
	if err != nil {
		return nil, err
	}

	k := len(labelCol.KeyValues)
	if k == 0 {
		return nil, fmt.Errorf("%w: label column %q has no classes", common.ErrSchemaMismatch, opts.Label)
	}

	m := &MulticlassMetrics{
		Classes:         append([]string(nil), labelCol.KeyValues...),
		PerClassLogLoss: make([]float64, k),
		ConfusionMatrix: make([][]int, k),
		TopK:            min(opts.TopK, k),
	}
	for c := range m.ConfusionMatrix {
		m.ConfusionMatrix[c] = make([]int, k)
	}

	counts := make([]float64, k)
	var correct, topK int
	var logLoss float64
	for i, key := range labels {
		if key == 0 || int(key) > k {
			continue
		}
		row := scores[i]
		if len(row) != k {
			return nil, fmt.Errorf("%w: row %d has %d scores for %d classes",
				common.ErrSchemaMismatch, i, len(row), k)
		}

		actual := int(key) - 1
		predicted := floats.MaxIdx(row)
		m.ConfusionMatrix[actual][predicted]++
		counts[actual]++
		if predicted == actual {
			correct++
		}

		rank := 0
		for _, s := range row {
			if s > row[actual] {
				rank++
			}
		}
		if rank < m.TopK {
			topK++
		}

		loss := -math.Log(math.Max(row[actual], minProbability))
		logLoss += loss
		m.PerClassLogLoss[actual] += loss
		m.Rows++
	}

	if m.Rows == 0 {
		return m, nil
	}

	n := float64(m.Rows)
	m.MicroAccuracy = float64(correct) / n
	m.TopKAccuracy = float64(topK) / n
	m.LogLoss = logLoss / n

	var recalls stats.Float64Data
	var present stats.Float64Data
	for c, count := range counts {
		if count == 0 {
			continue
		}
		m.PerClassLogLoss[c] /= count
		recalls = append(recalls, float64(m.ConfusionMatrix[c][c])/count)
		present = append(present, count)
	}

	m.MacroAccuracy, err = stats.Mean(recalls)
	if err != nil {
		return nil, fmt.Errorf("macro accuracy: %w", err)
	}

	prior, err := stats.Entropy(present)
	if err != nil {
		return nil, fmt.Errorf("prior entropy: %w", err)
	}
	m.LogLossReduction = reduction(m.LogLoss, prior)
	return m, nil
}

// reduction is the relative improvement of logLoss over the prior log-loss.
func reduction(logLoss, prior float64) float64 {
	if prior <= 0 {
		return 0
	}
	return (prior - logLoss) / prior
}

// Summary returns the scalar metrics keyed by their YAML names.
func (m *MulticlassMetrics) Summary() map[string]float64 {
	return map[string]float64{
		"micro_accuracy":     m.MicroAccuracy,
		"macro_accuracy":     m.MacroAccuracy,
		"log_loss":           m.LogLoss,
		"log_loss_reduction": m.LogLossReduction,
		"top_k_accuracy":     m.TopKAccuracy,
	}
}
