package evaluate

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/Veraticus/textclass/internal/data"
	"github.com/Veraticus/textclass/internal/pipeline"
)

// Threshold is the probability above which a row is predicted positive.
const Threshold = 0.5

// BinaryOptions names the columns to evaluate.
type BinaryOptions struct {
	// Label is a bool column.
	Label string
	// Score ranks rows for the ROC curve.
	Score string
	// Probability is the calibrated probability of the positive class.
	Probability string
}

func (o BinaryOptions) withDefaults() BinaryOptions {
	if o.Label == "" {
		o.Label = pipeline.ColumnLabel
	}
	if o.Score == "" {
		o.Score = pipeline.ColumnScore
	}
	if o.Probability == "" {
		o.Probability = pipeline.ColumnProbability
	}
	return o
}

// BinaryMetrics summarizes a binary classifier on one data set.
type BinaryMetrics struct {
	// ConfusionMatrix counts rows by [actual][predicted], positive first.
	ConfusionMatrix   [2][2]int `yaml:"confusion_matrix"`
	Accuracy          float64   `yaml:"accuracy"`
	AreaUnderRocCurve float64   `yaml:"area_under_roc_curve"`
	F1Score           float64   `yaml:"f1_score"`
	PositivePrecision float64   `yaml:"positive_precision"`
	PositiveRecall    float64   `yaml:"positive_recall"`
	NegativePrecision float64   `yaml:"negative_precision"`
	NegativeRecall    float64   `yaml:"negative_recall"`
	// LogLoss and Entropy are in bits.
	LogLoss          float64 `yaml:"log_loss"`
	LogLossReduction float64 `yaml:"log_loss_reduction"`
	Entropy          float64 `yaml:"entropy"`
	Rows             int     `yaml:"rows"`
}

type binaryColumns struct {
	labels []bool
	scores []float64
	probs  []float64
}

func readBinary(v *data.View, opts BinaryOptions) (binaryColumns, error) {
	var (
		cols binaryColumns
		err  error
	)
	if _, err = pipeline.RequireColumn(v.Schema(), opts.Label, data.KindBool); err != nil {
		return cols, err
	}
	if cols.labels, err = v.Bools(opts.Label); err != nil {
		return cols, err
	}
	if cols.scores, err = v.Floats(opts.Score); err != nil {
		return cols, err
	}
	if cols.probs, err = v.Floats(opts.Probability); err != nil {
		return cols, err
	}
	return cols, nil
}

// Binary evaluates the scored view v.
func Binary(v *data.View, opts BinaryOptions) (*BinaryMetrics, error) {
	opts = opts.withDefaults()
	cols, err := readBinary(v, opts)
	if err != nil {
		return nil, err
	}

	m := &BinaryMetrics{Rows: len(cols.labels)}
	if m.Rows == 0 {
		return m, nil
	}

	var tp, fp, tn, fn int
	var logLoss float64
	for i, positive := range cols.labels {
		p := cols.probs[i]
		predicted := p > Threshold
		switch {
		case positive && predicted:
			tp++
		case positive:
			fn++
		case predicted:
			fp++
		default:
			tn++
		}

		truth := p
		if !positive {
			truth = 1 - p
		}
		logLoss -= math.Log2(math.Max(truth, minProbability))
	}

	n := float64(m.Rows)
	m.ConfusionMatrix = [2][2]int{{tp, fn}, {fp, tn}}
	m.Accuracy = float64(tp+tn) / n
	m.PositivePrecision = ratio(tp, tp+fp)
	m.PositiveRecall = ratio(tp, tp+fn)
	m.NegativePrecision = ratio(tn, tn+fn)
	m.NegativeRecall = ratio(tn, tn+fp)
	if m.PositivePrecision+m.PositiveRecall > 0 {
		m.F1Score = 2 * m.PositivePrecision * m.PositiveRecall / (m.PositivePrecision + m.PositiveRecall)
	}
	m.LogLoss = logLoss / n

	var classCounts stats.Float64Data
	for _, c := range []int{tp + fn, tn + fp} {
		if c > 0 {
			classCounts = append(classCounts, float64(c))
		}
	}
	nats, err := stats.Entropy(classCounts)
	if err != nil {
		return nil, fmt.Errorf("prior entropy: %w", err)
	}
	m.Entropy = nats / math.Ln2
	m.LogLossReduction = reduction(m.LogLoss, m.Entropy)

	curve := rocCurve(cols)
	m.AreaUnderRocCurve = curve.area()
	return m, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// ROCCurve holds the points of a receiver operating characteristic curve,
// ordered by increasing false positive rate.
type ROCCurve struct {
	TPR        []float64
	FPR        []float64
	Thresholds []float64
	// Degenerate is set when only one class is present.
	Degenerate bool
}

// ROC computes the ROC curve of the scored view v.
func ROC(v *data.View, opts BinaryOptions) (*ROCCurve, error) {
	opts = opts.withDefaults()
	cols, err := readBinary(v, opts)
	if err != nil {
		return nil, err
	}
	return rocCurve(cols), nil
}

func rocCurve(cols binaryColumns) *ROCCurve {
	var pos, neg int
	for _, l := range cols.labels {
		if l {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return &ROCCurve{Degenerate: true}
	}

	y := append([]float64(nil), cols.scores...)
	classes := append([]bool(nil), cols.labels...)
	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, thresh := stat.ROC(nil, y, classes, nil)
	return &ROCCurve{TPR: tpr, FPR: fpr, Thresholds: thresh}
}

// area integrates the curve; degenerate curves have area 0.
func (c *ROCCurve) area() float64 {
	if c.Degenerate || len(c.FPR) < 2 {
		return 0
	}
	return integrate.Trapezoidal(c.FPR, c.TPR)
}

// Summary returns the scalar metrics keyed by their YAML names.
func (m *BinaryMetrics) Summary() map[string]float64 {
	return map[string]float64{
		"accuracy":             m.Accuracy,
		"area_under_roc_curve": m.AreaUnderRocCurve,
		"f1_score":             m.F1Score,
		"log_loss":             m.LogLoss,
		"log_loss_reduction":   m.LogLossReduction,
		"entropy":              m.Entropy,
	}
}
