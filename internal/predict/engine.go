// Package predict runs a fitted model over typed records.
package predict

import (
	"fmt"
	"iter"

	"github.com/Veraticus/textclass/internal/common"
	"github.com/Veraticus/textclass/internal/data"
	"github.com/Veraticus/textclass/internal/pipeline"
)

// Engine predicts one record at a time. It reuses an internal buffer, so an
// Engine must not be used from more than one goroutine; use Pool for that.
type Engine[In, Out any] struct {
	model   *pipeline.Model
	inType  *data.RecordType[In]
	outType *data.RecordType[Out]
	buf     []In
}

// NewEngine checks that In provides every column the model reads and
// returns an engine mapping model output onto Out.
func NewEngine[In, Out any](model *pipeline.Model) (*Engine[In, Out], error) {
	inType, outType, err := recordTypes[In, Out](model)
	if err != nil {
		return nil, err
	}
	return newEngine(model, inType, outType), nil
}

func newEngine[In, Out any](model *pipeline.Model, inType *data.RecordType[In], outType *data.RecordType[Out]) *Engine[In, Out] {
	return &Engine[In, Out]{
		model:   model,
		inType:  inType,
		outType: outType,
		buf:     make([]In, 1),
	}
}

func recordTypes[In, Out any](model *pipeline.Model) (*data.RecordType[In], *data.RecordType[Out], error) {
	inType, err := data.NewRecordType[In]()
	if err != nil {
		return nil, nil, err
	}
	outType, err := data.NewRecordType[Out]()
	if err != nil {
		return nil, nil, err
	}
	if _, err := model.OutputSchema(inType.Schema()); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", common.ErrSchemaMismatch, err)
	}
	return inType, outType, nil
}

// Predict runs the model on a single record.
func (e *Engine[In, Out]) Predict(in In) (Out, error) {
	var zero Out
	e.buf[0] = in
	defer func() { e.buf[0] = *new(In) }()

	outs, err := transform(e.model, e.inType, e.outType, e.buf)
	if err != nil {
		return zero, err
	}
	return outs[0], nil
}

// PredictBatch returns the predictions for records, in order.
func (e *Engine[In, Out]) PredictBatch(records []In) iter.Seq2[Out, error] {
	return batch(e.model, e.inType, e.outType, records)
}

// Batch runs the model over records as one view and yields the predictions
// lazily, in input order. An empty batch yields nothing.
func Batch[In, Out any](model *pipeline.Model, records []In) iter.Seq2[Out, error] {
	return func(yield func(Out, error) bool) {
		if len(records) == 0 {
			return
		}
		inType, outType, err := recordTypes[In, Out](model)
		if err != nil {
			var zero Out
			yield(zero, err)
			return
		}
		batch(model, inType, outType, records)(yield)
	}
}

func batch[In, Out any](model *pipeline.Model, inType *data.RecordType[In], outType *data.RecordType[Out], records []In) iter.Seq2[Out, error] {
	return func(yield func(Out, error) bool) {
		if len(records) == 0 {
			return
		}
		outs, err := transform(model, inType, outType, records)
		if err != nil {
			var zero Out
			yield(zero, err)
			return
		}
		for _, out := range outs {
			if !yield(out, nil) {
				return
			}
		}
	}
}

func transform[In, Out any](model *pipeline.Model, inType *data.RecordType[In], outType *data.RecordType[Out], records []In) ([]Out, error) {
	v, err := inType.View(records)
	if err != nil {
		return nil, err
	}
	scored, err := model.Transform(v)
	if err != nil {
		return nil, fmt.Errorf("prediction failed: %w", err)
	}
	return outType.Records(scored)
}
