package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/textclass/internal/common"
	"github.com/Veraticus/textclass/internal/data"
)

// EstimatorChain is an ordered list of estimators. Each step sees the
// columns produced by the steps before it.
type EstimatorChain struct {
	steps []Estimator
}

// Append starts a chain with the given steps.
func Append(steps ...Estimator) *EstimatorChain {
	return &EstimatorChain{steps: append([]Estimator(nil), steps...)}
}

// Append returns a new chain with steps added after c's steps.
func (c *EstimatorChain) Append(steps ...Estimator) *EstimatorChain {
	all := make([]Estimator, 0, len(c.steps)+len(steps))
	all = append(all, c.steps...)
	all = append(all, steps...)
	return &EstimatorChain{steps: all}
}

// Len returns the number of steps.
func (c *EstimatorChain) Len() int {
	return len(c.steps)
}

// OutputSchema threads in through every step's declared output.
func (c *EstimatorChain) OutputSchema(in data.Schema) (data.Schema, error) {
	schema := in
	for i, step := range c.steps {
		out, err := step.OutputSchema(schema)
		if err != nil {
			return data.Schema{}, fmt.Errorf("step %d (%T): %w", i, step, err)
		}
		schema = out
	}
	return schema, nil
}

// Fit validates the chain against v's schema, then fits the steps in order.
// Errors match common.ErrTraining and keep their cause.
func (c *EstimatorChain) Fit(ctx context.Context, v *data.View) (*Model, error) {
	if _, err := c.OutputSchema(v.Schema()); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrTraining, err)
	}

	steps := make([]Transformer, 0, len(c.steps))
	cur := v
	for i, step := range c.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		slog.Debug("Fitting pipeline step", "step", i, "type", fmt.Sprintf("%T", step), "rows", cur.Rows())
		t, err := step.Fit(ctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%w: step %d (%T): %w", common.ErrTraining, i, step, err)
		}
		steps = append(steps, t)

		if i == len(c.steps)-1 {
			break
		}
		cur, err = t.Transform(cur)
		if err != nil {
			return nil, fmt.Errorf("%w: step %d (%T): %w", common.ErrTraining, i, t, err)
		}
	}

	return NewModel(steps...), nil
}

// Model is a fitted, immutable chain of transformers.
type Model struct {
	steps []Transformer
}

// NewModel wraps fitted steps into a model.
func NewModel(steps ...Transformer) *Model {
	return &Model{steps: append([]Transformer(nil), steps...)}
}

// Steps returns a copy of the model's transformers.
func (m *Model) Steps() []Transformer {
	return append([]Transformer(nil), m.steps...)
}

// Transform runs v through every step.
func (m *Model) Transform(v *data.View) (*data.View, error) {
	cur := v
	for i, step := range m.steps {
		next, err := step.Transform(cur)
		if err != nil {
			return nil, fmt.Errorf("step %d (%T): %w", i, step, err)
		}
		cur = next
	}
	return cur, nil
}

// OutputSchema reports the schema Transform would produce for in.
func (m *Model) OutputSchema(in data.Schema) (data.Schema, error) {
	schema := in
	for i, step := range m.steps {
		out, err := step.OutputSchema(schema)
		if err != nil {
			return data.Schema{}, fmt.Errorf("step %d (%T): %w", i, step, err)
		}
		schema = out
	}
	return schema, nil
}
