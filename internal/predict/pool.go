package predict

import (
	"sync"

	"github.com/Veraticus/textclass/internal/pipeline"
)

// Pool hands out engines to concurrent callers. Each call borrows an
// engine for its duration, so Pool is safe for concurrent use.
type Pool[In, Out any] struct {
	pool sync.Pool
}

// NewPool validates the record types against the model once.
func NewPool[In, Out any](model *pipeline.Model) (*Pool[In, Out], error) {
	inType, outType, err := recordTypes[In, Out](model)
	if err != nil {
		return nil, err
	}
	p := &Pool[In, Out]{}
	p.pool.New = func() any {
		return newEngine(model, inType, outType)
	}
	return p, nil
}

// Predict runs the model on a single record.
func (p *Pool[In, Out]) Predict(in In) (Out, error) {
	e := p.pool.Get().(*Engine[In, Out])
	defer p.pool.Put(e)
	return e.Predict(in)
}
