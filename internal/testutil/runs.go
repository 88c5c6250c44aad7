package testutil

import (
	"time"

	"github.com/Veraticus/textclass/internal/model"
)

// RunBuilder builds finished runs for tests.
//
//	run := testutil.NewRunBuilder(model.ProgramSentiment).
//		StartedAgo(time.Hour).
//		WithMetric("accuracy", 0.8).
//		Build()
type RunBuilder struct {
	run *model.Run
}

// NewRunBuilder starts a run of program that took one second.
func NewRunBuilder(program model.Program) *RunBuilder {
	run := model.NewRun(program, "models/"+string(program)+".zip")
	run.FinishedAt = run.StartedAt.Add(time.Second)
	return &RunBuilder{run: run}
}

// StartedAgo moves the run into the past, keeping its duration.
func (b *RunBuilder) StartedAgo(d time.Duration) *RunBuilder {
	took := b.run.Duration()
	b.run.StartedAt = time.Now().UTC().Add(-d).Truncate(time.Second)
	b.run.FinishedAt = b.run.StartedAt.Add(took)
	return b
}

// Took sets the run's duration.
func (b *RunBuilder) Took(d time.Duration) *RunBuilder {
	b.run.FinishedAt = b.run.StartedAt.Add(d)
	return b
}

// Unfinished clears the finish time.
func (b *RunBuilder) Unfinished() *RunBuilder {
	b.run.FinishedAt = time.Time{}
	return b
}

// WithRows sets the train and test row counts.
func (b *RunBuilder) WithRows(train, test int) *RunBuilder {
	b.run.TrainRows = train
	b.run.TestRows = test
	return b
}

// WithMetric records one metric value.
func (b *RunBuilder) WithMetric(name string, value float64) *RunBuilder {
	b.run.Metrics[name] = value
	return b
}

// WithModelPath sets where the run saved its model.
func (b *RunBuilder) WithModelPath(path string) *RunBuilder {
	b.run.ModelPath = path
	return b
}

// Build returns the run. The builder must not be reused.
func (b *RunBuilder) Build() *model.Run {
	return b.run
}
