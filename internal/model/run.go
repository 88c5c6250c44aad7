package model

import (
	"time"

	"github.com/google/uuid"
)

// Program identifies which classifier a run trained.
type Program string

// Program constants.
const (
	ProgramIssues    Program = "issues"
	ProgramSentiment Program = "sentiment"
)

// Run records one training and evaluation run.
type Run struct {
	StartedAt  time.Time
	FinishedAt time.Time
	// Metrics maps metric names to values.
	Metrics   map[string]float64
	ID        string
	Program   Program
	ModelPath string
	TrainRows int
	TestRows  int
}

// NewRun starts a run of program at the current time.
func NewRun(program Program, modelPath string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Program:   program,
		ModelPath: modelPath,
		StartedAt: time.Now().UTC(),
		Metrics:   make(map[string]float64),
	}
}

// Finish stamps the run's completion time.
func (r *Run) Finish() {
	r.FinishedAt = time.Now().UTC()
}

// Duration returns how long the run took, or zero while it is unfinished.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
