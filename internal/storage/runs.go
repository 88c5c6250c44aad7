package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/textclass/internal/common"
	"github.com/Veraticus/textclass/internal/model"
)

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 20

// SaveRun inserts a run or replaces the stored run with the same ID.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *model.Run) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}

	metrics, err := json.Marshal(run.Metrics)
	if err != nil {
		return fmt.Errorf("failed to encode metrics: %w", err)
	}

	var finished sql.NullTime
	if !run.FinishedAt.IsZero() {
		finished = sql.NullTime{Time: run.FinishedAt, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, program, model_path, metrics, rows_train, rows_test, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			program = excluded.program,
			model_path = excluded.model_path,
			metrics = excluded.metrics,
			rows_train = excluded.rows_train,
			rows_test = excluded.rows_test,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at
	`, run.ID, string(run.Program), run.ModelPath, string(metrics), run.TrainRows, run.TestRows, run.StartedAt, finished)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun returns the run with the given ID, or common.ErrNotFound.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, program, model_path, metrics, rows_train, rows_test, started_at, finished_at
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first. An empty program lists runs
// of every program; a limit of zero or less uses DefaultListLimit.
func (s *SQLiteStorage) ListRuns(ctx context.Context, program model.Program, limit int) ([]model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, program, model_path, metrics, rows_train, rows_test, started_at, finished_at
		FROM runs
		WHERE ? = '' OR program = ?
		ORDER BY started_at DESC, id
		LIMIT ?
	`, string(program), string(program), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*model.Run, error) {
	var (
		run       model.Run
		program   string
		modelPath sql.NullString
		metrics   string
		finished  sql.NullTime
	)
	err := row.Scan(&run.ID, &program, &modelPath, &metrics, &run.TrainRows, &run.TestRows, &run.StartedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.Program = model.Program(program)
	run.ModelPath = modelPath.String
	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	if err := json.Unmarshal([]byte(metrics), &run.Metrics); err != nil {
		return nil, fmt.Errorf("failed to decode metrics of run %s: %w", run.ID, err)
	}
	return &run, nil
}
