package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/textclass/internal/common"
	"github.com/Veraticus/textclass/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "runs.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testRun(program model.Program, started time.Time) *model.Run {
	run := model.NewRun(program, "models/"+string(program)+".zip")
	run.StartedAt = started
	run.FinishedAt = started.Add(3 * time.Second)
	run.TrainRows = 90
	run.TestRows = 10
	run.Metrics["accuracy"] = 0.83
	return run
}

func TestSaveAndGetRun(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	run := testRun(model.ProgramSentiment, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, store.SaveRun(ctx, run))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, model.ProgramSentiment, got.Program)
	assert.Equal(t, run.ModelPath, got.ModelPath)
	assert.Equal(t, 90, got.TrainRows)
	assert.Equal(t, 10, got.TestRows)
	assert.InDelta(t, 0.83, got.Metrics["accuracy"], 1e-12)
	assert.True(t, run.StartedAt.Equal(got.StartedAt), "started %v, got %v", run.StartedAt, got.StartedAt)
	assert.Equal(t, 3*time.Second, got.Duration())
}

func TestSaveRun_Upserts(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	run := testRun(model.ProgramIssues, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	run.FinishedAt = time.Time{}
	require.NoError(t, store.SaveRun(ctx, run))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, got.FinishedAt.IsZero())

	run.Finish()
	run.Metrics["micro_accuracy"] = 0.7
	require.NoError(t, store.SaveRun(ctx, run))

	got, err = store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.False(t, got.FinishedAt.IsZero())
	assert.InDelta(t, 0.7, got.Metrics["micro_accuracy"], 1e-12)

	runs, err := store.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestGetRun_NotFound(t *testing.T) {
	store := createTestStorage(t)

	_, err := store.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListRuns(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 5; i++ {
		program := model.ProgramIssues
		if i%2 == 1 {
			program = model.ProgramSentiment
		}
		run := testRun(program, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, store.SaveRun(ctx, run))
		ids = append(ids, run.ID)
	}

	all, err := store.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, ids[4], all[0].ID, "newest first")
	assert.Equal(t, ids[0], all[4].ID)

	limited, err := store.ListRuns(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	sentiment, err := store.ListRuns(ctx, model.ProgramSentiment, 10)
	require.NoError(t, err)
	require.Len(t, sentiment, 2)
	for _, r := range sentiment {
		assert.Equal(t, model.ProgramSentiment, r.Program)
	}
}

func TestSaveRun_Validation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		run     *model.Run
		wantErr error
		name    string
	}{
		{name: "nil run", run: nil, wantErr: ErrNilParameter},
		{name: "missing id", run: &model.Run{Program: model.ProgramIssues, StartedAt: started}, wantErr: ErrInvalidRun},
		{name: "unknown program", run: &model.Run{ID: "x", Program: "spam", StartedAt: started}, wantErr: ErrInvalidRun},
		{name: "no start", run: &model.Run{ID: "x", Program: model.ProgramIssues}, wantErr: ErrInvalidRun},
		{
			name:    "finished before start",
			run:     &model.Run{ID: "x", Program: model.ProgramIssues, StartedAt: started, FinishedAt: started.Add(-time.Minute)},
			wantErr: ErrInvalidRun,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.SaveRun(ctx, tt.run)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	store := createTestStorage(t)
	require.NoError(t, store.Migrate(context.Background()))

	var version int
	require.NoError(t, store.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	assert.ErrorIs(t, err, ErrEmptyString)
}
