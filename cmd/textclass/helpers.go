package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/textclass/internal/cli"
	"github.com/Veraticus/textclass/internal/common"
	"github.com/Veraticus/textclass/internal/config"
	"github.com/Veraticus/textclass/internal/model"
	"github.com/Veraticus/textclass/internal/sdca"
	"github.com/Veraticus/textclass/internal/storage"
)

// initStorage opens the run history database and brings its schema up to
// date.
func initStorage(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// recordRun stores a finished run. Failures are logged, never returned: the
// model is already on disk by the time a run is recorded.
func recordRun(ctx context.Context, cfg *config.Config, run *model.Run) {
	if cfg.DatabasePath == "" {
		return
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		common.LogError(err, "Failed to open run history", common.Fields{"path": cfg.DatabasePath})
		return
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close database", "error", closeErr)
		}
	}()

	if err := store.SaveRun(ctx, run); err != nil {
		common.LogError(err, "Failed to record run", common.Fields{"run": run.ID})
		return
	}
	slog.Debug("Recorded run", "run", run.ID, "program", run.Program)
}

// trainingOptions attaches a progress bar on w to the configured trainer
// options.
func trainingOptions(cfg *config.Config, w io.Writer, description string) (sdca.Options, *cli.TrainingProgress) {
	opts := cfg.Training.SDCA()
	bar := cli.NewTrainingProgress(w, description, opts.MaxIterations)
	opts.Progress = bar.Update
	return opts, bar
}

// interrupted turns a canceled training run into an error the user can act
// on.
func interrupted(h *cli.InterruptHandler, err error) error {
	if h.WasInterrupted() {
		return common.NewUserError("Training was interrupted", err)
	}
	return err
}
