package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/textclass/internal/cli"
	"github.com/Veraticus/textclass/internal/model"
	"github.com/Veraticus/textclass/internal/storage"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the training run history",
	}

	cmd.AddCommand(listRunsCmd())

	return cmd
}

func listRunsCmd() *cobra.Command {
	var (
		program string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded training runs, newest first",
		Example: `  textclass runs list
  textclass runs list --program sentiment --limit 5`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("Failed to close database", "error", closeErr)
				}
			}()

			runs, err := store.ListRuns(ctx, model.Program(program), limit)
			if err != nil {
				return err
			}
			return cli.PrintRuns(cmd.OutOrStdout(), runs)
		},
	}

	cmd.Flags().StringVar(&program, "program", "", "only show runs of this program (issues, sentiment)")
	cmd.Flags().IntVar(&limit, "limit", storage.DefaultListLimit, "maximum number of runs to show")

	return cmd
}
