package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/dichotomy/internal/config"
	derrors "github.com/Aman-CERP/dichotomy/internal/errors"
	"github.com/Aman-CERP/dichotomy/internal/interrupt"
	"github.com/Aman-CERP/dichotomy/internal/output"
	"github.com/Aman-CERP/dichotomy/internal/telemetry"
	"github.com/Aman-CERP/dichotomy/internal/ui"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs",
		Long: `Show the active runs and the runs recorded in the history database,
newest first.`,
		Example: `  # Last 20 runs
  dichotomy history

  # Every recorded run as JSON
  dichotomy history --limit 0 --json

  # One run with its probes
  dichotomy history show 2f1c9a3e-7d7b-4c53-9d1e-1b8a0f6d2c11`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistoryList(cmd, limit, jsonOutput)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistoryPruneCmd())

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openExistingHistory(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entry, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), ui.DetectNoColor())
			if jsonOutput {
				return renderer.RenderJSON(entry)
			}
			return renderer.RenderRun(entry)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newHistoryPruneCmd() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old runs from the history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if keep < 0 {
				return derrors.ValidationError("--keep must not be negative", nil)
			}
			store, err := openExistingHistory(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			removed, err := store.Prune(cmd.Context(), keep)
			if err != nil {
				return err
			}
			output.New(cmd.OutOrStdout()).Successf("Removed %d runs, kept the newest %d", removed, keep)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 0, "Number of newest runs to keep")

	return cmd
}

func runHistoryList(cmd *cobra.Command, limit int, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	info, err := collectHistory(cmd.Context(), cfg, limit)
	if err != nil {
		return err
	}

	renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), ui.DetectNoColor())
	if jsonOutput {
		return renderer.RenderJSON(info)
	}
	return renderer.RenderHistory(info)
}

func collectHistory(ctx context.Context, cfg *config.Config, limit int) (ui.HistoryInfo, error) {
	info := ui.HistoryInfo{Path: cfg.History.Path}

	active, err := interrupt.ActiveRuns(cfg.Interrupt.Dir)
	if err != nil {
		return info, derrors.IOError("failed to list active runs", err)
	}
	info.Active = active

	stat, err := os.Stat(cfg.History.Path)
	if os.IsNotExist(err) {
		return info, nil
	}
	if err != nil {
		return info, derrors.IOError("failed to read history database", err)
	}
	info.Size = stat.Size()

	store, err := telemetry.OpenHistory(cfg.History.Path, slog.Default())
	if err != nil {
		return info, err
	}
	defer func() { _ = store.Close() }()

	info.Runs, err = store.ListRuns(ctx, limit)
	return info, err
}

// openExistingHistory opens the history without creating an empty one.
func openExistingHistory(cfg *config.Config) (*telemetry.HistoryStore, error) {
	if _, err := os.Stat(cfg.History.Path); os.IsNotExist(err) {
		return nil, derrors.New(derrors.ErrCodeRunNotFound,
			fmt.Sprintf("no history at %s", cfg.History.Path), nil).
			WithSuggestion("Runs are recorded when history.enabled is true")
	}
	return telemetry.OpenHistory(cfg.History.Path, slog.Default())
}
