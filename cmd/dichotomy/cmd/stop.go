package cmd

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"

	derrors "github.com/Aman-CERP/dichotomy/internal/errors"
	"github.com/Aman-CERP/dichotomy/internal/interrupt"
	"github.com/Aman-CERP/dichotomy/internal/output"
)

func newStopCmd() *cobra.Command {
	var now bool

	cmd := &cobra.Command{
		Use:   "stop [run-id]",
		Short: "Stop a running search",
		Long: `Ask a running search to stop. The search finishes its current probe and
reports the best bracket found so far.

Without a run ID the active runs are listed.`,
		Example: `  # List active runs
  dichotomy stop

  # Stop a run after its current probe
  dichotomy stop 2f1c9a3e-7d7b-4c53-9d1e-1b8a0f6d2c11

  # Interrupt the current probe too
  dichotomy stop --now 2f1c9a3e-7d7b-4c53-9d1e-1b8a0f6d2c11`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := output.New(cmd.OutOrStdout())
			dir := cfg.Interrupt.Dir

			if len(args) == 0 {
				return listActiveRuns(out, dir)
			}
			return stopRun(out, dir, args[0], now)
		},
	}

	cmd.Flags().BoolVar(&now, "now", false, "Send an interrupt to the run's process instead of waiting for the probe")

	return cmd
}

func listActiveRuns(out *output.Writer, dir string) error {
	runs, err := interrupt.ActiveRuns(dir)
	if err != nil {
		return derrors.IOError("failed to list active runs", err)
	}
	if len(runs) == 0 {
		out.Status("", "No active runs")
		return nil
	}
	out.Statusf("", "Active runs (%d):", len(runs))
	items := make([]string, len(runs))
	for i, r := range runs {
		items[i] = r.RunID
		if r.PID > 0 {
			items[i] = fmt.Sprintf("%s (pid %d)", r.RunID, r.PID)
		}
	}
	out.List(items)
	return nil
}

func stopRun(out *output.Writer, dir, runID string, now bool) error {
	if err := interrupt.ValidateRunID(runID); err != nil {
		return err
	}
	if !interrupt.IsActive(dir, runID) {
		return derrors.New(derrors.ErrCodeRunNotFound,
			fmt.Sprintf("no active run %s", runID), nil).
			WithSuggestion("Run 'dichotomy stop' to list the active runs")
	}

	if now {
		if err := interrupt.SignalRun(dir, runID, syscall.SIGINT); err != nil {
			return derrors.New(derrors.ErrCodeInternal,
				fmt.Sprintf("failed to interrupt run %s", runID), err)
		}
		out.Successf("Interrupted run %s", runID)
		return nil
	}

	if err := interrupt.RequestStop(dir, runID); err != nil {
		return derrors.IOError(fmt.Sprintf("failed to request stop of run %s", runID), err)
	}
	out.Successf("Stop requested for run %s", runID)
	out.Status("", "The run stops after its current probe.")
	return nil
}
