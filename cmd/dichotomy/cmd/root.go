// Package cmd provides the CLI commands for dichotomy.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/dichotomy/internal/config"
	derrors "github.com/Aman-CERP/dichotomy/internal/errors"
	"github.com/Aman-CERP/dichotomy/internal/logging"
	"github.com/Aman-CERP/dichotomy/internal/profiling"
	"github.com/Aman-CERP/dichotomy/pkg/version"
)

// Exit codes returned by Execute.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitFatal       = 2
	ExitInterrupted = 130
)

// Profiling flags
var (
	profileOpts profiling.Options
	profile     *profiling.Session
)

// Debug logging flag
var (
	debugMode      bool
	loggingCleanup func()
)

// configFile is the --config flag shared by every command.
var configFile string

// NewRootCmd creates the root command for the dichotomy CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dichotomy",
		Short: "Find the largest secure value of a scenario by bisection",
		Long: `Dichotomy searches a range of values for the boundary between secure and
insecure states of a network scenario. Each probe shifts the scenario to a
value, evaluates it, and narrows the bracket until it is smaller than the
configured precision.

Run 'dichotomy config init' to create a configuration, then 'dichotomy run'.`,
		Version:       version.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("dichotomy version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.dichotomy/logs/")
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file (default: ./dichotomy.yaml)")

	cmd.PersistentFlags().StringVar(&profileOpts.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging starts the requested profiles and the rotating
// debug log.
func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if profileOpts.Enabled() {
		var err error
		if profile, err = profiling.Start(profileOpts); err != nil {
			return err
		}
	}
	if !debugMode {
		return nil
	}
	sink := logging.DebugSink()
	logger, cleanup, err := logging.Open(sink)
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("Debug logging enabled",
		slog.String("log_file", sink.File),
		slog.String("build", version.Get().String()))
	return nil
}

// stopProfilingAndLogging writes the profiles and closes the debug log.
// Cobra skips it when the command fails.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		slog.Info("Debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	if profile != nil {
		err := profile.Stop()
		profile = nil
		if err != nil {
			return fmt.Errorf("failed to write profiles: %w", err)
		}
	}
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	cmd := NewRootCmd()
	err := cmd.Execute()
	if err != nil {
		// Failed commands skip the post-run hook.
		_ = stopProfilingAndLogging(cmd, nil)
		fmt.Fprint(os.Stderr, derrors.FormatForCLI(err))
	}
	return ExitCode(err)
}

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var de *derrors.DichotomyError
	if errors.As(err, &de) {
		switch de.Code {
		case derrors.ErrCodeEvaluationFatal:
			return ExitFatal
		case derrors.ErrCodeInterrupted:
			return ExitInterrupted
		}
	}
	return ExitError
}

// loadConfig loads the configuration named by --config, or the project
// configuration of the working directory.
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadFile(configFile)
	}
	return config.Load(".")
}

// projectConfigPath is where config init writes and config restore reads.
func projectConfigPath() string {
	if configFile != "" {
		return configFile
	}
	if p := config.FindProjectConfig("."); p != "" {
		return p
	}
	return config.ProjectConfigNames[0]
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
