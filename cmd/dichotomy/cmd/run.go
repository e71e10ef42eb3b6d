package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/dichotomy/internal/config"
	derrors "github.com/Aman-CERP/dichotomy/internal/errors"
	"github.com/Aman-CERP/dichotomy/internal/logging"
	"github.com/Aman-CERP/dichotomy/internal/output"
	"github.com/Aman-CERP/dichotomy/internal/runner"
	"github.com/Aman-CERP/dichotomy/internal/telemetry"
	"github.com/Aman-CERP/dichotomy/internal/ui"
	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

type runOptions struct {
	plain       bool
	jsonOutput  bool
	runID       string
	noHistory   bool
	concurrency int
	failFast    bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [config...]",
		Short: "Run a search",
		Long: `Run the search described by a configuration file.

Without arguments the --config file, or dichotomy.yaml in the working
directory, is used. With several files the searches run concurrently, one
per file, and a line per search is printed when they are all done.

A run can be stopped from another terminal with 'dichotomy stop <run-id>'.
The best bracket found so far is then reported.

Exit codes:
  0    search finished (converged or out of iterations)
  1    error
  2    an evaluation failed fatally
  130  the search was interrupted`,
		Example: `  # Run the project configuration with a live view
  dichotomy run

  # Run in CI, print the summary as JSON
  dichotomy run --json scenario.yaml

  # Run three scenarios, two at a time
  dichotomy run --concurrency 2 a.yaml b.yaml c.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return runSearch(ctx, cmd, args, opts, stop)
		},
	}

	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Disable the live view, print one line per probe")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the run summary as JSON")
	cmd.Flags().StringVar(&opts.runID, "run-id", "", "Run ID (default: generated)")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "Do not record the run in the history")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "Searches running at once with several configs (default: CPUs)")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false, "Stop the other searches after the first failure")

	return cmd
}

type namedConfig struct {
	name string
	cfg  *config.Config
}

func runSearch(ctx context.Context, cmd *cobra.Command, args []string, opts runOptions, cancel context.CancelFunc) error {
	configs, err := loadRunConfigs(args)
	if err != nil {
		return err
	}
	if len(configs) > 1 && opts.runID != "" {
		return derrors.ValidationError("--run-id needs a single configuration", nil).
			WithSuggestion("Drop --run-id; every search of a batch gets its own ID")
	}

	// The first configuration drives the process-wide concerns.
	primary := configs[0].cfg
	logger, cleanup, err := runLogger(primary, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	observers, closeObservers, err := runObservers(ctx, primary, opts, logger)
	if err != nil {
		return err
	}
	defer closeObservers()

	deps := runner.Dependencies{Logger: logger, Observers: observers}

	if len(configs) == 1 {
		return runSingle(ctx, cmd, configs[0], deps, opts, cancel)
	}
	return runMany(ctx, cmd, configs, deps, opts)
}

func loadRunConfigs(args []string) ([]namedConfig, error) {
	if len(args) == 0 {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		name := configFile
		if name == "" {
			name = cfg.Scenario.Name
		}
		return []namedConfig{{name: name, cfg: cfg}}, nil
	}
	configs := make([]namedConfig, 0, len(args))
	for _, path := range args {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		configs = append(configs, namedConfig{name: path, cfg: cfg})
	}
	return configs, nil
}

// runLogger returns the logger of the searches. --debug uses the debug log;
// otherwise logging.file selects a rotating file, else warnings go to stderr.
func runLogger(cfg *config.Config, opts runOptions) (*slog.Logger, func(), error) {
	if debugMode {
		return slog.Default(), func() {}, nil
	}
	if cfg.Logging.File != "" {
		level, err := logging.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return nil, nil, derrors.ConfigError(err.Error(), err)
		}
		return logging.Open(logging.Sink{
			Level:     level,
			File:      cfg.Logging.File,
			MaxSizeMB: cfg.Logging.MaxSizeMB,
			MaxFiles:  cfg.Logging.MaxFiles,
		})
	}
	if opts.jsonOutput {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	return logging.Console(os.Stderr, slog.LevelWarn), func() {}, nil
}

// runObservers builds the metrics and history observers. The returned
// function releases them.
func runObservers(ctx context.Context, cfg *config.Config, opts runOptions, logger *slog.Logger) ([]dichotomy.Observer, func(), error) {
	var (
		observers []dichotomy.Observer
		closers   []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		observers = append(observers, telemetry.NewMetrics(reg))
		mctx, stop := context.WithCancel(context.WithoutCancel(ctx))
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := telemetry.ServeMetrics(mctx, cfg.Metrics.Addr, reg, logger); err != nil {
				logger.Warn("metrics endpoint stopped", derrors.FormatForLog(err)...)
			}
		}()
		closers = append(closers, func() { stop(); <-done })
	}

	if cfg.History.Enabled && !opts.noHistory {
		store, err := telemetry.OpenHistory(cfg.History.Path, logger)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		observers = append(observers, telemetry.NewHistoryObserver(store, cfg.History.RecentRuns, logger))
		closers = append(closers, func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close history", slog.String("error", err.Error()))
			}
		})
	}
	return observers, closeAll, nil
}

func runSingle(ctx context.Context, cmd *cobra.Command, nc namedConfig, deps runner.Dependencies, opts runOptions, cancel context.CancelFunc) error {
	out := cmd.OutOrStdout()
	deps.Config = nc.cfg

	if !opts.jsonOutput {
		renderer := ui.NewRenderer(ui.NewConfig(out,
			ui.WithForcePlain(opts.plain),
			ui.WithNoColor(ui.DetectNoColor()),
			ui.WithTitle(filepath.Base(nc.name)),
			ui.WithInterruptHandler(cancel),
		))
		if err := renderer.Start(ctx); err != nil {
			return derrors.InternalError("failed to start the progress view", err)
		}
		defer func() { _ = renderer.Stop() }()
		deps.Renderer = renderer
	}

	r, err := runner.New(deps)
	if err != nil {
		return err
	}
	summary, err := r.Run(ctx, opts.runID)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		if err := writeJSON(out, summary); err != nil {
			return err
		}
	}
	return summaryError(summary)
}

// summaryError turns an aborted or interrupted run into the matching exit code.
func summaryError(s dichotomy.Summary) error {
	if err := runner.FatalError(s); err != nil {
		return err
	}
	if s.Interrupted {
		return derrors.New(derrors.ErrCodeInterrupted,
			fmt.Sprintf("run %s interrupted after %d probes", s.RunID, s.Probes), nil).
			WithSuggestion("The reported bracket is the best one found before the stop")
	}
	return nil
}

// batchLine is one search of a batch in --json output.
type batchLine struct {
	Name    string             `json:"name"`
	Summary *dichotomy.Summary `json:"summary,omitempty"`
	Error   json.RawMessage    `json:"error,omitempty"`
}

func runMany(ctx context.Context, cmd *cobra.Command, configs []namedConfig, deps runner.Dependencies, opts runOptions) error {
	jobs := make([]runner.Job, len(configs))
	for i, nc := range configs {
		jobs[i] = runner.Job{Name: nc.name, Config: nc.cfg}
	}
	// The recorder keeps each run's last probes for the aborted-run report.
	recorder := telemetry.NewRecorder(len(configs))
	deps.Observers = append(slices.Clone(deps.Observers), recorder)

	results, batchErr := runner.RunBatch(ctx, jobs, deps, runner.BatchOptions{
		Concurrency: opts.concurrency,
		FailFast:    opts.failFast,
	})

	if opts.jsonOutput {
		lines := make([]batchLine, len(results))
		for i, res := range results {
			lines[i].Name = res.Name
			if res.Summary.RunID != "" {
				lines[i].Summary = &res.Summary
			}
			if res.Err != nil {
				data, err := derrors.FormatJSON(res.Err)
				if err != nil {
					return derrors.InternalError("failed to encode error", err)
				}
				lines[i].Error = data
			}
		}
		if err := writeJSON(cmd.OutOrStdout(), lines); err != nil {
			return err
		}
	} else {
		printBatch(output.New(cmd.OutOrStdout()), results, recorder)
	}

	if batchErr != nil {
		return batchErr
	}
	return firstBatchError(results)
}

func printBatch(out *output.Writer, results []runner.JobResult, recorder *telemetry.Recorder) {
	for _, res := range results {
		s := res.Summary
		switch {
		case res.Err != nil && s.RunID == "":
			out.Errorf("%s: %s", res.Name, derrors.Translate(res.Err).Message)
			continue
		case s.Fatal:
			out.Errorf("%s: run %s aborted: %s", res.Name, s.RunID, s.FatalMessage)
		case s.Interrupted:
			out.Warningf("%s: interrupted, valid <= %s, invalid >= %s", res.Name, dash(s.HighestValid), dash(s.LowestInvalid))
		default:
			out.Successf("%s: valid <= %s, invalid >= %s (%s)", res.Name, dash(s.HighestValid), dash(s.LowestInvalid), s.Cause)
			continue
		}
		if last, ok := lastProbe(recorder, s.RunID); ok {
			out.Statusf("", "last probe %d: %s %s", last.Iteration+1, last.Value, probeVerdict(last))
		}
	}
}

func lastProbe(recorder *telemetry.Recorder, runID string) (dichotomy.ProbeEvent, bool) {
	rec, ok := recorder.Get(runID)
	if !ok {
		return dichotomy.ProbeEvent{}, false
	}
	probes := rec.Probes()
	if len(probes) == 0 {
		return dichotomy.ProbeEvent{}, false
	}
	return probes[len(probes)-1], true
}

func probeVerdict(ev dichotomy.ProbeEvent) string {
	switch {
	case ev.Valid:
		return "valid"
	case ev.Message != "":
		return fmt.Sprintf("invalid (%s: %s)", ev.Reason, ev.Message)
	default:
		return fmt.Sprintf("invalid (%s)", ev.Reason)
	}
}

// firstBatchError returns the error of the first failed search, preferring
// plain errors over fatal and interrupted runs.
func firstBatchError(results []runner.JobResult) error {
	var found error
	for _, res := range results {
		err := res.Err
		if err == nil {
			err = summaryError(res.Summary)
		}
		if err == nil {
			continue
		}
		if ExitCode(err) == ExitError {
			return err
		}
		if found == nil {
			found = err
		}
	}
	return found
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return derrors.InternalError("failed to encode JSON", err)
	}
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
