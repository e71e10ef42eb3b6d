// Package runner wires a loaded configuration into a search and runs it.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Aman-CERP/dichotomy/internal/config"
	derrors "github.com/Aman-CERP/dichotomy/internal/errors"
	"github.com/Aman-CERP/dichotomy/internal/interrupt"
	"github.com/Aman-CERP/dichotomy/internal/scenario"
	"github.com/Aman-CERP/dichotomy/internal/telemetry"
	"github.com/Aman-CERP/dichotomy/internal/ui"
	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

// Dependencies contains the injected dependencies for Runner.
type Dependencies struct {
	// Config is the loaded configuration (required).
	Config *config.Config

	// Logger receives diagnostics. Defaults to discarding.
	Logger *slog.Logger

	// Renderer displays progress. Optional.
	Renderer ui.Renderer

	// Observers receive engine events next to the renderer, e.g. metrics
	// or the history.
	Observers []dichotomy.Observer

	// Signal overrides the stop-file signal built from Config.Interrupt.
	Signal dichotomy.InterruptionSignal
}

// Runner executes searches described by a configuration.
type Runner struct {
	cfg       *config.Config
	logger    *slog.Logger
	renderer  ui.Renderer
	observers []dichotomy.Observer
	signal    dichotomy.InterruptionSignal
}

// New creates a Runner with injected dependencies.
func New(deps Dependencies) (*Runner, error) {
	if deps.Config == nil {
		return nil, derrors.InternalError("config is required", nil)
	}
	if err := deps.Config.Validate(); err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		cfg:       deps.Config,
		logger:    logger,
		renderer:  deps.Renderer,
		observers: deps.Observers,
		signal:    deps.Signal,
	}, nil
}

// Run executes one search under runID, or a fresh ID when runID is empty.
//
// The run holds an exclusive lock on its ID for its whole duration. A fatal
// evaluation is reported through the summary, not as an error.
func (r *Runner) Run(ctx context.Context, runID string) (dichotomy.Summary, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	if err := interrupt.ValidateRunID(runID); err != nil {
		return dichotomy.Summary{}, err
	}
	logger := r.logger.With(slog.String("run_id", runID))

	dir := r.cfg.Interrupt.Dir
	lock := interrupt.NewRunLock(dir, runID)
	if err := lock.Acquire(); err != nil {
		return dichotomy.Summary{}, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release run lock", slog.String("error", err.Error()))
		}
	}()

	// A stop request left over from an earlier run with this ID must not
	// end this one.
	if err := interrupt.ClearStop(dir, runID); err != nil {
		return dichotomy.Summary{}, derrors.Translate(err)
	}

	signal := r.signal
	if signal == nil {
		fs, err := interrupt.NewFileSignal(dir, interrupt.WithSignalLogger(logger))
		if err != nil {
			return dichotomy.Summary{}, derrors.Translate(err)
		}
		fs.Start(ctx)
		defer fs.Close()
		signal = fs
	}

	if timeout := r.cfg.Search.ParsedTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	opts := []dichotomy.Option{
		dichotomy.WithRunID(runID),
		dichotomy.WithLogger(logger),
		dichotomy.WithInterruption(signal),
		dichotomy.WithObserver(r.observer(logger)),
	}
	if r.cfg.Export.Dir != "" {
		opts = append(opts, dichotomy.WithExporter(&reportingExporter{
			DirExporter: scenario.NewDirExporter(r.cfg.Export.Dir, r.cfg.Export.MaxFailures),
			renderer:    r.renderer,
		}))
	}

	network := scenario.NewNetwork(r.cfg.Scenario)
	evaluator := &scenario.Evaluator{Latency: r.cfg.Evaluation.ParsedLatency()}

	started := time.Now()
	var (
		summary dichotomy.Summary
		err     error
	)
	if r.cfg.Search.IsVector() {
		summary, err = search[dichotomy.Vector](ctx, r.cfg.Search, VectorPoint, scenario.VectorCoordinates, network, evaluator, opts)
	} else {
		summary, err = search[dichotomy.Scalar](ctx, r.cfg.Search, ScalarPoint, scenario.ScalarCoordinates, network, evaluator, opts)
	}
	if err != nil {
		logger.Error("search failed", derrors.FormatForLog(err)...)
		return dichotomy.Summary{}, err
	}
	logger.Debug("search returned", slog.Duration("elapsed", time.Since(started)))
	return summary, nil
}

// Config returns the configuration the runner was built with.
func (r *Runner) Config() *config.Config { return r.cfg }

func (r *Runner) observer(logger *slog.Logger) dichotomy.Observer {
	fan := telemetry.Fanout{telemetry.NewLogObserver(logger)}
	if r.renderer != nil {
		fan = append(fan, r.renderer)
	}
	return append(fan, r.observers...)
}

func search[V dichotomy.Variable[V]](
	ctx context.Context,
	s config.SearchConfig,
	point PointFunc[V],
	coords scenario.Coordinates[V],
	network *scenario.Network,
	evaluator dichotomy.Evaluator[scenario.Assessment],
	opts []dichotomy.Option,
) (dichotomy.Summary, error) {
	lo, err := point(s.Min)
	if err != nil {
		return dichotomy.Summary{}, err
	}
	hi, err := point(s.Max)
	if err != nil {
		return dichotomy.Summary{}, err
	}
	strategy, err := BuildStrategy(s, point)
	if err != nil {
		return dichotomy.Summary{}, err
	}

	engine, err := dichotomy.NewEngine(dichotomy.EngineConfig[scenario.Assessment, V]{
		Min:           lo,
		Max:           hi,
		Precision:     s.Precision,
		MaxIterations: s.MaxIterations,
		Strategy:      strategy,
		Shifter:       scenario.NewShifter(coords),
		Evaluator:     evaluator,
	}, opts...)
	if err != nil {
		return dichotomy.Summary{}, derrors.Translate(err)
	}

	result, err := engine.Run(ctx, network)
	if err != nil {
		return dichotomy.Summary{}, derrors.Wrap(derrors.ErrCodeSearchFailed, err)
	}
	return result.Summary(), nil
}

// FatalError returns the error a fatal summary stands for, nil otherwise.
func FatalError(s dichotomy.Summary) error {
	if !s.Fatal {
		return nil
	}
	return derrors.New(derrors.ErrCodeEvaluationFatal,
		fmt.Sprintf("run %s aborted: %s", s.RunID, s.FatalMessage), nil).
		WithSuggestion("Check the failure bands of the scenario")
}

// reportingExporter shows export failures on the renderer before handing them
// back to the engine, which logs them and carries on.
type reportingExporter struct {
	*scenario.DirExporter
	renderer ui.Renderer
}

func (x *reportingExporter) Export(ctx context.Context, sc dichotomy.Scenario, runID string, reason dichotomy.Reason) error {
	err := x.DirExporter.Export(ctx, sc, runID, reason)
	if err != nil && x.renderer != nil {
		x.renderer.AddError(ui.ErrorEvent{
			Source: "export",
			Err:    err,
			IsWarn: errors.Is(err, derrors.ErrCircuitOpen),
		})
	}
	return err
}
