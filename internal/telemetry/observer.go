package telemetry

import (
	"context"
	"log/slog"

	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

// LogObserver writes engine events as structured log records.
type LogObserver struct {
	logger *slog.Logger
}

var _ dichotomy.Observer = (*LogObserver)(nil)

// NewLogObserver returns an observer logging to logger.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LogObserver{logger: logger}
}

// RunStarted implements dichotomy.Observer.
func (o *LogObserver) RunStarted(ctx context.Context, info dichotomy.RunInfo) {
	o.logger.InfoContext(ctx, "search started",
		slog.String("run_id", info.RunID),
		slog.String("strategy", info.Strategy),
		slog.String("min", info.Min),
		slog.String("max", info.Max),
		slog.Float64("precision", info.Precision),
		slog.Int("max_iterations", info.MaxIterations))
}

// ProbeCompleted implements dichotomy.Observer.
func (o *LogObserver) ProbeCompleted(ctx context.Context, ev dichotomy.ProbeEvent) {
	attrs := []slog.Attr{
		slog.String("run_id", ev.RunID),
		slog.Int("iteration", ev.Iteration),
		slog.String("value", ev.Value),
		slog.Bool("valid", ev.Valid),
		slog.Duration("duration", ev.Duration),
	}
	if !ev.Valid {
		attrs = append(attrs, slog.String("reason", ev.Reason.String()))
	}
	if ev.Message != "" {
		attrs = append(attrs, slog.String("message", ev.Message))
	}
	o.logger.LogAttrs(ctx, slog.LevelDebug, "probe completed", attrs...)
}

// RunFinished implements dichotomy.Observer.
func (o *LogObserver) RunFinished(ctx context.Context, s dichotomy.Summary) {
	level := slog.LevelInfo
	if s.Fatal {
		level = slog.LevelError
	}
	o.logger.LogAttrs(ctx, level, "search finished",
		slog.String("run_id", s.RunID),
		slog.String("termination", string(s.Termination)),
		slog.String("limiting_cause", string(s.Cause)),
		slog.String("highest_valid", s.HighestValid),
		slog.String("lowest_invalid", s.LowestInvalid),
		slog.Int("probes", s.Probes),
		slog.Duration("duration", s.Duration))
}

// Fanout forwards every event to each observer in order.
type Fanout []dichotomy.Observer

var _ dichotomy.Observer = Fanout(nil)

// RunStarted implements dichotomy.Observer.
func (f Fanout) RunStarted(ctx context.Context, info dichotomy.RunInfo) {
	for _, o := range f {
		o.RunStarted(ctx, info)
	}
}

// ProbeCompleted implements dichotomy.Observer.
func (f Fanout) ProbeCompleted(ctx context.Context, ev dichotomy.ProbeEvent) {
	for _, o := range f {
		o.ProbeCompleted(ctx, ev)
	}
}

// RunFinished implements dichotomy.Observer.
func (f Fanout) RunFinished(ctx context.Context, s dichotomy.Summary) {
	for _, o := range f {
		o.RunFinished(ctx, s)
	}
}
