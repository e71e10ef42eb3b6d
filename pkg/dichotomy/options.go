package dichotomy

import "log/slog"

// Option configures optional Engine collaborators.
type Option func(*options)

type options struct {
	interruption InterruptionSignal
	exporter     Exporter
	observer     Observer
	logger       *slog.Logger
	runID        string
}

func defaultOptions() options {
	return options{
		observer: NopObserver{},
		logger:   slog.New(slog.DiscardHandler),
	}
}

// WithInterruption sets the signal polled before every probe.
// Without it only context cancellation interrupts a search.
func WithInterruption(signal InterruptionSignal) Option {
	return func(o *options) {
		o.interruption = signal
	}
}

// WithExporter sets the sink for working views of failed probes.
func WithExporter(exporter Exporter) Option {
	return func(o *options) {
		o.exporter = exporter
	}
}

// WithObserver sets the structured event sink.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// WithLogger sets the logger used for diagnostics. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRunID fixes the run ID passed to collaborators. By default every Run
// gets a fresh random ID.
func WithRunID(id string) Option {
	return func(o *options) {
		o.runID = id
	}
}
