package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

const metricsNamespace = "dichotomy"

// Metrics exports engine events as Prometheus metrics.
//
// All operations are thread-safe.
type Metrics struct {
	// RunsStarted counts runs by strategy.
	RunsStarted *prometheus.CounterVec
	// RunsFinished counts runs by strategy, termination and limiting cause.
	RunsFinished *prometheus.CounterVec
	// Probes counts probes by outcome reason (NONE for valid probes).
	Probes *prometheus.CounterVec
	// ProbeDuration measures the shift plus evaluation time of each probe.
	ProbeDuration prometheus.Histogram
	// RunDuration measures whole runs by termination.
	RunDuration *prometheus.HistogramVec
	// ProbesPerRun measures how many probes runs needed.
	ProbesPerRun prometheus.Histogram
	// ActiveRuns is the number of runs in progress.
	ActiveRuns prometheus.Gauge

	mu       sync.Mutex
	strategy map[string]string
}

var _ dichotomy.Observer = (*Metrics)(nil)

// NewMetrics creates the metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RunsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_started_total",
			Help:      "Searches started by strategy",
		}, []string{"strategy"}),
		RunsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_finished_total",
			Help:      "Searches finished by strategy, termination and limiting cause",
		}, []string{"strategy", "termination", "cause"}),
		Probes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "probes_total",
			Help:      "Probes recorded by outcome reason",
		}, []string{"reason"}),
		ProbeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "probe_duration_seconds",
			Help:      "Shift and evaluation time of a probe in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~33s
		}),
		RunDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Search duration in seconds by termination",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 16),
		}, []string{"termination"}),
		ProbesPerRun: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "probes_per_run",
			Help:      "Probes needed by a search",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}),
		ActiveRuns: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "active_runs",
			Help:      "Searches in progress",
		}),
		strategy: make(map[string]string),
	}
}

// RunStarted implements dichotomy.Observer.
func (m *Metrics) RunStarted(_ context.Context, info dichotomy.RunInfo) {
	m.mu.Lock()
	m.strategy[info.RunID] = info.Strategy
	m.mu.Unlock()
	m.RunsStarted.WithLabelValues(info.Strategy).Inc()
	m.ActiveRuns.Inc()
}

// ProbeCompleted implements dichotomy.Observer.
func (m *Metrics) ProbeCompleted(_ context.Context, ev dichotomy.ProbeEvent) {
	m.Probes.WithLabelValues(ev.Reason.String()).Inc()
	m.ProbeDuration.Observe(ev.Duration.Seconds())
}

// RunFinished implements dichotomy.Observer.
func (m *Metrics) RunFinished(_ context.Context, s dichotomy.Summary) {
	m.mu.Lock()
	strategy, started := m.strategy[s.RunID]
	delete(m.strategy, s.RunID)
	m.mu.Unlock()
	if !started {
		strategy = s.Strategy
	}

	cause := string(s.Cause)
	if cause == "" {
		cause = "none"
	}
	m.RunsFinished.WithLabelValues(strategy, string(s.Termination), cause).Inc()
	m.RunDuration.WithLabelValues(string(s.Termination)).Observe(s.Duration.Seconds())
	m.ProbesPerRun.Observe(float64(s.Probes))
	if started {
		m.ActiveRuns.Dec()
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ServeMetrics serves /metrics on addr until ctx is done.
func ServeMetrics(ctx context.Context, addr string, g prometheus.Gatherer, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
