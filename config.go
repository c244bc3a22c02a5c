package rangepool

import (
	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/rangepool/metrics"
)

// config holds Pool configuration.
type config struct {
	// Metrics receives pool instruments.
	// Default: metrics.NoopProvider
	Metrics metrics.Provider
}

// defaultConfig centralizes default values for config.
// These defaults are applied by both New and Restore.
func defaultConfig() config {
	return config{
		Metrics: metrics.NewNoopProvider(),
	}
}

// validateConfig checks invariants that options cannot check on their own.
func validateConfig(cfg *config) error {
	if cfg.Metrics == nil {
		return errorc.With(ErrInvalidConfig, errorc.String("metrics", "provider is nil"))
	}
	return nil
}

// Option configures a Pool. Use New(length, opts...) or Restore(snapshot, opts...).
type Option func(*config) error

// WithMetrics records pool instruments into p.
func WithMetrics(p metrics.Provider) Option {
	return func(cfg *config) error {
		if p == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("metrics", "WithMetrics requires a non-nil provider"))
		}
		cfg.Metrics = p
		return nil
	}
}

func buildConfig(opts []Option) (config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return config{}, err
		}
	}

	if err := validateConfig(&cfg); err != nil {
		return config{}, err
	}
	return cfg, nil
}

// Instrument names recorded by a Pool.
const (
	MetricWorkersCreated = "rangepool_workers_created_total"
	MetricWorkersReused  = "rangepool_workers_reused_total"
	MetricExhausted      = "rangepool_exhausted_total"
	MetricWorkersActive  = "rangepool_workers_active"
	MetricStepsCompleted = "rangepool_steps_completed_total"
	MetricSplitSize      = "rangepool_split_size"
)

type instruments struct {
	created   metrics.Counter
	reused    metrics.Counter
	exhausted metrics.Counter
	steps     metrics.Counter
	active    metrics.UpDownCounter
	splitSize metrics.Histogram
}

func newInstruments(p metrics.Provider) *instruments {
	return &instruments{
		created: p.Counter(MetricWorkersCreated,
			metrics.WithDescription("workers carved from unassigned or split range"), metrics.WithUnit("1")),
		reused: p.Counter(MetricWorkersReused,
			metrics.WithDescription("disposed workers reactivated"), metrics.WithUnit("1")),
		exhausted: p.Counter(MetricExhausted,
			metrics.WithDescription("worker requests refused because no range remains"), metrics.WithUnit("1")),
		steps: p.Counter(MetricStepsCompleted,
			metrics.WithDescription("indices reported as processed"), metrics.WithUnit("indices")),
		active: p.UpDownCounter(MetricWorkersActive,
			metrics.WithDescription("workers currently active"), metrics.WithUnit("1")),
		splitSize: p.Histogram(MetricSplitSize,
			metrics.WithDescription("size of ranges carved off by splits"), metrics.WithUnit("indices")),
	}
}
