package coordinator

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/ygrebnov/errorc"
	"gopkg.in/yaml.v3"

	"github.com/ygrebnov/rangepool"
)

// options holds Coordinator configuration.
type options struct {
	// Capacity caps the number of leases held at once.
	// Default: 0 (unlimited)
	Capacity uint

	// Logger receives debug events about leases.
	// Default: a logger writing to io.Discard.
	Logger *log.Logger

	// SnapshotFormat is used by Coordinator.WriteSnapshot.
	// Default: rangepool.FormatJSON
	SnapshotFormat rangepool.Format

	// PoolOptions are passed to rangepool.New by NewFromConfig.
	PoolOptions []rangepool.Option
}

func defaultOptions() options {
	return options{
		Capacity:       0,
		Logger:         log.New(io.Discard),
		SnapshotFormat: rangepool.FormatJSON,
	}
}

// Option configures a Coordinator.
type Option func(*options) error

// WithCapacity limits the number of leases held at once to n (must be > 0).
// Acquire blocks while the limit is reached.
func WithCapacity(n uint) Option {
	return func(o *options) error {
		if n == 0 {
			return errorc.With(rangepool.ErrInvalidConfig, errorc.String("capacity", "WithCapacity requires n > 0"))
		}
		o.Capacity = n
		return nil
	}
}

// WithLogger sets the logger used for lease events.
func WithLogger(l *log.Logger) Option {
	return func(o *options) error {
		if l == nil {
			return errorc.With(rangepool.ErrInvalidConfig, errorc.String("logger", "WithLogger requires a non-nil logger"))
		}
		o.Logger = l
		return nil
	}
}

// WithSnapshotFormat selects the encoding used by Coordinator.WriteSnapshot.
func WithSnapshotFormat(f rangepool.Format) Option {
	return func(o *options) error {
		if f != rangepool.FormatJSON && f != rangepool.FormatYAML {
			return errorc.With(rangepool.ErrInvalidConfig, errorc.String("snapshot_format", f.String()))
		}
		o.SnapshotFormat = f
		return nil
	}
}

// WithPoolOptions passes options to the pool created by NewFromConfig.
// New ignores them since it receives an existing pool.
func WithPoolOptions(opts ...rangepool.Option) Option {
	return func(o *options) error {
		o.PoolOptions = append(o.PoolOptions, opts...)
		return nil
	}
}

// Config is the file representation of a coordinator and its pool.
type Config struct {
	// Length is the size of the index range to partition.
	Length int `toml:"length" yaml:"length" json:"length"`

	// Capacity caps concurrent leases. Zero means unlimited.
	Capacity uint `toml:"capacity" yaml:"capacity" json:"capacity"`

	// SnapshotFormat is "json" (default) or "yaml".
	SnapshotFormat string `toml:"snapshot_format" yaml:"snapshot_format" json:"snapshot_format"`

	// LogLevel is "debug", "info", "warn" or "error". Empty disables logging.
	LogLevel string `toml:"log_level" yaml:"log_level" json:"log_level"`
}

// LoadConfig reads a Config from a .toml, .yaml, .yml or .json file.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, errorc.With(rangepool.ErrInvalidConfig, errorc.String("toml", err.Error()))
		}

	case ".yaml", ".yml", ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if ext == ".json" {
			err = json.Unmarshal(data, &cfg)
		} else {
			err = yaml.Unmarshal(data, &cfg)
		}
		if err != nil {
			return Config{}, errorc.With(rangepool.ErrInvalidConfig, errorc.String(ext[1:], err.Error()))
		}

	default:
		return Config{}, errorc.With(rangepool.ErrInvalidConfig, errorc.String("path", "unsupported config format "+strconv.Quote(ext)))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Length < 0 {
		return errorc.With(rangepool.ErrInvalidConfig, errorc.String("length", "must be at least zero, got "+strconv.Itoa(c.Length)))
	}
	if c.SnapshotFormat != "" {
		if _, err := rangepool.ParseFormat(c.SnapshotFormat); err != nil {
			return errorc.With(rangepool.ErrInvalidConfig, errorc.String("snapshot_format", c.SnapshotFormat))
		}
	}
	if c.LogLevel != "" {
		if _, err := log.ParseLevel(c.LogLevel); err != nil {
			return errorc.With(rangepool.ErrInvalidConfig, errorc.String("log_level", c.LogLevel))
		}
	}
	return nil
}

// options converts the file config to coordinator options. Options passed to
// NewFromConfig are applied after these and win.
func (c Config) options() []Option {
	var opts []Option
	if c.Capacity > 0 {
		opts = append(opts, WithCapacity(c.Capacity))
	}
	if c.SnapshotFormat != "" {
		if f, err := rangepool.ParseFormat(c.SnapshotFormat); err == nil {
			opts = append(opts, WithSnapshotFormat(f))
		}
	}
	if c.LogLevel != "" {
		if level, err := log.ParseLevel(c.LogLevel); err == nil {
			opts = append(opts, WithLogger(log.NewWithOptions(os.Stderr, log.Options{
				Level:           level,
				Prefix:          rangepool.Namespace,
				ReportTimestamp: true,
			})))
		}
	}
	return opts
}
