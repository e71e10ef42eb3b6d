package config

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	derrors "github.com/Aman-CERP/dichotomy/internal/errors"
	"github.com/Aman-CERP/dichotomy/internal/scenario"
)

// Strategy names accepted in search.strategy.
const (
	StrategyRangeDivision          = "range-division"
	StrategySteps                  = "steps"
	StrategyHalfRangeDivision      = "half-range-division"
	StrategyBiDirectionalSteps     = "bidirectional-steps"
	StrategyBiDirectionalReference = "bidirectional-steps-with-reference"
)

// Strategies lists every accepted strategy name.
var Strategies = []string{
	StrategyRangeDivision,
	StrategySteps,
	StrategyHalfRangeDivision,
	StrategyBiDirectionalSteps,
	StrategyBiDirectionalReference,
}

// ProjectConfigNames are the file names Load looks for in a directory, in order.
var ProjectConfigNames = []string{"dichotomy.yaml", "dichotomy.yml"}

// Config is the complete dichotomy configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Scenario   scenario.Model   `yaml:"scenario" json:"scenario"`
	Evaluation EvaluationConfig `yaml:"evaluation" json:"evaluation"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
	History    HistoryConfig    `yaml:"history" json:"history"`
	Metrics    MetricsConfig    `yaml:"metrics" json:"metrics"`
	Export     ExportConfig     `yaml:"export" json:"export"`
	Interrupt  InterruptConfig  `yaml:"interrupt" json:"interrupt"`
}

// SearchConfig configures the bisection itself.
type SearchConfig struct {
	Min Point `yaml:"min" json:"min"`
	Max Point `yaml:"max" json:"max"`

	// Precision is the bracket width under which the search stops.
	Precision float64 `yaml:"precision" json:"precision" validate:"gt=0"`
	// MaxIterations caps the number of probes.
	MaxIterations int `yaml:"max_iterations" json:"max_iterations" validate:"gte=3"`

	Strategy     string  `yaml:"strategy" json:"strategy" validate:"strategy"`
	StartWithMin bool    `yaml:"start_with_min" json:"start_with_min"`
	StepSize     float64 `yaml:"step_size,omitempty" json:"step_size,omitempty" validate:"gte=0"`
	// Start is the first probe of the bidirectional strategies.
	Start *Point `yaml:"start,omitempty" json:"start,omitempty"`
	// Reference splits resource limitations into those below and above it.
	Reference *Point `yaml:"reference,omitempty" json:"reference,omitempty"`

	// Timeout bounds the whole run. Empty means no limit.
	Timeout string `yaml:"timeout,omitempty" json:"timeout,omitempty" validate:"omitempty,duration"`
}

// IsVector reports whether the search runs over a vector variable.
func (s SearchConfig) IsVector() bool { return s.Min.IsVector() }

// Keys returns the exchange keys the search moves.
func (s SearchConfig) Keys() []string {
	if !s.IsVector() {
		return []string{scenario.DefaultKey}
	}
	return s.Min.Keys()
}

// ParsedTimeout returns Timeout as a duration, zero when unset.
func (s SearchConfig) ParsedTimeout() time.Duration {
	d, _ := time.ParseDuration(s.Timeout)
	return d
}

// EvaluationConfig tunes the simulated load flow.
type EvaluationConfig struct {
	// Latency is added to every evaluation, e.g. "250ms".
	Latency string `yaml:"latency,omitempty" json:"latency,omitempty" validate:"omitempty,duration"`
}

// ParsedLatency returns Latency as a duration, zero when unset.
func (e EvaluationConfig) ParsedLatency() time.Duration {
	d, _ := time.ParseDuration(e.Latency)
	return d
}

// LoggingConfig configures the rotating log file.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	File      string `yaml:"file,omitempty" json:"file,omitempty"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb" validate:"gte=1"`
	MaxFiles  int    `yaml:"max_files" json:"max_files" validate:"gte=1"`
}

// HistoryConfig configures the run history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path" validate:"required_if=Enabled true"`
	// RecentRuns is how many runs the history keeps. Older runs are pruned.
	RecentRuns int `yaml:"recent_runs" json:"recent_runs" validate:"gte=1"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address, e.g. ":9464". Empty disables the endpoint.
	Addr string `yaml:"addr,omitempty" json:"addr,omitempty" validate:"omitempty,hostname_port"`
}

// ExportConfig configures snapshots of failed working views.
type ExportConfig struct {
	// Dir receives the snapshots. Empty disables export.
	Dir         string `yaml:"dir,omitempty" json:"dir,omitempty"`
	MaxFailures int    `yaml:"max_failures" json:"max_failures" validate:"gte=1"`
}

// InterruptConfig configures stop requests and run locks.
type InterruptConfig struct {
	Dir string `yaml:"dir" json:"dir" validate:"required"`
}

// NewConfig creates a new Config with sensible defaults. The default scenario
// is a small two-line network, so a fresh config runs as is.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Search: SearchConfig{
			Min:           Point{Scalar: -1000},
			Max:           Point{Scalar: 1000},
			Precision:     10,
			MaxIterations: 30,
			Strategy:      StrategyRangeDivision,
			StartWithMin:  true,
		},
		Scenario: scenario.Model{
			Name: "demo",
			Lines: []scenario.Line{
				{ID: "north-south", BaseFlow: 100, Sensitivity: map[string]float64{scenario.DefaultKey: 0.5}, Limit: 400},
				{ID: "east-west", BaseFlow: -50, Sensitivity: map[string]float64{scenario.DefaultKey: -0.2}, Limit: 300},
			},
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
		History: HistoryConfig{
			Enabled:    true,
			Path:       filepath.Join(DataDir(), "history.db"),
			RecentRuns: 100,
		},
		Export: ExportConfig{
			MaxFailures: 3,
		},
		Interrupt: InterruptConfig{
			Dir: filepath.Join(DataDir(), "runs"),
		},
	}
}

// DataDir returns the directory for history, run files and logs.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".dichotomy")
	}
	return filepath.Join(home, ".dichotomy")
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/dichotomy/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/dichotomy/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "dichotomy", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "dichotomy", "config.yaml")
	}
	return filepath.Join(home, ".config", "dichotomy", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// FindProjectConfig returns the project config file in dir, or "" if there is none.
func FindProjectConfig(dir string) string {
	for _, name := range ProjectConfigNames {
		if p := filepath.Join(dir, name); fileExists(p) {
			return p
		}
	}
	return ""
}

// Load loads configuration for the project in dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/dichotomy/config.yaml)
//  3. Project config (dichotomy.yaml in dir)
//  4. Environment variables (DICHOTOMY_*)
//
// A later layer only overrides the keys it sets. Lists such as scenario.lines
// are replaced as a whole.
func Load(dir string) (*Config, error) {
	return load(FindProjectConfig(dir), false)
}

// LoadFile is like Load but reads the project layer from path, which must exist.
func LoadFile(path string) (*Config, error) {
	return load(path, true)
}

func load(projectPath string, required bool) (*Config, error) {
	cfg := NewConfig()

	if UserConfigExists() {
		if err := cfg.loadYAML(GetUserConfigPath()); err != nil {
			return nil, err
		}
	}

	if projectPath != "" {
		if required && !fileExists(projectPath) {
			return nil, derrors.New(derrors.ErrCodeConfigNotFound,
				fmt.Sprintf("config file not found: %s", projectPath), nil).
				WithSuggestion("Create one with 'dichotomy config init'")
		}
		if err := cfg.loadYAML(projectPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadYAML decodes path on top of the current values.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return derrors.New(derrors.ErrCodeConfigPermission, fmt.Sprintf("cannot read config file %s", path), err)
		}
		return derrors.New(derrors.ErrCodeConfigNotFound, fmt.Sprintf("failed to read config file %s: %v", path, err), err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return derrors.ConfigError(fmt.Sprintf("failed to parse config file %s: %v", path, err), err)
	}
	return nil
}

// applyEnvOverrides applies DICHOTOMY_* environment variable overrides.
// Malformed numbers are reported rather than ignored.
func (c *Config) applyEnvOverrides() error {
	floats := map[string]*float64{
		"DICHOTOMY_PRECISION": &c.Search.Precision,
		"DICHOTOMY_STEP_SIZE": &c.Search.StepSize,
	}
	for name, dst := range floats {
		if v := os.Getenv(name); v != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return envError(name, v, err)
			}
			*dst = f
		}
	}
	for name, dst := range map[string]*Point{"DICHOTOMY_MIN": &c.Search.Min, "DICHOTOMY_MAX": &c.Search.Max} {
		if v := os.Getenv(name); v != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return envError(name, v, err)
			}
			*dst = Point{Scalar: f}
		}
	}
	if v := os.Getenv("DICHOTOMY_MAX_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return envError("DICHOTOMY_MAX_ITERATIONS", v, err)
		}
		c.Search.MaxIterations = n
	}
	if v := os.Getenv("DICHOTOMY_STRATEGY"); v != "" {
		c.Search.Strategy = v
	}
	if v := os.Getenv("DICHOTOMY_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("DICHOTOMY_HISTORY_ENABLED"); v != "" {
		c.History.Enabled = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("DICHOTOMY_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("DICHOTOMY_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("DICHOTOMY_EXPORT_DIR"); v != "" {
		c.Export.Dir = v
	}
	if v := os.Getenv("DICHOTOMY_INTERRUPT_DIR"); v != "" {
		c.Interrupt.Dir = v
	}
	return nil
}

func envError(name, value string, err error) error {
	return derrors.ConfigError(fmt.Sprintf("invalid value %q for %s", value, name), err).
		WithDetail("variable", name)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Point is a search bound or start value. In YAML it is either a number
// (scalar search) or a mapping of exchange keys to numbers (vector search).
type Point struct {
	Scalar float64
	Vector map[string]float64
}

// IsVector reports whether the point is a mapping.
func (p Point) IsVector() bool { return len(p.Vector) > 0 }

// Keys returns the sorted keys of a vector point.
func (p Point) Keys() []string { return slices.Sorted(maps.Keys(p.Vector)) }

// String formats the point like the search variables do.
func (p Point) String() string {
	if !p.IsVector() {
		return strconv.FormatFloat(p.Scalar, 'g', -1, 64)
	}
	parts := make([]string, 0, len(p.Vector))
	for _, k := range p.Keys() {
		parts = append(parts, k+"="+strconv.FormatFloat(p.Vector[k], 'g', -1, 64))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Point) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var f float64
		if err := node.Decode(&f); err != nil {
			return fmt.Errorf("line %d: point must be a number or a mapping: %w", node.Line, err)
		}
		*p = Point{Scalar: f}
	case yaml.MappingNode:
		var m map[string]float64
		if err := node.Decode(&m); err != nil {
			return fmt.Errorf("line %d: point values must be numbers: %w", node.Line, err)
		}
		if len(m) == 0 {
			return fmt.Errorf("line %d: point mapping is empty", node.Line)
		}
		*p = Point{Vector: m}
	default:
		return fmt.Errorf("line %d: point must be a number or a mapping", node.Line)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (p Point) MarshalYAML() (any, error) {
	if p.IsVector() {
		return p.Vector, nil
	}
	return p.Scalar, nil
}

// MarshalJSON implements json.Marshaler.
func (p Point) MarshalJSON() ([]byte, error) {
	if p.IsVector() {
		return json.Marshal(p.Vector)
	}
	return json.Marshal(p.Scalar)
}
