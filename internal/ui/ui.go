// Package ui renders search progress and results in the terminal.
package ui

import (
	"context"
	"io"
	"os"
	"slices"

	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

// Phase is the lifecycle position of a rendered search.
type Phase int

const (
	PhaseStarting Phase = iota
	PhaseSearching
	PhaseComplete
)

var phaseNames = [...][2]string{
	PhaseStarting:  {"Starting", "START"},
	PhaseSearching: {"Searching", "PROBE"},
	PhaseComplete:  {"Complete", "DONE"},
}

func (p Phase) names() [2]string {
	if p < 0 || int(p) >= len(phaseNames) {
		return [2]string{"Unknown", "???"}
	}
	return phaseNames[p]
}

// String returns the name shown in the TUI header.
func (p Phase) String() string { return p.names()[0] }

// Icon returns the tag that prefixes plain output lines.
func (p Phase) Icon() string { return p.names()[1] }

// ErrorEvent is a problem reported next to the search, such as a failed export.
type ErrorEvent struct {
	Source string
	Err    error
	IsWarn bool
}

// Renderer displays a search as it runs. It receives engine events as a
// dichotomy.Observer.
type Renderer interface {
	dichotomy.Observer

	// Start initializes the renderer.
	Start(ctx context.Context) error

	// AddError adds an error to display.
	AddError(event ErrorEvent)

	// Stop stops the renderer and cleans up.
	Stop() error
}

// Config configures the UI renderer.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
	// Title names the scenario in the header.
	Title string
	// OnInterrupt runs when the user presses ctrl+c in the TUI.
	OnInterrupt func()
}

// ConfigOption sets one field of Config.
type ConfigOption func(*Config)

func WithForcePlain(force bool) ConfigOption { return func(c *Config) { c.ForcePlain = force } }

func WithNoColor(noColor bool) ConfigOption { return func(c *Config) { c.NoColor = noColor } }

func WithTitle(title string) ConfigOption { return func(c *Config) { c.Title = title } }

func WithInterruptHandler(fn func()) ConfigOption { return func(c *Config) { c.OnInterrupt = fn } }

// NewConfig returns the Config for output with opts applied.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: output}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewRenderer picks the TUI on an interactive terminal and plain lines for
// pipes, CI and --plain. A TUI that cannot start falls back to plain.
func NewRenderer(cfg Config) Renderer {
	if !cfg.ForcePlain && IsTTY(cfg.Output) && !DetectCI() {
		if tui, err := NewTUIRenderer(cfg); err == nil {
			return tui
		}
	}
	return NewPlainRenderer(cfg)
}

// IsTTY reports whether w is a terminal, including Cygwin ptys.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && f != nil && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// DetectNoColor reports whether NO_COLOR is set, whatever its value.
func DetectNoColor() bool {
	_, set := os.LookupEnv("NO_COLOR")
	return set
}

var ciVariables = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS", "BUILDKITE"}

// DetectCI reports whether a CI environment variable is set.
func DetectCI() bool {
	return slices.ContainsFunc(ciVariables, func(v string) bool {
		_, set := os.LookupEnv(v)
		return set
	})
}
