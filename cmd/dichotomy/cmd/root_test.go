package cmd

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "github.com/Aman-CERP/dichotomy/internal/errors"
)

func TestRootCmd_ShowsHelp(t *testing.T) {
	// Given: a root command

	// When: executing with --help
	out, err := execute(t, "--help")

	// Then: it should show usage information
	require.NoError(t, err)
	assert.Contains(t, out, "dichotomy")
	assert.Contains(t, out, "Available Commands")
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	// Given: the root command
	root := NewRootCmd()

	// When/Then: every command is registered
	for _, name := range []string{"run", "stop", "history", "config", "logs", "version"} {
		sub, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	root := NewRootCmd()

	debug := root.PersistentFlags().Lookup("debug")
	require.NotNil(t, debug)
	assert.Equal(t, "false", debug.DefValue)

	cfg := root.PersistentFlags().Lookup("config")
	require.NotNil(t, cfg)
	assert.Equal(t, "c", cfg.Shorthand)
}

func TestRootCmd_Version(t *testing.T) {
	out, err := execute(t, "--version")

	require.NoError(t, err)
	assert.Contains(t, out, "dichotomy version")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitOK},
		{"plain error", errors.New("boom"), ExitError},
		{"config error", derrors.ConfigError("bad", nil), ExitError},
		{"fatal evaluation", derrors.New(derrors.ErrCodeEvaluationFatal, "crashed", nil), ExitFatal},
		{"interrupted", derrors.New(derrors.ErrCodeInterrupted, "stopped", nil), ExitInterrupted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestRootCmd_ProfilesCommand(t *testing.T) {
	// Given: a CPU and memory profile request
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.prof")
	mem := filepath.Join(dir, "mem.prof")

	// When: running a command
	_, err := execute(t, "version", "--profile-cpu", cpu, "--profile-mem", mem)

	// Then: both profiles are written
	require.NoError(t, err)
	assert.FileExists(t, cpu)
	assert.FileExists(t, mem)
}
