package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/dichotomy/internal/config"
)

// isolate points HOME and the working directory at a fresh temp directory so
// configs, history and run files stay inside the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Setenv("NO_COLOR", "1")
	t.Chdir(dir)
	return dir
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeConfig writes the default configuration, changed by edit, to name.
func writeConfig(t *testing.T, dir, name string, edit func(*config.Config)) string {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Search.Precision = 200
	cfg.Search.MaxIterations = 20
	if edit != nil {
		edit(cfg)
	}
	path := filepath.Join(dir, name)
	require.NoError(t, cfg.WriteYAML(path))
	return path
}
