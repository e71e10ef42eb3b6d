package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/dichotomy/pkg/version"
)

func TestVersionCmd_DefaultOutput(t *testing.T) {
	// Given: no flags
	out, err := execute(t, "version")

	// Then: build fields are listed one per line
	require.NoError(t, err)
	info := version.Get()
	for _, want := range []string{"version:", info.Version, "commit:", "go:", info.Platform} {
		assert.Contains(t, out, want)
	}
}

func TestVersionCmd_ShortOutput(t *testing.T) {
	out, err := execute(t, "version", "--short")

	require.NoError(t, err)
	assert.Equal(t, version.Get().Version, strings.TrimSpace(out))
}

func TestVersionCmd_JSONOutput(t *testing.T) {
	// When: asking for JSON
	out, err := execute(t, "version", "--json")

	// Then: the document decodes into version.Info
	require.NoError(t, err)
	var info version.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Get(), info)
}

func TestVersionCmd_RejectsArgs(t *testing.T) {
	_, err := execute(t, "version", "extra")
	assert.Error(t, err)
}
