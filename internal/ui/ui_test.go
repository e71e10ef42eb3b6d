package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhase_StringAndIcon(t *testing.T) {
	tests := []struct {
		phase Phase
		name  string
		icon  string
	}{
		{PhaseStarting, "Starting", "START"},
		{PhaseSearching, "Searching", "PROBE"},
		{PhaseComplete, "Complete", "DONE"},
		{Phase(42), "Unknown", "???"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.phase.String())
			assert.Equal(t, tt.icon, tt.phase.Icon())
		})
	}
}

func TestNewConfig_AppliesOptions(t *testing.T) {
	called := false
	cfg := NewConfig(&bytes.Buffer{},
		WithForcePlain(true),
		WithNoColor(true),
		WithTitle("grid"),
		WithInterruptHandler(func() { called = true }))

	assert.True(t, cfg.ForcePlain)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, "grid", cfg.Title)
	cfg.OnInterrupt()
	assert.True(t, called)
}

func TestNewRenderer_NonTTYIsPlain(t *testing.T) {
	// Given: a buffer, which is never a terminal
	cfg := NewConfig(&bytes.Buffer{})

	// When: creating a renderer
	r := NewRenderer(cfg)

	// Then: the plain renderer is used
	assert.IsType(t, &PlainRenderer{}, r)
	assert.False(t, IsTTY(&bytes.Buffer{}))
	assert.False(t, IsTTY(nil))
}

func TestDetectCI(t *testing.T) {
	for _, v := range ciVariables {
		t.Setenv(v, "")
	}
	// t.Setenv cannot unset, so only the positive case is portable.
	assert.True(t, DetectCI())
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectNoColor())
}

func TestGetStyles(t *testing.T) {
	plain := GetStyles(true)
	assert.Equal(t, "x", plain.Valid.Render("x"))
	assert.Equal(t, plain.Invalid, plain.Verdict(false, false))

	styled := GetStyles(false)
	assert.Equal(t, styled.Failed, styled.Verdict(false, true))
	assert.Equal(t, styled.Valid, styled.Verdict(true, false))
}
