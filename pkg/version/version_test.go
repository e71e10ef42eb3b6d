package version

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildInfo(main string, settings ...debug.BuildSetting) func() (*debug.BuildInfo, bool) {
	return func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			GoVersion: "go1.25.5",
			Main:      debug.Module{Path: "github.com/Aman-CERP/dichotomy", Version: main},
			Settings:  settings,
		}, true
	}
}

func TestResolve_StampedValuesWin(t *testing.T) {
	// Given: ldflags stamped every field
	read := buildInfo("v9.9.9",
		debug.BuildSetting{Key: "vcs.revision", Value: "ffffffffffffffffffff"},
		debug.BuildSetting{Key: "vcs.time", Value: "2020-01-01T00:00:00Z"})

	// When: resolving
	info := resolve("1.2.0", "abc1234", "2026-10-19T00:00:00Z", read)

	// Then: the embedded info does not override them
	assert.Equal(t, "1.2.0", info.Version)
	assert.Equal(t, "abc1234", info.Commit)
	assert.Equal(t, "2026-10-19T00:00:00Z", info.Date)
	assert.Equal(t, "go1.25.5", info.GoVersion)
}

func TestResolve_FallsBackToVCS(t *testing.T) {
	// Given: an unstamped build from a dirty checkout
	read := buildInfo("(devel)",
		debug.BuildSetting{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		debug.BuildSetting{Key: "vcs.time", Value: "2026-10-18T12:00:00Z"},
		debug.BuildSetting{Key: "vcs.modified", Value: "true"})

	// When: resolving with default variables
	info := resolve("dev", unknown, unknown, read)

	// Then: commit and date come from VCS, version stays dev
	assert.Equal(t, "dev", info.Version)
	assert.Equal(t, "0123456789ab", info.Commit)
	assert.Equal(t, "2026-10-18T12:00:00Z", info.Date)
	assert.True(t, info.Modified)
	assert.Contains(t, info.String(), "0123456789ab+dirty")
}

func TestResolve_ModuleVersionFromInstall(t *testing.T) {
	info := resolve("dev", unknown, unknown, buildInfo("v0.3.1"))
	assert.Equal(t, "v0.3.1", info.Version)
	assert.Equal(t, unknown, info.Commit)
}

func TestResolve_NoBuildInfo(t *testing.T) {
	info := resolve("dev", unknown, unknown, func() (*debug.BuildInfo, bool) { return nil, false })

	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.Equal(t, "dichotomy dev (unknown, unknown, "+runtime.Version()+" "+info.Platform+")", info.String())
}

func TestGet_IsStable(t *testing.T) {
	assert.Equal(t, Get(), Get())
	assert.NotEmpty(t, Get().Version)
}
