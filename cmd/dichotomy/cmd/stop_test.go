package cmd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/dichotomy/internal/config"
	derrors "github.com/Aman-CERP/dichotomy/internal/errors"
	"github.com/Aman-CERP/dichotomy/internal/interrupt"
)

func TestStopCmd_ListsNoRuns(t *testing.T) {
	isolate(t)

	out, err := execute(t, "stop")

	require.NoError(t, err)
	assert.Contains(t, out, "No active runs")
}

func TestStopCmd_ListsActiveRuns(t *testing.T) {
	// Given: a run holding its lock
	isolate(t)
	dir := config.NewConfig().Interrupt.Dir
	lock := interrupt.NewRunLock(dir, "busy")
	require.NoError(t, lock.Acquire())
	defer lock.Release()

	// When: listing
	out, err := execute(t, "stop")

	// Then: the run and its process are shown
	require.NoError(t, err)
	assert.Contains(t, out, "Active runs (1)")
	assert.Contains(t, out, "busy (pid")
}

func TestStopCmd_RequestsStop(t *testing.T) {
	// Given: an active run
	isolate(t)
	dir := config.NewConfig().Interrupt.Dir
	lock := interrupt.NewRunLock(dir, "busy")
	require.NoError(t, lock.Acquire())
	defer lock.Release()

	// When: stopping it
	out, err := execute(t, "stop", "busy")

	// Then: its stop file is written
	require.NoError(t, err)
	assert.Contains(t, out, "Stop requested for run busy")
	_, statErr := os.Stat(interrupt.StopPath(dir, "busy"))
	assert.NoError(t, statErr)
}

func TestStopCmd_UnknownRun(t *testing.T) {
	isolate(t)

	_, err := execute(t, "stop", "nobody")

	require.Error(t, err)
	assert.Equal(t, derrors.ErrCodeRunNotFound, derrors.GetCode(err))
}

func TestStopCmd_InvalidRunID(t *testing.T) {
	isolate(t)

	_, err := execute(t, "stop", "../etc")

	require.Error(t, err)
	assert.Equal(t, derrors.ErrCodeInvalidRunID, derrors.GetCode(err))
}
