package interrupt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	derrors "github.com/Aman-CERP/dichotomy/internal/errors"
)

const lockSuffix = ".lock"

// RunLock provides cross-process exclusivity for one run ID using gofrs/flock.
// The lock file is created at <dir>/<runID>.lock.
type RunLock struct {
	dir    string
	runID  string
	path   string
	flock  *flock.Flock
	locked bool
}

// NewRunLock creates an unlocked lock for runID in dir.
func NewRunLock(dir, runID string) *RunLock {
	lockPath := filepath.Join(dir, runID+lockSuffix)
	return &RunLock{
		dir:   dir,
		runID: runID,
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// Acquire takes the lock without blocking and records the current PID.
// It fails with ERR_304_RUN_LOCKED when another process holds the run.
func (l *RunLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return derrors.New(derrors.ErrCodeRunLocked,
			fmt.Sprintf("run %s is already active", l.runID), nil).
			WithDetail("lock", l.path).
			WithSuggestion("Pick another --run-id or stop the active run with 'dichotomy stop " + l.runID + "'")
	}
	l.locked = true

	if err := recordPID(l.dir, l.runID); err != nil {
		_ = l.Release()
		return err
	}
	return nil
}

// Release removes the PID record and frees the lock.
// It's safe to call Release multiple times or on an unlocked RunLock.
func (l *RunLock) Release() error {
	if !l.locked {
		return nil
	}
	clearPID(l.dir, l.runID)
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	// The lock file is left behind: removing it would race a new holder.
	return nil
}

// Path returns the path to the lock file.
func (l *RunLock) Path() string {
	return l.path
}

// IsLocked returns true if this RunLock holds the lock.
func (l *RunLock) IsLocked() bool {
	return l.locked
}

// IsActive reports whether some process currently holds the lock of runID.
func IsActive(dir, runID string) bool {
	path := filepath.Join(dir, runID+lockSuffix)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	probe := flock.New(path)
	acquired, err := probe.TryLock()
	if err != nil {
		return false
	}
	if acquired {
		_ = probe.Unlock()
		return false
	}
	return true
}

// ActiveRun describes a run found in the run directory.
type ActiveRun struct {
	RunID string `json:"run_id"`
	PID   int    `json:"pid,omitempty"`
}

// ActiveRuns lists the runs currently holding their lock in dir.
func ActiveRuns(dir string) ([]ActiveRun, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list run directory: %w", err)
	}
	var runs []ActiveRun
	for _, e := range entries {
		runID, ok := strings.CutSuffix(e.Name(), lockSuffix)
		if !ok || e.IsDir() || !IsActive(dir, runID) {
			continue
		}
		pid, err := RunPID(dir, runID)
		if err != nil || !Alive(pid) {
			// Locked but not yet (or no longer) recorded.
			pid = 0
		}
		runs = append(runs, ActiveRun{RunID: runID, PID: pid})
	}
	return runs, nil
}
