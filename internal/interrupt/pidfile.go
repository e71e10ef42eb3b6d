package interrupt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

const pidSuffix = ".pid"

// ErrNoProcess is returned when no process has recorded itself for a run.
var ErrNoProcess = errors.New("no process recorded for run")

func pidPath(dir, runID string) string {
	return filepath.Join(dir, runID+pidSuffix)
}

// recordPID stores the current PID for runID. The file is renamed into
// place so readers never see a partial number.
func recordPID(dir, runID string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, runID+".pid-*")
	if err != nil {
		return fmt.Errorf("failed to record PID: %w", err)
	}
	_, werr := tmp.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to record PID: %w", err)
	}
	if err := os.Rename(tmp.Name(), pidPath(dir, runID)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to record PID: %w", err)
	}
	return nil
}

func clearPID(dir, runID string) {
	_ = os.Remove(pidPath(dir, runID))
}

// RunPID returns the PID recorded for runID.
func RunPID(dir, runID string) (int, error) {
	data, err := os.ReadFile(pidPath(dir, runID))
	if errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("run %s: %w", runID, ErrNoProcess)
	}
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("run %s: malformed PID record %q", runID, strings.TrimSpace(string(data)))
	}
	return pid, nil
}

// Alive reports whether pid names a live process. Signal 0 checks
// existence without delivering anything.
func Alive(pid int) bool {
	return pid > 0 && syscall.Kill(pid, 0) == nil
}

// SignalRun delivers sig to the process recorded for runID.
func SignalRun(dir, runID string, sig syscall.Signal) error {
	pid, err := RunPID(dir, runID)
	if err != nil {
		return err
	}
	if err := syscall.Kill(pid, sig); err != nil {
		return fmt.Errorf("signal %v to pid %d: %w", sig, pid, err)
	}
	return nil
}
