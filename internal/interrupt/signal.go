package interrupt

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

const stopSuffix = ".stop"

// DefaultPollInterval is used when fsnotify is unavailable.
const DefaultPollInterval = 500 * time.Millisecond

// FileSignal reports stop requests written as <dir>/<runID>.stop.
//
// It watches dir with fsnotify and falls back to polling when a watcher cannot
// be created. ShouldStop never touches the filesystem in the fsnotify mode.
type FileSignal struct {
	dir          string
	pollInterval time.Duration
	logger       *slog.Logger

	mu        sync.RWMutex
	requested map[string]bool

	fsWatcher   *fsnotify.Watcher
	useFsnotify bool
	stopCh      chan struct{}
	stopOnce    sync.Once
	done        chan struct{}
}

var _ dichotomy.InterruptionSignal = (*FileSignal)(nil)

// SignalOption configures a FileSignal.
type SignalOption func(*FileSignal)

// WithPollInterval sets the polling period of the fallback mode.
func WithPollInterval(d time.Duration) SignalOption {
	return func(s *FileSignal) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithSignalLogger sets the logger for watcher errors.
func WithSignalLogger(logger *slog.Logger) SignalOption {
	return func(s *FileSignal) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// withPolling forces the polling mode. Used by tests.
func withPolling() SignalOption {
	return func(s *FileSignal) {
		s.useFsnotify = false
	}
}

// NewFileSignal creates dir if needed and records stop files already present.
// Call Start to follow new requests and Close to release the watcher.
func NewFileSignal(dir string, opts ...SignalOption) (*FileSignal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	s := &FileSignal{
		dir:          dir,
		pollInterval: DefaultPollInterval,
		logger:       slog.New(slog.DiscardHandler),
		requested:    make(map[string]bool),
		useFsnotify:  true,
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.useFsnotify {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			err = fsw.Add(dir)
			if err != nil {
				_ = fsw.Close()
			}
		}
		if err != nil {
			s.logger.Warn("fsnotify unavailable, polling for stop requests", "dir", dir, "error", err)
			s.useFsnotify = false
		} else {
			s.fsWatcher = fsw
		}
	}

	s.scan()
	return s, nil
}

// Start follows stop requests in the background until ctx is done or Close is called.
func (s *FileSignal) Start(ctx context.Context) {
	go func() {
		defer close(s.done)
		if s.useFsnotify {
			s.watch(ctx)
		} else {
			s.poll(ctx)
		}
	}()
}

// ShouldStop implements dichotomy.InterruptionSignal.
func (s *FileSignal) ShouldStop(_ context.Context, runID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.requested[runID]
}

// UsesFsnotify reports whether the signal is event driven.
func (s *FileSignal) UsesFsnotify() bool { return s.useFsnotify }

// Close stops following requests and waits for the background goroutine if
// Start was called.
func (s *FileSignal) Close() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.fsWatcher != nil {
			err = s.fsWatcher.Close()
		}
	})
	return err
}

// Wait blocks until the goroutine started by Start has returned.
func (s *FileSignal) Wait() { <-s.done }

func (s *FileSignal) watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case event, ok := <-s.fsWatcher.Events:
			if !ok {
				return
			}
			s.handleEvent(event)
		case err, ok := <-s.fsWatcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("stop request watcher error", "dir", s.dir, "error", err)
		}
	}
}

func (s *FileSignal) handleEvent(event fsnotify.Event) {
	runID, ok := strings.CutSuffix(filepath.Base(event.Name), stopSuffix)
	if !ok {
		return
	}
	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		s.set(runID, true)
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		s.set(runID, false)
	}
}

func (s *FileSignal) poll(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.scan()
		}
	}
}

// scan replaces the request set with the stop files present in dir.
func (s *FileSignal) scan() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("failed to scan run directory", "dir", s.dir, "error", err)
		return
	}
	found := make(map[string]bool)
	for _, e := range entries {
		if runID, ok := strings.CutSuffix(e.Name(), stopSuffix); ok && !e.IsDir() {
			found[runID] = true
		}
	}
	s.mu.Lock()
	s.requested = found
	s.mu.Unlock()
}

func (s *FileSignal) set(runID string, stop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stop {
		s.requested[runID] = true
	} else {
		delete(s.requested, runID)
	}
}

// RequestStop asks the run runID to stop by writing its stop file in dir.
func RequestStop(dir, runID string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}
	content := time.Now().UTC().Format(time.RFC3339) + "\n"
	if err := os.WriteFile(StopPath(dir, runID), []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write stop request: %w", err)
	}
	return nil
}

// ClearStop removes a pending stop request. Missing files are not an error.
func ClearStop(dir, runID string) error {
	err := os.Remove(StopPath(dir, runID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear stop request: %w", err)
	}
	return nil
}

// StopPath returns the stop file of runID in dir.
func StopPath(dir, runID string) string {
	return filepath.Join(dir, runID+stopSuffix)
}
