package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Sink describes where a logger writes.
type Sink struct {
	Level slog.Level
	// File is the JSON log file. Empty logs text to Tee, or stderr.
	File      string
	MaxSizeMB int
	MaxFiles  int
	// Tee additionally receives every record written to File.
	Tee io.Writer
}

// DebugSink is the sink of --debug: every record at debug level, in the
// default log file only, so the terminal stays with the renderer.
func DebugSink() Sink {
	return Sink{Level: slog.LevelDebug, File: DefaultLogPath(), MaxSizeMB: 10, MaxFiles: 5}
}

// Open builds the logger of s. The returned func flushes and closes the file.
func Open(s Sink) (*slog.Logger, func(), error) {
	if s.File == "" {
		w := s.Tee
		if w == nil {
			w = os.Stderr
		}
		return Console(w, s.Level), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := NewRotatingWriter(s.File, s.MaxSizeMB, s.MaxFiles)
	if err != nil {
		return nil, nil, err
	}
	var w io.Writer = file
	if s.Tee != nil {
		w = io.MultiWriter(file, s.Tee)
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: s.Level}))
	return logger, func() {
		_ = file.Sync()
		_ = file.Close()
	}, nil
}

// Console returns a text logger on w.
func Console(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// ParseLevel maps a level name to slog.Level. Besides slog's own names it
// accepts "warning".
func ParseLevel(name string) (slog.Level, error) {
	if strings.EqualFold(name, "warning") {
		return slog.LevelWarn, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
	return l, nil
}
