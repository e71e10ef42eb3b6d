package logging

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	derrors "github.com/Aman-CERP/dichotomy/internal/errors"
)

func TestDefaultLogPath(t *testing.T) {
	path := DefaultLogPath()
	if !strings.Contains(path, ".dichotomy") || !strings.Contains(path, "logs") {
		t.Errorf("DefaultLogPath should live under .dichotomy/logs, got: %s", path)
	}
	if filepath.Base(path) != "dichotomy.log" {
		t.Errorf("DefaultLogPath should end with dichotomy.log, got: %s", path)
	}
}

func TestDebugSink(t *testing.T) {
	s := DebugSink()
	if s.Level != slog.LevelDebug || s.File != DefaultLogPath() || s.Tee != nil {
		t.Errorf("unexpected debug sink: %+v", s)
	}
}

func TestOpen_File(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "test.log")
	var tee bytes.Buffer

	logger, closeLog, err := Open(Sink{Level: slog.LevelDebug, File: logPath, MaxSizeMB: 1, MaxFiles: 3, Tee: &tee})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	logger.Debug("probe recorded", "run_id", "r1", "value", "250")
	closeLog()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file was not created: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"probe recorded"`) || !strings.Contains(string(data), `"run_id":"r1"`) {
		t.Errorf("expected JSON record, got: %s", data)
	}
	if tee.String() != string(data) {
		t.Errorf("tee should receive the same records:\n%s", tee.String())
	}
}

func TestOpen_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, closeLog, err := Open(Sink{Level: slog.LevelWarn, Tee: &buf})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer closeLog()

	logger.Info("hidden")
	logger.Warn("export failed", "run_id", "r1")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "level=WARN msg=\"export failed\" run_id=r1") {
		t.Errorf("unexpected console output: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.input)
		if err != nil || got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", tc.input, got, err, tc.want)
		}
	}
	if _, err := ParseLevel("trace"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestFindLogFile(t *testing.T) {
	_, err := FindLogFile("/nonexistent/path/to/log.log")
	if derrors.GetCode(err) != derrors.ErrCodeFileNotFound {
		t.Errorf("expected %s, got %v", derrors.ErrCodeFileNotFound, err)
	}

	logPath := filepath.Join(t.TempDir(), "test.log")
	if err := os.WriteFile(logPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	found, err := FindLogFile(logPath)
	if err != nil || found != logPath {
		t.Errorf("FindLogFile(%s) = %s, %v", logPath, found, err)
	}
}

func TestRotatingWriter_Rotation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "dichotomy.log")
	w, err := NewRotatingWriter(logPath, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = w.Close() }()
	w.SetSyncEach(false)

	chunk := bytes.Repeat([]byte("x"), 600*1024)
	for i := 0; i < 5; i++ {
		if _, err := w.Write(chunk); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	for _, name := range []string{"dichotomy.log", "dichotomy.log.1", "dichotomy.log.2"} {
		if _, err := os.Stat(filepath.Join(filepath.Dir(logPath), name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
	if _, err := os.Stat(logPath + ".3"); !os.IsNotExist(err) {
		t.Error("expected at most 2 rotated files")
	}
}

func TestRotatingWriter_ConcurrentWrites(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "dichotomy.log")
	w, err := NewRotatingWriter(logPath, 1, 3)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, _ = fmt.Fprintf(w, "writer %d line %d\n", i, j)
			}
		}(i)
	}
	wg.Wait()
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "\n"); got != 200 {
		t.Errorf("expected 200 lines, got %d", got)
	}
}

const sampleLog = `{"time":"2026-01-02T10:00:00.000Z","level":"INFO","msg":"search started","run_id":"aaaaaaaa-1111"}
{"time":"2026-01-02T10:00:01.000Z","level":"DEBUG","msg":"probe recorded","run_id":"aaaaaaaa-1111","value":"250"}
not json at all
{"time":"2026-01-02T10:00:02.000Z","level":"WARN","msg":"max iterations reached","run_id":"bbbbbbbb-2222"}
{"time":"2026-01-02T10:00:03.000Z","level":"ERROR","msg":"search aborted","run_id":"aaaaaaaa-1111"}
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dichotomy.log")
	if err := os.WriteFile(path, []byte(sampleLog), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestViewer_Tail(t *testing.T) {
	path := writeSample(t)

	entries, err := NewViewer(ViewerConfig{}, &bytes.Buffer{}).Tail(path, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected last 3 lines, got %d", len(entries))
	}
	if entries[0].IsValid {
		t.Error("expected the raw line to be kept unparsed")
	}
	if entries[2].Msg != "search aborted" {
		t.Errorf("unexpected last entry: %+v", entries[2])
	}
}

func TestViewer_Filters(t *testing.T) {
	path := writeSample(t)

	tests := []struct {
		name string
		cfg  ViewerConfig
		want []string
	}{
		{"level", ViewerConfig{Level: "warn"}, []string{"max iterations reached", "search aborted"}},
		{"run id", ViewerConfig{RunID: "aaaaaaaa-1111"}, []string{"search started", "probe recorded", "search aborted"}},
		{"pattern", ViewerConfig{Pattern: regexp.MustCompile(`probe`)}, []string{"probe recorded"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := NewViewer(tt.cfg, &bytes.Buffer{}).Tail(path, 100)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, e := range entries {
				got = append(got, e.Msg)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestViewer_FormatEntry(t *testing.T) {
	var out bytes.Buffer
	v := NewViewer(ViewerConfig{NoColor: true}, &out)
	entry := v.parseLine(`{"time":"2026-01-02T10:00:01.5Z","level":"DEBUG","msg":"probe recorded","run_id":"aaaaaaaa-1111","value":"250","iteration":3}`)

	got := v.FormatEntry(entry)

	want := "10:00:01.500 DEBUG [aaaaaaaa] probe recorded iteration=3 value=250"
	if got != want {
		t.Errorf("FormatEntry = %q, want %q", got, want)
	}

	v.Print([]LogEntry{entry, {Raw: "garbage"}})
	if !strings.HasSuffix(out.String(), "garbage\n") {
		t.Errorf("raw lines should print unchanged, got %q", out.String())
	}
}

func TestViewer_Follow(t *testing.T) {
	path := writeSample(t)
	v := NewViewer(ViewerConfig{Level: "info"}, &bytes.Buffer{})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	entries := make(chan LogEntry, 4)
	done := make(chan error, 1)
	go func() { done <- v.Follow(ctx, path, entries) }()

	time.Sleep(150 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString(`{"time":"2026-01-02T10:00:04Z","level":"DEBUG","msg":"skipped"}` + "\n")
	_, _ = f.WriteString(`{"time":"2026-01-02T10:00:05Z","level":"INFO","msg":"search finished"}` + "\n")
	_ = f.Close()

	select {
	case e := <-entries:
		if e.Msg != "search finished" {
			t.Errorf("unexpected entry %q", e.Msg)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for followed entry")
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Follow returned %v", err)
	}
}
