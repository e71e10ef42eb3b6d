package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	derrors "github.com/Aman-CERP/dichotomy/internal/errors"
	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

// HistoryEntry is a finished run as stored in the history database.
type HistoryEntry struct {
	dichotomy.Summary
	FinishedAt time.Time `json:"finished_at"`
}

// HistoryStore persists run summaries in SQLite.
type HistoryStore struct {
	db    *sql.DB
	path  string
	retry derrors.Backoff
}

// OpenHistory opens (or creates) the history database at path.
// A corrupted database is removed and recreated empty.
func OpenHistory(path string, logger *slog.Logger) (*HistoryStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, derrors.New(derrors.ErrCodeFilePermission,
			fmt.Sprintf("failed to create history directory: %v", err), err)
	}

	if validErr := checkIntegrity(path); validErr != nil {
		logger.Warn("history_database_corrupted",
			slog.String("path", path),
			slog.String("error", validErr.Error()))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, derrors.New(derrors.ErrCodeHistoryCorrupt,
				fmt.Sprintf("history database corrupted at %s and cannot be removed: %v", path, err), validErr).
				WithSuggestion("Delete the history database manually")
		}
		_ = os.Remove(path + "-wal")
		_ = os.Remove(path + "-shm")
		logger.Info("history_database_cleared", slog.String("path", path))
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, derrors.Wrap(derrors.ErrCodeInternal, fmt.Errorf("failed to open history database: %w", err))
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// modernc ignores most DSN parameters.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, classifyDBError(fmt.Errorf("failed to set pragma: %w", err))
		}
	}

	s := NewHistoryStore(db)
	s.path = path
	if err := InitHistorySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewHistoryStore wraps an open database whose schema is already initialized.
// The driver is up to the caller.
func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db, retry: derrors.SQLiteBackoff()}
}

// InitHistorySchema creates the history tables if they do not exist.
func InitHistorySchema(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		strategy TEXT NOT NULL,
		termination TEXT NOT NULL,
		limiting_cause TEXT NOT NULL DEFAULT '',
		limiting_message TEXT NOT NULL DEFAULT '',
		highest_valid TEXT NOT NULL DEFAULT '',
		lowest_invalid TEXT NOT NULL DEFAULT '',
		interrupted INTEGER NOT NULL DEFAULT 0,
		fatal INTEGER NOT NULL DEFAULT 0,
		fatal_message TEXT NOT NULL DEFAULT '',
		probes INTEGER NOT NULL DEFAULT 0,
		duration_ns INTEGER NOT NULL DEFAULT 0,
		steps TEXT NOT NULL DEFAULT '[]',
		finished_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_finished ON runs(finished_at);
	`)
	if err != nil {
		return classifyDBError(fmt.Errorf("failed to initialize history schema: %w", err))
	}
	return nil
}

// Path returns the database file path, empty for stores built with NewHistoryStore.
func (s *HistoryStore) Path() string { return s.path }

// SaveRun stores the summary of a finished run, replacing a previous run with the same ID.
func (s *HistoryStore) SaveRun(ctx context.Context, summary dichotomy.Summary, finishedAt time.Time) error {
	steps, err := json.Marshal(summary.Steps)
	if err != nil {
		return derrors.Wrap(derrors.ErrCodeInternal, err)
	}
	return s.retry.Do(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (run_id, strategy, termination, limiting_cause, limiting_message,
			highest_valid, lowest_invalid, interrupted, fatal, fatal_message, probes, duration_ns, steps, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			summary.RunID, summary.Strategy, string(summary.Termination), string(summary.Cause), summary.Message,
			summary.HighestValid, summary.LowestInvalid, summary.Interrupted, summary.Fatal, summary.FatalMessage,
			summary.Probes, int64(summary.Duration), string(steps), finishedAt.UnixNano())
		if err != nil {
			return classifyDBError(fmt.Errorf("failed to save run %s: %w", summary.RunID, err))
		}
		return nil
	})
}

const runColumns = `run_id, strategy, termination, limiting_cause, limiting_message, highest_valid,
	lowest_invalid, interrupted, fatal, fatal_message, probes, duration_ns, steps, finished_at`

// ListRuns returns up to limit runs, most recently finished first.
// Steps are not loaded.
func (s *HistoryStore) ListRuns(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY finished_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, classifyDBError(fmt.Errorf("failed to list runs: %w", err))
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		e, err := scanRun(rows, false)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyDBError(err)
	}
	return entries, nil
}

// GetRun returns one run with its steps.
func (s *HistoryStore) GetRun(ctx context.Context, runID string) (HistoryEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	e, err := scanRun(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return HistoryEntry{}, derrors.New(derrors.ErrCodeRunNotFound,
			fmt.Sprintf("run %s not found in history", runID), nil).
			WithSuggestion("Run 'dichotomy history' to list recorded runs")
	}
	return e, err
}

// Prune deletes all but the keep most recent runs and returns how many were removed.
func (s *HistoryStore) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	var removed int64
	err := s.retry.Do(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return classifyDBError(err)
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(ctx, `
		DELETE FROM runs WHERE run_id NOT IN (
			SELECT run_id FROM runs ORDER BY finished_at DESC, run_id LIMIT ?
		)`, keep)
		if err != nil {
			return classifyDBError(fmt.Errorf("failed to prune history: %w", err))
		}
		if removed, err = res.RowsAffected(); err != nil {
			return classifyDBError(err)
		}
		return classifyDBError(tx.Commit())
	})
	return removed, err
}

// Close closes the database.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner, withSteps bool) (HistoryEntry, error) {
	var (
		e                    HistoryEntry
		termination, cause   string
		durationNS, finished int64
		steps                string
	)
	err := row.Scan(&e.RunID, &e.Strategy, &termination, &cause, &e.Message, &e.HighestValid,
		&e.LowestInvalid, &e.Interrupted, &e.Fatal, &e.FatalMessage, &e.Probes, &durationNS, &steps, &finished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, classifyDBError(fmt.Errorf("failed to read run: %w", err))
	}
	e.Termination = dichotomy.Termination(termination)
	e.Cause = dichotomy.LimitingCause(cause)
	e.Duration = time.Duration(durationNS)
	e.FinishedAt = time.Unix(0, finished)
	if withSteps {
		if err := json.Unmarshal([]byte(steps), &e.Steps); err != nil {
			return e, derrors.New(derrors.ErrCodeHistoryCorrupt,
				fmt.Sprintf("run %s has unreadable steps: %v", e.RunID, err), err)
		}
	}
	return e, nil
}

// classifyDBError maps lock contention to a retryable history error.
func classifyDBError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") {
		return derrors.New(derrors.ErrCodeHistoryBusy, msg, err).
			WithSuggestion("Another run is writing history; retry shortly")
	}
	return derrors.New(derrors.ErrCodeInternal, msg, err)
}

// checkIntegrity reports whether an existing database at path is usable.
func checkIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// HistoryObserver saves each finished run to a HistoryStore.
type HistoryObserver struct {
	dichotomy.NopObserver

	store  *HistoryStore
	keep   int
	logger *slog.Logger
	now    func() time.Time
}

var _ dichotomy.Observer = (*HistoryObserver)(nil)

// NewHistoryObserver returns an observer saving to store and keeping the keep
// most recent runs. keep <= 0 disables pruning.
func NewHistoryObserver(store *HistoryStore, keep int, logger *slog.Logger) *HistoryObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryObserver{store: store, keep: keep, logger: logger, now: time.Now}
}

// RunFinished implements dichotomy.Observer. Failures are logged, never returned:
// history must not change the outcome of a search.
func (h *HistoryObserver) RunFinished(ctx context.Context, s dichotomy.Summary) {
	// The run context may already be cancelled by an interruption.
	ctx = context.WithoutCancel(ctx)
	if err := h.store.SaveRun(ctx, s, h.now()); err != nil {
		attrs := append([]any{slog.String("run_id", s.RunID)}, derrors.FormatForLog(err)...)
		h.logger.Warn("history_save_failed", attrs...)
		return
	}
	if h.keep > 0 {
		if n, err := h.store.Prune(ctx, h.keep); err != nil {
			h.logger.Warn("history_prune_failed", slog.String("error", err.Error()))
		} else if n > 0 {
			h.logger.Debug("history_pruned", slog.Int64("removed", n))
		}
	}
}
