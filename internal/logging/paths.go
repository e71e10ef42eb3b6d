package logging

import (
	"os"
	"path/filepath"

	derrors "github.com/Aman-CERP/dichotomy/internal/errors"
)

const logName = "dichotomy.log"

// DefaultLogPath is ~/.dichotomy/logs/dichotomy.log, or the same path under
// the temp directory when there is no home.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".dichotomy", "logs", logName)
}

// FindLogFile resolves the file read by `dichotomy logs`: explicit when
// given, else the default debug log. Either must exist.
func FindLogFile(explicit string) (string, error) {
	path := explicit
	if path == "" {
		path = DefaultLogPath()
	}
	if _, err := os.Stat(path); err != nil {
		e := derrors.New(derrors.ErrCodeFileNotFound, "log file not found: "+path, err)
		if explicit == "" {
			e = e.WithSuggestion("Logs are written with --debug or logging.file; run a search with --debug first")
		}
		return "", e
	}
	return path, nil
}
