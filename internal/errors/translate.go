package errors

import (
	"context"
	"errors"
	"io/fs"

	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

// translation maps a search library sentinel to an application code and hint.
type translation struct {
	sentinel   error
	code       string
	suggestion string
}

var translations = []translation{
	{dichotomy.ErrInvalidRange, ErrCodeInvalidRange, "Make search.min lower than or equal to search.max"},
	{dichotomy.ErrKeyMismatch, ErrCodeKeyMismatch, "Use the same keys in search.min, search.max, search.start and search.reference"},
	{dichotomy.ErrConfiguration, ErrCodeConfigInvalid, "Run 'dichotomy config show' to inspect the effective configuration"},
	{dichotomy.ErrInvariantViolation, ErrCodeInvariant, "The evaluation is not monotonic in the search variable; check the scenario model"},
	{dichotomy.ErrPreconditionViolation, ErrCodePrecondition, ""},
	{dichotomy.ErrResourceLimitation, ErrCodeResourceLimitation, ""},
	{dichotomy.ErrInterrupted, ErrCodeInterrupted, ""},
	{context.Canceled, ErrCodeInterrupted, ""},
	{fs.ErrNotExist, ErrCodeFileNotFound, ""},
	{fs.ErrPermission, ErrCodeFilePermission, "Check the permissions of the file or directory"},
}

// Translate returns err as a DichotomyError. Errors that already carry a code
// are returned as is; known search errors get their matching code; anything
// else becomes ERR_501_INTERNAL.
func Translate(err error) *DichotomyError {
	if err == nil {
		return nil
	}
	var de *DichotomyError
	if errors.As(err, &de) {
		return de
	}
	for _, t := range translations {
		if errors.Is(err, t.sentinel) {
			return Wrap(t.code, err).WithSuggestion(t.suggestion)
		}
	}
	return Wrap(ErrCodeInternal, err)
}
