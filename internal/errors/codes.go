// Package errors provides structured error handling for dichotomy.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (files, history database, exports)
//   - 3XX: Collaborator errors (shifter, evaluator, exporter)
//   - 4XX: Validation errors
//   - 5XX: Internal and search errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file, database and export errors.
	CategoryIO Category = "IO"
	// CategoryCollaborator indicates errors raised by scenario collaborators.
	CategoryCollaborator Category = "COLLABORATOR"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates search invariant breaks and unexpected errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound   = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    = "ERR_102_CONFIG_INVALID"
	ErrCodeConfigPermission = "ERR_103_CONFIG_PERMISSION"
	ErrCodeInvalidRange     = "ERR_104_INVALID_RANGE"

	// IO errors (200-299)
	ErrCodeFileNotFound   = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission = "ERR_202_FILE_PERMISSION"
	ErrCodeDiskFull       = "ERR_203_DISK_FULL"
	ErrCodeHistoryCorrupt = "ERR_204_HISTORY_CORRUPT"
	ErrCodeHistoryBusy    = "ERR_205_HISTORY_BUSY"
	ErrCodeExportFailed   = "ERR_206_EXPORT_FAILED"

	// Collaborator errors (300-399)
	ErrCodeResourceLimitation = "ERR_301_RESOURCE_LIMITATION"
	ErrCodeEvaluationFatal    = "ERR_302_EVALUATION_FATAL"
	ErrCodeInterrupted        = "ERR_303_INTERRUPTED"
	ErrCodeRunLocked          = "ERR_304_RUN_LOCKED"

	// Validation errors (400-499)
	ErrCodeInvalidInput  = "ERR_401_INVALID_INPUT"
	ErrCodeKeyMismatch   = "ERR_402_KEY_MISMATCH"
	ErrCodeInvalidRunID  = "ERR_403_INVALID_RUN_ID"
	ErrCodeRunNotFound   = "ERR_404_RUN_NOT_FOUND"
	ErrCodeUnknownOption = "ERR_405_UNKNOWN_STRATEGY"

	// Internal errors (500-599)
	ErrCodeInternal          = "ERR_501_INTERNAL"
	ErrCodeInvariant         = "ERR_502_NON_MONOTONIC_EVALUATION"
	ErrCodePrecondition      = "ERR_503_STRATEGY_PRECONDITION"
	ErrCodeSearchFailed      = "ERR_504_SEARCH_FAILED"
)

// traits are the code properties that differ from the category default.
type traits struct {
	severity  Severity
	retryable bool
}

var codeTraits = map[string]traits{
	ErrCodeHistoryCorrupt:  {severity: SeverityFatal},
	ErrCodeDiskFull:        {severity: SeverityFatal},
	ErrCodeEvaluationFatal: {severity: SeverityFatal},
	ErrCodeInvariant:       {severity: SeverityFatal},
	ErrCodeInterrupted:     {severity: SeverityInfo},
	ErrCodeHistoryBusy:     {severity: SeverityWarning, retryable: true},
	ErrCodeRunLocked:       {severity: SeverityWarning, retryable: true},
}

// categories is indexed by the hundreds digit of a code.
var categories = [...]Category{
	'1': CategoryConfig,
	'2': CategoryIO,
	'3': CategoryCollaborator,
	'4': CategoryValidation,
}

// classify derives category, severity and retryability from a code.
func classify(code string) (Category, Severity, bool) {
	category := CategoryInternal
	// "ERR_" is followed by the numeric part.
	if len(code) > 4 && int(code[4]) < len(categories) && categories[code[4]] != "" {
		category = categories[code[4]]
	}
	t, ok := codeTraits[code]
	if !ok {
		return category, SeverityError, false
	}
	return category, t.severity, t.retryable
}
