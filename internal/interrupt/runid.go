package interrupt

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	derrors "github.com/Aman-CERP/dichotomy/internal/errors"
)

var (
	runIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
	validate     = validator.New()
)

func init() {
	_ = validate.RegisterValidation("runid", func(fl validator.FieldLevel) bool {
		return runIDPattern.MatchString(fl.Field().String())
	})
}

// ValidateRunID checks that id is usable as a file name stem.
func ValidateRunID(id string) error {
	if err := validate.Var(id, "required,max=64,runid"); err != nil {
		return derrors.New(derrors.ErrCodeInvalidRunID, "invalid run ID "+quote(id), err).
			WithSuggestion("Use up to 64 letters, digits, dots, dashes or underscores")
	}
	return nil
}

func quote(s string) string { return `"` + s + `"` }
