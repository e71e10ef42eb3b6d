package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	derrors "github.com/Aman-CERP/dichotomy/internal/errors"
)

// validate is shared by every Config. Field names in errors are the YAML keys.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("strategy", validateStrategy)
	_ = validate.RegisterValidation("duration", validateDuration)
}

func validateStrategy(fl validator.FieldLevel) bool {
	return slices.Contains(Strategies, fl.Field().String())
}

func validateDuration(fl validator.FieldLevel) bool {
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d >= 0
}

// Validate validates the configuration and returns an error if invalid.
// Field rules come from the validate tags; the search range and the scenario
// are then checked against each other.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return derrors.ConfigError(formatValidationErrors(verrs), err)
		}
		return derrors.ConfigError("invalid configuration", err)
	}
	if err := c.Search.validateRange(); err != nil {
		return err
	}
	if err := c.Search.validateStrategy(); err != nil {
		return derrors.ConfigError(err.Error(), nil)
	}
	if err := c.Scenario.CheckKeys(c.Search.Keys()); err != nil {
		return derrors.ConfigError(err.Error(), nil).
			WithSuggestion("Use the keys of search.min in every line sensitivity")
	}
	return nil
}

func (s SearchConfig) validateRange() error {
	if s.Min.IsVector() != s.Max.IsVector() {
		return derrors.ConfigError("search.min and search.max must both be numbers or both be mappings", nil)
	}
	if s.IsVector() {
		if !slices.Equal(s.Min.Keys(), s.Max.Keys()) {
			return derrors.New(derrors.ErrCodeKeyMismatch,
				fmt.Sprintf("search.min keys %v differ from search.max keys %v", s.Min.Keys(), s.Max.Keys()), nil)
		}
		for _, k := range s.Min.Keys() {
			if s.Min.Vector[k] > s.Max.Vector[k] {
				return rangeError(s)
			}
		}
		return nil
	}
	if s.Min.Scalar > s.Max.Scalar {
		return rangeError(s)
	}
	return nil
}

func rangeError(s SearchConfig) error {
	return derrors.New(derrors.ErrCodeInvalidRange,
		fmt.Sprintf("search.min %s is greater than search.max %s", s.Min, s.Max), nil).
		WithSuggestion("Swap search.min and search.max")
}

func (s SearchConfig) validateStrategy() error {
	switch s.Strategy {
	case StrategySteps, StrategyBiDirectionalSteps, StrategyBiDirectionalReference:
		if s.StepSize <= 0 {
			return fmt.Errorf("search.step_size must be positive for strategy %s", s.Strategy)
		}
	}
	switch s.Strategy {
	case StrategyBiDirectionalSteps, StrategyBiDirectionalReference:
		if s.Start == nil {
			return fmt.Errorf("search.start is required for strategy %s", s.Strategy)
		}
		if err := s.checkShape("search.start", *s.Start); err != nil {
			return err
		}
	}
	if s.Strategy == StrategyBiDirectionalReference {
		if s.Reference == nil {
			return fmt.Errorf("search.reference is required for strategy %s", s.Strategy)
		}
		if err := s.checkShape("search.reference", *s.Reference); err != nil {
			return err
		}
	}
	return nil
}

// checkShape verifies p has the same kind and keys as the search bounds.
func (s SearchConfig) checkShape(name string, p Point) error {
	if p.IsVector() != s.IsVector() {
		return fmt.Errorf("%s must have the same shape as search.min", name)
	}
	if p.IsVector() && !slices.Equal(p.Keys(), s.Min.Keys()) {
		return fmt.Errorf("%s keys %v differ from search.min keys %v", name, p.Keys(), s.Min.Keys())
	}
	return nil
}

func formatValidationErrors(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		switch fe.Tag() {
		case "strategy":
			msgs = append(msgs, fmt.Sprintf("%s must be one of %s, got %q", field, strings.Join(Strategies, ", "), fe.Value()))
		case "duration":
			msgs = append(msgs, fmt.Sprintf("%s must be a duration such as 30s, got %q", field, fe.Value()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value()))
		case "required", "required_if":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		default:
			if fe.Param() != "" {
				msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value()))
			} else {
				msgs = append(msgs, fmt.Sprintf("%s failed %s (got %v)", field, fe.Tag(), fe.Value()))
			}
		}
	}
	return strings.Join(msgs, "; ")
}
