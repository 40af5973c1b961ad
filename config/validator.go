package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ConfigError is one failed validation constraint.
type ConfigError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every failed constraint so a bad config file
// reports all problems at once.
type ValidationErrors []ConfigError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range e {
		sb.WriteString("  - " + err.Error() + "\n")
	}
	return sb.String()
}

// ValidateWithDetails checks cfg against its struct tags, plus the
// cross-field constraints tags cannot express.
func ValidateWithDetails(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			var details ValidationErrors
			for _, fe := range verrs {
				details = append(details, ConfigError{
					Field:   fe.Namespace(),
					Message: describeConstraint(fe),
					Value:   fe.Value(),
				})
			}
			return details
		}
		return err
	}

	seen := make(map[string]struct{}, len(cfg.Memory.Tiers))
	for _, tier := range cfg.Memory.Tiers {
		if _, dup := seen[tier.Name]; dup {
			return ValidationErrors{{
				Field:   "Config.Memory.Tiers",
				Message: "tier names must be unique",
				Value:   tier.Name,
			}}
		}
		seen[tier.Name] = struct{}{}
	}

	if cfg.Memory.Archive.Type == "badger" && cfg.Memory.Archive.Badger.Dir == "" {
		return ValidationErrors{{
			Field:   "Config.Memory.Archive.Badger.Dir",
			Message: "this field is required for the badger archive",
			Value:   "",
		}}
	}
	if cfg.Memory.Archive.Type == "redis" && cfg.Memory.Archive.Redis.Addr == "" {
		return ValidationErrors{{
			Field:   "Config.Memory.Archive.Redis.Addr",
			Message: "this field is required for the redis archive",
			Value:   "",
		}}
	}
	return nil
}

func describeConstraint(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
