package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	MaxPropertyKey = 100

	propKeyPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

	// reserved keys are mapped onto dedicated node fields by the codec
	reservedKeys = map[string]bool{
		"id":            true,
		"applicationId": true,
		"name":          true,
		"speckle_type":  true,
		"elements":      true,
		"displayValue":  true,
		"vertices":      true,
		"basePoint":     true,
		"location":      true,
	}
)

func init() {
	validate = validator.New()
}

// ValidateStruct validates a struct using its `validate` tags.
func ValidateStruct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidatePropertyKey validates a user-supplied property key
func ValidatePropertyKey(key string) error {
	if key == "" {
		return errors.New("property key cannot be empty")
	}
	if len(key) > MaxPropertyKey {
		return fmt.Errorf("property key '%s' exceeds maximum length of %d characters", key, MaxPropertyKey)
	}
	if strings.HasPrefix(key, "@") || reservedKeys[key] {
		return fmt.Errorf("property key '%s' is reserved", key)
	}
	if !propKeyPattern.MatchString(key) {
		return fmt.Errorf("property key '%s' is invalid (must start with letter or underscore, followed by alphanumeric or underscore)", key)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	msgs := make([]error, 0, len(validationErrs))
	for _, e := range validationErrs {
		field := e.Namespace()
		param := e.Param()

		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Errorf("%s: field is required", field))
		case "min", "gte":
			msgs = append(msgs, fmt.Errorf("%s: must be at least %s", field, param))
		case "max", "lte":
			msgs = append(msgs, fmt.Errorf("%s: must not exceed %s", field, param))
		case "oneof":
			msgs = append(msgs, fmt.Errorf("%s: must be one of [%s]", field, param))
		default:
			msgs = append(msgs, fmt.Errorf("%s: validation failed (%s)", field, e.Tag()))
		}
	}
	return errors.Join(msgs...)
}
