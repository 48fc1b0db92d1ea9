package validation

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/sigdispatch/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// tagSources lists the struct tags consulted, in order, for a field's display name.
var tagSources = []string{"mapstructure", "yaml", "json"}

// getValidator returns the singleton validator instance.
func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(fieldName)
	})
	return validate
}

// fieldName reports a field by its config key when it has one, otherwise
// by its Go name in snake_case.
func fieldName(fld reflect.StructField) string {
	for _, tag := range tagSources {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return toSnakeCase(fld.Name)
}

// Validate checks s against its `validate` struct tags, for example
// `validate:"required,oneof=http https"`. Failures are reported like
// Validator.Validate, with fields named by their config keys.
func Validate(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var tagErrs validator.ValidationErrors
	if !stderrors.As(err, &tagErrs) {
		return errors.Validation("validation failed").WithCause(err)
	}

	failed := make([]FieldError, len(tagErrs))
	for i, e := range tagErrs {
		failed[i] = FieldError{Field: e.Field(), Message: formatValidationError(e)}
	}
	return report(failed)
}

// formatValidationError creates a human-readable error message.
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		if e.Kind() == reflect.String {
			return "must be at least " + e.Param() + " characters"
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "must be at most " + e.Param() + " characters"
		}
		return "must be at most " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "url":
		return "must be a valid URL"
	case "hostname_port":
		return "must be a host:port pair"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}

// toSnakeCase turns a Go field name into a config key: ReadBufferSize
// becomes read_buffer_size.
func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
