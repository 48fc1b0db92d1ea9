// Package validation provides input and configuration validation.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Both report failures as an
// *errors.AppError carrying the per-field messages under the "fields" detail.
//
// # Struct Tag Validation
//
//	type Target struct {
//	    Scheme   string `validate:"required,oneof=http https"`
//	    Hostname string `validate:"required"`
//	}
//	err := validation.Validate(target)
//
// # Programmatic Validation
//
//	err := validation.New().
//	    Required("name", cfg.Name).
//	    NonNegativeDuration("timeout", cfg.Timeout).
//	    Err()
package validation
