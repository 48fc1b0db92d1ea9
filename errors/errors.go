package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the error taxonomy shared by every package.
type AppError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	// HTTPStatus defaults to Code.HTTPStatus().
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the cause and returns e.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets one detail and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

// WithStatus overrides the HTTP status and returns e.
func (e *AppError) WithStatus(status int) *AppError {
	e.HTTPStatus = status
	return e
}

// New creates an AppError whose status and retryability follow code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Retryable:  code.Retryable(),
		HTTPStatus: code.HTTPStatus(),
	}
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// IsAppError reports whether err wraps an AppError.
func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// AsAppError returns the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}

// ServiceUnavailable reports an upstream that is temporarily unavailable.
func ServiceUnavailable(service string) *AppError {
	return Newf(ErrCodeServiceUnavailable, "%s is temporarily unavailable", service).WithDetail("service", service)
}

// ConnectionFailed reports a failed connection or a broken body stream.
func ConnectionFailed(service string) *AppError {
	return Newf(ErrCodeConnectionFailed, "connection to %s failed", service).WithDetail("service", service)
}

// Timeout reports an operation that timed out or was canceled.
func Timeout(operation string) *AppError {
	return Newf(ErrCodeTimeout, "%s timed out", operation).WithDetail("operation", operation)
}

func RateLimited() *AppError {
	return New(ErrCodeRateLimited, "rate limit exceeded")
}

// Validation reports input that failed validation.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message)
}

// InvalidFormat reports a value whose wire format is wrong.
func InvalidFormat(field, expectedFormat string) *AppError {
	return Newf(ErrCodeInvalidFormat, "invalid format for %s, expected %s", field, expectedFormat).
		WithDetail("field", field).
		WithDetail("expected_format", expectedFormat)
}

// Unsupported reports an option or operation this layer does not support.
func Unsupported(what string) *AppError {
	return Newf(ErrCodeUnsupported, "%s is not supported", what).WithDetail("unsupported", what)
}

func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "an unexpected error occurred").WithCause(cause)
}

// ExternalServiceError reports a failure raised by the transport or upstream.
func ExternalServiceError(service string, cause error) *AppError {
	return Newf(ErrCodeExternalService, "%s failed", service).WithDetail("service", service).WithCause(cause)
}
