package errors

import "net/http"

// ErrorCode is a machine-readable error code.
type ErrorCode string

// Availability errors. All are retryable.
const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeConnectionFailed covers failed connections and broken body streams.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	ErrCodeTimeout          ErrorCode = "TIMEOUT"
	ErrCodeRateLimited      ErrorCode = "RATE_LIMITED"
)

// Request errors.
const (
	// ErrCodeInvalidInput means the request could not be translated.
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	ErrCodeUnsupported   ErrorCode = "UNSUPPORTED"
)

// Internal and upstream errors.
const (
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

var codeTable = map[ErrorCode]struct {
	status    int
	retryable bool
}{
	ErrCodeServiceUnavailable: {http.StatusServiceUnavailable, true},
	ErrCodeConnectionFailed:   {http.StatusBadGateway, true},
	ErrCodeTimeout:            {http.StatusGatewayTimeout, true},
	ErrCodeRateLimited:        {http.StatusTooManyRequests, true},
	ErrCodeInvalidInput:       {http.StatusBadRequest, false},
	ErrCodeInvalidFormat:      {http.StatusBadRequest, false},
	ErrCodeUnsupported:        {http.StatusNotImplemented, false},
	ErrCodeInternal:           {http.StatusInternalServerError, false},
	ErrCodeExternalService:    {http.StatusBadGateway, true},
}

// HTTPStatus is the status an HTTP surface should report for the code.
// Unknown codes map to 500.
func (c ErrorCode) HTTPStatus() int {
	if info, ok := codeTable[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Retryable reports whether an operation failing with the code may succeed
// when tried again.
func (c ErrorCode) Retryable() bool {
	return codeTable[c].retryable
}
