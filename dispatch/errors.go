package dispatch

import (
	"errors"
	"fmt"

	apperrors "github.com/kbukum/sigdispatch/errors"
)

// ErrorCode classifies dispatch errors.
type ErrorCode int

const (
	// ErrCodeUnsupportedOption indicates a dispatch option this layer refuses, such as a timeout.
	ErrCodeUnsupportedOption ErrorCode = iota
	// ErrCodeUnsupportedMethod indicates a method outside GET, HEAD, POST, PUT and DELETE.
	ErrCodeUnsupportedMethod
	// ErrCodeInvalidRequest indicates a descriptor with a bad scheme or an empty hostname.
	ErrCodeInvalidRequest
	// ErrCodeInvalidHeaderName indicates a request header name that is not a valid token.
	ErrCodeInvalidHeaderName
	// ErrCodeInvalidHeaderValue indicates a request header value with forbidden bytes.
	ErrCodeInvalidHeaderValue
	// ErrCodeHeaderDecode indicates a response header value that is not valid UTF-8.
	ErrCodeHeaderDecode
	// ErrCodeRequestBuild indicates the assembled URI could not be parsed.
	ErrCodeRequestBuild
	// ErrCodeTransport indicates the transport failed to produce a response.
	ErrCodeTransport
	// ErrCodeIO indicates a body stream failed.
	ErrCodeIO
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeUnsupportedOption:
		return "unsupported_option"
	case ErrCodeUnsupportedMethod:
		return "unsupported_method"
	case ErrCodeInvalidRequest:
		return "invalid_request"
	case ErrCodeInvalidHeaderName:
		return "invalid_header_name"
	case ErrCodeInvalidHeaderValue:
		return "invalid_header_value"
	case ErrCodeHeaderDecode:
		return "header_decode"
	case ErrCodeRequestBuild:
		return "request_build"
	case ErrCodeTransport:
		return "transport"
	case ErrCodeIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is a dispatch failure carrying a code and a human-readable message.
type Error struct {
	// Code classifies the error.
	Code ErrorCode
	// Message describes the error.
	Message string
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// ToAppError converts the error into the shared AppError taxonomy.
func (e *Error) ToAppError() *apperrors.AppError {
	var appErr *apperrors.AppError
	switch e.Code {
	case ErrCodeUnsupportedOption, ErrCodeUnsupportedMethod:
		appErr = apperrors.Unsupported(e.Message)
	case ErrCodeInvalidRequest, ErrCodeInvalidHeaderName, ErrCodeInvalidHeaderValue, ErrCodeRequestBuild:
		appErr = apperrors.Validation(e.Message)
	case ErrCodeHeaderDecode:
		appErr = apperrors.InvalidFormat("response header", "UTF-8")
	case ErrCodeTransport:
		appErr = apperrors.ExternalServiceError("transport", nil)
	default:
		appErr = apperrors.ConnectionFailed("body stream")
	}
	return appErr.WithCause(e).WithDetail("dispatch_code", e.Code.String())
}

func newError(code ErrorCode, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// NewUnsupportedOptionError creates an error for a refused dispatch option.
func NewUnsupportedOptionError(option string) *Error {
	return newError(ErrCodeUnsupportedOption, nil, "%s is not supported at this level", option)
}

// NewUnsupportedMethodError creates an error for a method the dispatcher cannot send.
func NewUnsupportedMethodError(method string) *Error {
	return newError(ErrCodeUnsupportedMethod, nil, "unsupported HTTP method %q", method)
}

// NewTransportError wraps a transport failure.
func NewTransportError(err error) *Error {
	return newError(ErrCodeTransport, err, "DispatchError: %v", err)
}

// NewIOError wraps a body stream failure. Existing dispatch errors are returned unchanged.
func NewIOError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return newError(ErrCodeIO, err, "body stream: %v", err)
}

// IsUnsupportedOption checks if an error is an unsupported option error.
func IsUnsupportedOption(err error) bool { return hasCode(err, ErrCodeUnsupportedOption) }

// IsUnsupportedMethod checks if an error is an unsupported method error.
func IsUnsupportedMethod(err error) bool { return hasCode(err, ErrCodeUnsupportedMethod) }

// IsInvalidRequest checks if an error is an invalid descriptor error.
func IsInvalidRequest(err error) bool { return hasCode(err, ErrCodeInvalidRequest) }

// IsInvalidHeader checks if an error is an invalid header name or value error.
func IsInvalidHeader(err error) bool {
	return hasCode(err, ErrCodeInvalidHeaderName) || hasCode(err, ErrCodeInvalidHeaderValue)
}

// IsHeaderDecode checks if an error is a response header decode error.
func IsHeaderDecode(err error) bool { return hasCode(err, ErrCodeHeaderDecode) }

// IsTransport checks if an error is a transport error.
func IsTransport(err error) bool { return hasCode(err, ErrCodeTransport) }

// IsIO checks if an error is a body stream error.
func IsIO(err error) bool { return hasCode(err, ErrCodeIO) }

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
