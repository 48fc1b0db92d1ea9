// Package errors provides the shared error taxonomy for sigdispatch.
//
// Package-specific errors (dispatch.Error, transport.Error) carry precise
// codes for their own layer and convert into AppError when a caller wants
// one classification across the stack: a machine-readable code, an HTTP
// status hint, and a retryable flag.
package errors
