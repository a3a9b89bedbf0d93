// Package errors defines the error kinds the coordinator and worker surface,
// plus the machinery to turn them into HTTP status codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidInput marks a malformed request body or an unusable path.
	ErrInvalidInput = errors.New("invalid input")
	// ErrBrokerUnavailable marks any broker call failure.
	ErrBrokerUnavailable = errors.New("broker unavailable")
	// ErrNoWorkersAvailable marks that the dispatcher found no live worker.
	ErrNoWorkersAvailable = errors.New("no workers available")
	// ErrDocumentReadFailure marks a filesystem error or empty document content.
	ErrDocumentReadFailure = errors.New("document read failure")
	// ErrResultDecodeFailure marks malformed JSON on dequeue or subscribe.
	ErrResultDecodeFailure = errors.New("result decode failure")
	// ErrPersistenceFailure marks an IO or serialization error during save/load.
	ErrPersistenceFailure = errors.New("persistence failure")
	// ErrRequestTimeout marks a request that exceeded the server-side timeout.
	ErrRequestTimeout = errors.New("request timeout")
)

// AppError pairs a sentinel error with a caller-facing message and the HTTP
// status code it should be reported as.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New wraps a sentinel error with a message and explicit status code.
func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{Err: sentinel, Message: message, StatusCode: statusCode}
}

// Newf is New with a formatted message.
func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{Err: sentinel, Message: fmt.Sprintf(format, args...), StatusCode: statusCode}
}

// HTTPStatusCode maps an error to the status code a handler should return.
// Client faults map to 4xx; transient infrastructure problems map to 5xx,
// per the propagation policy: distinguish what the caller did wrong from
// what the system couldn't do.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoWorkersAvailable), errors.Is(err, ErrBrokerUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrDocumentReadFailure), errors.Is(err, ErrResultDecodeFailure):
		return http.StatusBadRequest
	case errors.Is(err, ErrPersistenceFailure):
		return http.StatusInternalServerError
	case errors.Is(err, ErrRequestTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
