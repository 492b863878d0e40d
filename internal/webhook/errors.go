package webhook

import (
	"errors"
	"net/http"
)

// Error kinds. HTTPStatus maps each kind to the response status.
var (
	ErrConfig     = errors.New("configuration error") // 500
	ErrBadRequest = errors.New("bad request")         // 400
	ErrUpstream   = errors.New("upstream error")      // 500
)

// Error is a classified dispatcher failure. Message is safe to return to the caller;
// Cause stays in logs.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func configError(msg string, cause error) *Error {
	return &Error{Kind: ErrConfig, Message: msg, Cause: cause}
}

func badRequest(msg string, cause error) *Error {
	return &Error{Kind: ErrBadRequest, Message: msg, Cause: cause}
}

func upstreamError(msg string, cause error) *Error {
	return &Error{Kind: ErrUpstream, Message: msg, Cause: cause}
}

// HTTPStatus returns the response status for an error returned by Dispatcher.Handle.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
