package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"storefront-service/clients"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap copies base and attaches err. The shared sentinels are never mutated.
func Wrap(base *Error, err error) *Error {
	return New(base.Code, base.Message, err)
}

var (
	ErrBadRequest         = New(http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized       = New(http.StatusUnauthorized, "Please sign in to continue", nil)
	ErrNotFound           = New(http.StatusNotFound, "Not found", nil)
	ErrConflict           = New(http.StatusConflict, "This item is already being updated", nil)
	ErrValidation         = New(http.StatusUnprocessableEntity, "Validation failed", nil)
	ErrTooManyRequests    = New(http.StatusTooManyRequests, "Too many requests", nil)
	ErrInternalServer     = New(http.StatusInternalServerError, "Something went wrong", nil)
	ErrBadGateway         = New(http.StatusBadGateway, "The store is having trouble right now", nil)
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, "The store is unreachable right now", nil)
)

// FromAPI maps an API client error onto the status the storefront answers
// with: unreachable backend 503, backend 404/401 passed through, anything
// else from the backend 502.
func FromAPI(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, clients.ErrTransport):
		return Wrap(ErrServiceUnavailable, err)
	case clients.IsNotFound(err):
		return Wrap(ErrNotFound, err)
	case clients.IsUnauthorized(err):
		return Wrap(ErrUnauthorized, err)
	default:
		return Wrap(ErrBadGateway, err)
	}
}
