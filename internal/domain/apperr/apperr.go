// Package apperr defines the error kinds shared by domain packages.
//
// Domain errors unwrap to exactly one kind sentinel, which the HTTP layer
// translates to a status code.
package apperr

import "github.com/go-faster/errors"

// Kind sentinels.
var (
	ErrValidation   = errors.New("validation")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("unavailable")
)

// Error is a domain error with a client-facing message and a kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// Validation returns an error of kind ErrValidation.
func Validation(msg string) error { return &Error{Kind: ErrValidation, Msg: msg} }

// Unauthorized returns an error of kind ErrUnauthorized.
func Unauthorized(msg string) error { return &Error{Kind: ErrUnauthorized, Msg: msg} }

// Forbidden returns an error of kind ErrForbidden.
func Forbidden(msg string) error { return &Error{Kind: ErrForbidden, Msg: msg} }

// NotFound returns an error of kind ErrNotFound.
func NotFound(msg string) error { return &Error{Kind: ErrNotFound, Msg: msg} }

// Conflict returns an error of kind ErrConflict.
func Conflict(msg string) error { return &Error{Kind: ErrConflict, Msg: msg} }

// Unavailable returns an error of kind ErrUnavailable.
func Unavailable(msg string) error { return &Error{Kind: ErrUnavailable, Msg: msg} }

// Message returns the client-facing message of the first *Error in the chain.
func Message(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg, true
	}
	return "", false
}
