package service

import "errors"

var (
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("insufficient permissions")
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not found")
)

// Error carries a client-safe message. Kind is one of the sentinels above;
// Err is the optional underlying cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func newErr(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func wrapErr(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// PublicMessage returns the message of a classified error, or "" when err
// carries none.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
