package domain

import "errors"

var (
	// ErrNotFound is returned when no bookmark carries the requested id.
	ErrNotFound = errors.New("bookmark not found")

	// ErrCorruptDocument is returned in strict mode when a stored document
	// cannot be decoded.
	ErrCorruptDocument = errors.New("stored bookmark document is unreadable")
)

// ValidationError describes bad client input. Its message is safe to return
// to the caller as is.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Invalid builds a *ValidationError.
func Invalid(msg string) error {
	return &ValidationError{Msg: msg}
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
