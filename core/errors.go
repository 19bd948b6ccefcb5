package core

import "github.com/pkg/errors"

// ValidationError reports one or more invalid input fields. Handlers render
// it as a field → message map with a 400 status.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

// FieldError ties a validation message to the struct field it concerns.
type FieldError struct {
	Field string
	Error string
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown signals an unrecoverable integrity issue; the web server
// terminates gracefully when one bubbles up through the error chain.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s *shutdown) Error() string {
	return s.message
}

// IsShutdown checks whether err is caused by a shutdown error.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
