package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies pipeline failures.
type ErrorKind string

const (
	// KindValidation marks out-of-range or unknown parameters.
	KindValidation ErrorKind = "validation"
	// KindDecode marks image bytes that could not be decoded.
	KindDecode ErrorKind = "decode"
	// KindInternal marks failures inside the vision toolkit.
	KindInternal ErrorKind = "internal"
)

// Error is the error type returned by Run.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
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

func newError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// ValidationError reports a bad parameter.
func ValidationError(message string, err error) *Error {
	return newError(KindValidation, message, err)
}

// DecodeError reports an unreadable image payload.
func DecodeError(message string, err error) *Error {
	return newError(KindDecode, message, err)
}

// InternalError reports an unexpected failure.
func InternalError(message string, err error) *Error {
	return newError(KindInternal, message, err)
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return err != nil && KindOf(err) == KindValidation
}

// IsDecode reports whether err is a decode failure.
func IsDecode(err error) bool {
	return err != nil && KindOf(err) == KindDecode
}
