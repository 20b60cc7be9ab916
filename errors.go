package stagebuild

import (
	"errors"
	"fmt"
)

// Sentinel errors reported by checked builders.
var (
	// ErrFieldUnset is returned by Build when a field was never supplied.
	ErrFieldUnset = errors.New("stagebuild: field not set")

	// ErrFieldAlreadySet is returned by Build when a field was supplied more
	// than once.
	ErrFieldAlreadySet = errors.New("stagebuild: field already set")
)

// FieldError describes a misuse of one field of a checked builder.
type FieldError struct {
	Record string
	Field  string
	Err    error
}

// Error returns the error string.
func (e *FieldError) Error() string {
	switch e.Err {
	case ErrFieldUnset:
		return fmt.Sprintf("stagebuild: %s.%s not set", e.Record, e.Field)
	case ErrFieldAlreadySet:
		return fmt.Sprintf("stagebuild: %s.%s already set", e.Record, e.Field)
	default:
		return fmt.Sprintf("stagebuild: %s.%s: %v", e.Record, e.Field, e.Err)
	}
}

// Unwrap returns the sentinel error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// NewFieldError returns a new FieldError.
func NewFieldError(record, field string, err error) *FieldError {
	return &FieldError{Record: record, Field: field, Err: err}
}

// IsFieldUnset returns true if the error reports a field that was not set.
func IsFieldUnset(err error) bool {
	return errors.Is(err, ErrFieldUnset)
}

// IsFieldAlreadySet returns true if the error reports a field that was set
// more than once.
func IsFieldAlreadySet(err error) bool {
	return errors.Is(err, ErrFieldAlreadySet)
}
