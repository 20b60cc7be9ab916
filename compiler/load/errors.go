package load

import (
	"errors"
	"strings"
)

// Sentinel errors for records that cannot be described by a Schema.
var (
	// ErrUnsupportedShape indicates that a type is not a plain struct.
	ErrUnsupportedShape = errors.New("stagebuild: unsupported record shape")
	// ErrUnsupportedFieldShape indicates a field without a usable name or type.
	ErrUnsupportedFieldShape = errors.New("stagebuild: unsupported field shape")
	// ErrDuplicateField indicates two fields sharing a name.
	ErrDuplicateField = errors.New("stagebuild: duplicate field")
	// ErrUnknownType indicates that a requested type is not declared.
	ErrUnknownType = errors.New("stagebuild: unknown type")
)

// ShapeError reports a record that cannot be extracted. It is fatal for the
// record; other records of the same input are not affected.
type ShapeError struct {
	Kind    error  // One of the sentinel errors above.
	Type    string // Record name.
	Field   string // Field name (if applicable).
	Pos     string // Position of the offending definition.
	Message string
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	var b strings.Builder
	if e.Pos != "" {
		b.WriteString(e.Pos)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Unwrap returns the sentinel error of the shape error.
func (e *ShapeError) Unwrap() error {
	return e.Kind
}

// NewShapeError creates a new ShapeError.
func NewShapeError(kind error, typeName, fieldName, pos, message string) *ShapeError {
	return &ShapeError{
		Kind:    kind,
		Type:    typeName,
		Field:   fieldName,
		Pos:     pos,
		Message: message,
	}
}

// IsShapeError reports whether the error is a ShapeError.
func IsShapeError(err error) bool {
	var shapeErr *ShapeError
	return errors.As(err, &shapeErr)
}
