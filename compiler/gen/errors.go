package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched by the error types of this package through errors.Is.
var (
	// ErrIllegalIdentifier indicates a synthesized identifier that is not a
	// legal Go identifier or that collides with another identifier.
	ErrIllegalIdentifier = errors.New("stagebuild: illegal identifier")
	// ErrMissingConfig is matched by every ConfigError.
	ErrMissingConfig = errors.New("stagebuild: missing configuration")
	// ErrGenerationFailed is matched by every GenerationError.
	ErrGenerationFailed = errors.New("stagebuild: code generation failed")
)

// IdentifierError represents an identifier that cannot be emitted.
type IdentifierError struct {
	Ident   string // The offending synthesized identifier.
	Source  string // The identifier it was derived from.
	Pos     string // Position of the source identifier.
	Message string
}

func (e *IdentifierError) Error() string {
	var b strings.Builder
	if e.Pos != "" {
		b.WriteString(e.Pos)
		b.WriteString(": ")
	}
	b.WriteString("stagebuild: illegal identifier")
	if e.Ident != "" {
		fmt.Fprintf(&b, " %q", e.Ident)
	}
	if e.Source != "" && e.Source != e.Ident {
		fmt.Fprintf(&b, " (from %q)", e.Source)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for IdentifierError.
func (e *IdentifierError) Is(target error) bool {
	return target == ErrIllegalIdentifier
}

// NewIdentifierError creates a new IdentifierError.
func NewIdentifierError(ident, source, pos, message string) *IdentifierError {
	return &IdentifierError{
		Ident:   ident,
		Source:  source,
		Pos:     pos,
		Message: message,
	}
}

// ConfigError reports an invalid option or configuration file entry.
type ConfigError struct {
	Option  string // Config field the value was meant for.
	Value   any    // Rejected value, nil when absent.
	Message string
}

func (e *ConfigError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("stagebuild: invalid %s: %s", e.Option, e.Message)
	}
	return fmt.Sprintf("stagebuild: invalid %s %v: %s", e.Option, e.Value, e.Message)
}

// Is makes every ConfigError match ErrMissingConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError returns a ConfigError for the named option.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{Option: option, Value: value, Message: message}
}

// GenerationError reports the failure of one record. Phase names the step
// that failed: plan, names, types, render, format or write.
type GenerationError struct {
	Phase   string
	Record  string
	File    string
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	parts := []string{"stagebuild"}
	if e.Record != "" {
		parts = append(parts, "record "+e.Record)
	}
	if e.File != "" {
		parts = append(parts, e.File)
	}
	msg := e.Phase + " failed"
	if e.Phase == "" {
		msg = "generation failed"
	}
	parts = append(parts, msg)
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is makes every GenerationError match ErrGenerationFailed.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError returns a GenerationError for record.
func NewGenerationError(phase, record, file, message string, cause error) *GenerationError {
	return &GenerationError{Phase: phase, Record: record, File: file, Message: message, Cause: cause}
}

// IsIdentifierError reports whether the error is an IdentifierError.
func IsIdentifierError(err error) bool {
	var identErr *IdentifierError
	return errors.As(err, &identErr)
}

// IsConfigError reports whether err wraps a ConfigError.
func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

// IsGenerationError reports whether err wraps a GenerationError.
func IsGenerationError(err error) bool {
	var target *GenerationError
	return errors.As(err, &target)
}
