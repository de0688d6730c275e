package sqlfluent

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for statement construction and rendering.
var (
	// ErrStructural is returned when a statement violates its own structural
	// invariants (missing alias on a subquery source, row arity mismatch, ...).
	ErrStructural = errors.New("sqlfluent: structural error")

	// ErrUnsupportedDialect is returned when a statement is rendered for an
	// unknown dialect identifier.
	ErrUnsupportedDialect = errors.New("sqlfluent: unsupported dialect")

	// ErrUnsupportedFeature is returned when the target dialect cannot express
	// a construct used by the statement.
	ErrUnsupportedFeature = errors.New("sqlfluent: unsupported feature")
)

// StructuralError represents a violation of a statement's structural invariants.
// It is detected at construction time, independent of any dialect.
type StructuralError struct {
	Op  string // Construction call that detected the violation (e.g. "FromSubquery").
	Msg string // Human readable description.
}

// Error returns the error string.
func (e *StructuralError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("sqlfluent: %s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("sqlfluent: %s", e.Msg)
}

// Is reports whether the target error matches StructuralError.
// This allows errors.Is(err, ErrStructural) to return true.
func (e *StructuralError) Is(err error) bool {
	return err == ErrStructural
}

// NewStructuralError returns a new StructuralError for the given call.
func NewStructuralError(op, format string, args ...any) *StructuralError {
	return &StructuralError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// IsStructuralError returns true if the error is a StructuralError.
func IsStructuralError(err error) bool {
	if err == nil {
		return false
	}
	var e *StructuralError
	return errors.As(err, &e) || errors.Is(err, ErrStructural)
}

// UnsupportedDialectError is returned for an unknown dialect identifier.
type UnsupportedDialectError struct {
	Dialect string
	Reason  string // Optional detail, e.g. a malformed version.
}

// Error returns the error string.
func (e *UnsupportedDialectError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("sqlfluent: unsupported dialect %q: %s", e.Dialect, e.Reason)
	}
	return fmt.Sprintf("sqlfluent: unsupported dialect %q", e.Dialect)
}

// Is reports whether the target error matches UnsupportedDialectError.
func (e *UnsupportedDialectError) Is(err error) bool {
	return err == ErrUnsupportedDialect
}

// NewUnsupportedDialectError returns a new UnsupportedDialectError.
func NewUnsupportedDialectError(name string) *UnsupportedDialectError {
	return &UnsupportedDialectError{Dialect: name}
}

// IsUnsupportedDialect returns true if the error is an UnsupportedDialectError.
func IsUnsupportedDialect(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedDialectError
	return errors.As(err, &e) || errors.Is(err, ErrUnsupportedDialect)
}

// UnsupportedFeatureError is returned when a dialect lacks a capability the
// statement requires, e.g. recursive CTEs on MySQL 5.7 or FULL JOIN on MySQL.
type UnsupportedFeatureError struct {
	Dialect string // Flavor identifier, e.g. "mysql:5.7".
	Feature string // Feature description, e.g. "FULL JOIN".
}

// Error returns the error string.
func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("sqlfluent: %s is not supported by dialect %q", e.Feature, e.Dialect)
}

// Is reports whether the target error matches UnsupportedFeatureError.
func (e *UnsupportedFeatureError) Is(err error) bool {
	return err == ErrUnsupportedFeature
}

// NewUnsupportedFeatureError returns a new UnsupportedFeatureError.
func NewUnsupportedFeatureError(dialect, feature string) *UnsupportedFeatureError {
	return &UnsupportedFeatureError{Dialect: dialect, Feature: feature}
}

// IsUnsupportedFeature returns true if the error is an UnsupportedFeatureError.
func IsUnsupportedFeature(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedFeatureError
	return errors.As(err, &e) || errors.Is(err, ErrUnsupportedFeature)
}
