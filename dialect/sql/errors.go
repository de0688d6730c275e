package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// ConstraintKind classifies a constraint violation reported by the database.
type ConstraintKind uint8

// Constraint kinds.
const (
	ConstraintUnknown ConstraintKind = iota
	ConstraintUnique
	ConstraintForeignKey
	ConstraintCheck
)

// String returns the constraint kind name.
func (k ConstraintKind) String() string {
	switch k {
	case ConstraintUnique:
		return "unique"
	case ConstraintForeignKey:
		return "foreign key"
	case ConstraintCheck:
		return "check"
	default:
		return "unknown"
	}
}

// ConstraintError wraps a driver error caused by a constraint violation.
type ConstraintError struct {
	Kind ConstraintKind
	Err  error
}

// Error implements the error interface.
func (e *ConstraintError) Error() string {
	return "dialect/sql: " + e.Kind.String() + " constraint violation: " + e.Err.Error()
}

// Unwrap returns the driver error.
func (e *ConstraintError) Unwrap() error { return e.Err }

// AsConstraintError wraps err in a ConstraintError if it is a constraint
// violation, or returns it unchanged.
func AsConstraintError(err error) error {
	if k := constraintKind(err); k != ConstraintUnknown {
		return &ConstraintError{Kind: k, Err: err}
	}
	return err
}

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	var e *ConstraintError
	return errors.As(err, &e) || constraintKind(err) != ConstraintUnknown
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool { return constraintKind(err) == ConstraintUnique }

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. parent row does not exist.
func IsForeignKeyConstraintError(err error) bool {
	return constraintKind(err) == ConstraintForeignKey
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool { return constraintKind(err) == ConstraintCheck }

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// SQLite extended result codes, as reported by modernc.org/sqlite.
const (
	sqliteConstraintCheck      = 275
	sqliteConstraintForeignKey = 787
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// sqliteCoder is implemented by *sqlite.Error.
type sqliteCoder interface {
	Code() int
}

func constraintKind(err error) ConstraintKind {
	if err == nil {
		return ConstraintUnknown
	}
	if e, ok := asError[*ConstraintError](err); ok {
		return e.Kind
	}
	if e, ok := asError[*pq.Error](err); ok {
		switch string(e.Code) {
		case pgUniqueViolation:
			return ConstraintUnique
		case pgForeignKeyViolation:
			return ConstraintForeignKey
		case pgCheckViolation:
			return ConstraintCheck
		}
	}
	if e, ok := asError[*mysql.MySQLError](err); ok {
		switch e.Number {
		case mysqlDuplicateEntry:
			return ConstraintUnique
		case mysqlForeignKeyParent, mysqlForeignKeyChild:
			return ConstraintForeignKey
		case mysqlCheckConstraintViolate:
			return ConstraintCheck
		}
	}
	if e, ok := asError[sqliteCoder](err); ok {
		switch e.Code() {
		case sqliteConstraintUnique, sqliteConstraintPrimaryKey:
			return ConstraintUnique
		case sqliteConstraintForeignKey:
			return ConstraintForeignKey
		case sqliteConstraintCheck:
			return ConstraintCheck
		}
	}
	// Fallback to string matching for drivers that don't expose codes.
	msg := err.Error()
	switch {
	case containsAny(msg, "Error 1062", "violates unique constraint", "UNIQUE constraint failed"):
		return ConstraintUnique
	case containsAny(msg, "Error 1451", "Error 1452", "violates foreign key constraint", "FOREIGN KEY constraint failed"):
		return ConstraintForeignKey
	case containsAny(msg, "Error 3819", "violates check constraint", "CHECK constraint failed"):
		return ConstraintCheck
	}
	return ConstraintUnknown
}

// asError attempts to extract an error implementing T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
