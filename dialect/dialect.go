package dialect

import (
	"context"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/syssam/sqlfluent"
)

// Dialect names for external usage.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// aliases maps accepted spellings to the canonical dialect name.
var aliases = map[string]string{
	MySQL:        MySQL,
	"mariadb":    MySQL,
	Postgres:     Postgres,
	"pgsql":      Postgres,
	"postgresql": Postgres,
	SQLite:       SQLite,
	"sqlite3":    SQLite,
}

// Feature is a dialect capability that is not available on every engine or version.
type Feature uint8

// Features checked by the renderer.
const (
	FeatureCTE Feature = iota + 1
	FeatureRecursiveCTE
	FeatureFullJoin
	FeatureRightJoin
	FeatureUpdateLimit
	FeatureUpdateJoin
	FeatureReturning
	FeatureJSON
)

var featureNames = [...]string{
	FeatureCTE:          "WITH",
	FeatureRecursiveCTE: "WITH RECURSIVE",
	FeatureFullJoin:     "FULL JOIN",
	FeatureRightJoin:    "RIGHT JOIN",
	FeatureUpdateLimit:  "ORDER BY/LIMIT in UPDATE or DELETE",
	FeatureUpdateJoin:   "JOIN in UPDATE or DELETE",
	FeatureReturning:    "RETURNING",
	FeatureJSON:         "JSON functions",
}

// String returns the SQL construct the feature stands for.
func (f Feature) String() string {
	if int(f) < len(featureNames) && featureNames[f] != "" {
		return featureNames[f]
	}
	return "unknown feature"
}

// support holds the minimal version of an engine supporting a feature.
// An empty version means the feature is always supported, and a missing
// entry means it is never supported.
var support = map[string]map[Feature]string{
	MySQL: {
		FeatureCTE:          "v8.0",
		FeatureRecursiveCTE: "v8.0",
		FeatureRightJoin:    "",
		FeatureUpdateLimit:  "",
		FeatureUpdateJoin:   "",
		FeatureJSON:         "v5.7.8",
	},
	Postgres: {
		FeatureCTE:          "",
		FeatureRecursiveCTE: "",
		FeatureFullJoin:     "",
		FeatureRightJoin:    "",
		FeatureReturning:    "",
		FeatureJSON:         "v9.4",
	},
	SQLite: {
		FeatureCTE:          "v3.8.3",
		FeatureRecursiveCTE: "v3.8.3",
		FeatureFullJoin:     "v3.39.0",
		FeatureRightJoin:    "v3.39.0",
		FeatureReturning:    "v3.35.0",
		FeatureJSON:         "v3.38.0",
	},
}

// Flavor identifies a dialect and, optionally, the server version it targets.
// The zero Version targets the most recent release of the engine.
type Flavor struct {
	Name    string
	Version string // Canonical semver form, e.g. "v5.7".
}

// Parse parses a flavor identifier of the form "name" or "name:version",
// e.g. "mysql", "pgsql", "mysql:5.7" or "sqlite:3.35.0".
func Parse(id string) (Flavor, error) {
	name, version, _ := strings.Cut(strings.TrimSpace(id), ":")
	canonical, ok := aliases[strings.ToLower(name)]
	if !ok {
		return Flavor{}, sqlfluent.NewUnsupportedDialectError(id)
	}
	f := Flavor{Name: canonical}
	if version != "" {
		v := version
		if !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		if !semver.IsValid(v) {
			return Flavor{}, &sqlfluent.UnsupportedDialectError{Dialect: id, Reason: "malformed version " + version}
		}
		f.Version = semver.Canonical(v)
	}
	return f, nil
}

// String returns the flavor identifier accepted by Parse.
func (f Flavor) String() string {
	if f.Version == "" {
		return f.Name
	}
	return f.Name + ":" + strings.TrimPrefix(f.Version, "v")
}

// DriverName returns the database/sql driver name registered for the dialect.
func (f Flavor) DriverName() string {
	return f.Name
}

// Supports reports whether the flavor supports the given feature.
func (f Flavor) Supports(feat Feature) bool {
	minVersion, ok := support[f.Name][feat]
	if !ok {
		return false
	}
	if minVersion == "" || f.Version == "" {
		return true
	}
	return semver.Compare(f.Version, minVersion) >= 0
}

// ExecQuerier wraps the 2 database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL, INSERT or UPDATE.
	// It scans the result into the pointer v. For SQL drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for the execution layer.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	// The provided context is used until the transaction is committed or rolled back.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}
