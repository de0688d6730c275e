// Package dialect provides the database dialect abstraction for sqlfluent.
//
// This package defines the dialect identifiers, version-aware flavors and the
// execution interfaces consumed by application code. Statement rendering for
// PostgreSQL, MySQL and SQLite lives in dialect/sql.
//
// # Supported Dialects
//
// Each dialect is identified by a constant string:
//
//	dialect.Postgres = "postgres" // also "pgsql", "postgresql"
//	dialect.MySQL    = "mysql"    // also "mariadb"
//	dialect.SQLite   = "sqlite"   // also "sqlite3"
//
// # Flavors
//
// A flavor pins a dialect to a server version, which changes the set of
// constructs the renderer accepts:
//
//	f, err := dialect.Parse("mysql:5.7")
//	f.Supports(dialect.FeatureRecursiveCTE) // false
//
// An identifier without a version targets the latest release.
//
// # Driver Interface
//
// The package defines the Driver interface for database operations:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// The Tx interface adds Commit and Rollback to ExecQuerier.
//
// # Sub-packages
//
//   - dialect/sql: statement builders, renderer and driver implementation
//   - dialect/sql/schema: schema introspection and snapshot validation
package dialect
