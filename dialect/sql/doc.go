// Package sql provides fluent SQL statement builders rendering to MySQL,
// PostgreSQL and SQLite, and a thin execution layer over database/sql.
//
// # Builder Types
//
// The package provides specialized builders for different SQL operations:
//
//   - Selector: SELECT with joins, grouping, unions, CTEs and pagination
//   - InsertBuilder: INSERT with multi-row VALUES, INSERT ... SELECT and RETURNING
//   - UpdateBuilder: UPDATE with SET, WHERE and dialect gated joins and LIMIT
//   - DeleteBuilder: DELETE with WHERE and dialect gated joins and LIMIT
//
// Statements are mutated in place and every call returns the statement, so
// calls chain. A statement belongs to a single goroutine while it is built.
//
// # Conditions
//
// Where, And and Or start a pending predicate on a column. It is completed by
// a comparison, which returns the statement:
//
//	sql.Select("id", "name").
//	    From("users").
//	    Where("status").Equals("active").
//	    Or("age").Greater(18, sql.OpenBracket("(")).
//	    And("country").In([]string{"FR", "DE"}, sql.CloseBracket(")"))
//
// Comparisons take options: OpenBracket and CloseBracket write grouping text
// verbatim, AsExpr compares against a column instead of a bound value, and
// Optional drops the predicate when the operand is empty.
//
// JSON columns are compared through WhereJSON:
//
//	sql.Select().From("users").WhereJSON("meta").Extract("$.age").Greater(18)
//	sql.Select().From("users").WhereJSON("tags").Contains("admin")
//
// # Rendering
//
// Statements are rendered per dialect. Prepare returns the SQL text with
// placeholders and the ordered bindings; Raw interpolates the bindings for
// logging and must never be executed:
//
//	q, err := sql.Select().From("users").Where("id").Equals(1).Prepare("pgsql")
//	// q.SQL():  SELECT * FROM users WHERE id = $1
//	// q.Args(): [1]
//
// Errors made while building (a subquery without alias, a row of the wrong
// length, an invalid JSON path) are recorded on the statement, reported by
// Err and returned by every render call. Constructs the target dialect or
// version cannot express fail rendering with an UnsupportedFeatureError.
//
// # Execution
//
// Driver wraps a *sql.DB for a dialect flavor. Run renders a statement for the
// driver flavor and executes it:
//
//	drv, err := sql.Open("mysql:8.0", dsn)
//	rows := &sql.Rows{}
//	err = drv.Run(ctx, sql.Select("id").From("users").Limit(10), rows)
package sql
