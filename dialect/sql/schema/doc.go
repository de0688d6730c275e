// Package schema reads the schema of a connected database and validates
// changes between two schema snapshots.
//
// Catalog queries are built with the dialect/sql builder and run through
// the driver, so every table name is a binding:
//
//	drv, err := sql.Open("pgsql", dsn)
//	insp, err := schema.NewInspector(drv)
//	users, err := insp.Table(ctx, "users")
//	result := schema.ValidateDiff([]*schema.Table{users}, desired)
package schema
