package schema

import (
	"context"
	"fmt"
	"sort"

	"github.com/syssam/sqlfluent"
	"github.com/syssam/sqlfluent/dialect"
	"github.com/syssam/sqlfluent/dialect/sql"
)

// Inspector reads the schema of the connected database.
type Inspector interface {
	// Tables returns the names of the tables in the current schema.
	Tables(ctx context.Context) ([]string, error)
	// Columns returns the columns of a table, in their ordinal position.
	Columns(ctx context.Context, table string) ([]*Column, error)
	// Indexes returns the indexes of a table, excluding the primary key.
	Indexes(ctx context.Context, table string) ([]*Index, error)
	// ForeignKeys returns the foreign keys of a table.
	ForeignKeys(ctx context.Context, table string) ([]*ForeignKey, error)
	// Table returns a table with its columns, primary key, indexes and
	// foreign keys.
	Table(ctx context.Context, name string) (*Table, error)
}

// NotFoundError is returned by Table when the table does not exist.
type NotFoundError struct {
	Table string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("schema: table %q was not found", e.Table)
}

// queries holds the catalog queries of a dialect. Every query selects
// the same columns in every dialect, so rows are scanned by shared code:
//
//	tables:      name
//	columns:     name, type, nullable, default, size, pk
//	indexes:     name, unique, column
//	foreignKeys: symbol, column, ref_table, ref_column, on_update, on_delete
type queries struct {
	tables      func() *sql.Selector
	columns     func(table string) *sql.Selector
	indexes     func(table string) *sql.Selector
	foreignKeys func(table string) *sql.Selector
}

// NewInspector returns an Inspector for the driver flavor.
func NewInspector(drv *sql.Driver) (Inspector, error) {
	var q queries
	switch drv.Flavor().Name {
	case dialect.MySQL:
		q = mysqlQueries
	case dialect.Postgres:
		q = postgresQueries
	case dialect.SQLite:
		q = sqliteQueries
	default:
		return nil, sqlfluent.NewUnsupportedDialectError(drv.Dialect())
	}
	return &inspector{drv: drv, q: q}, nil
}

type inspector struct {
	drv *sql.Driver
	q   queries
}

func (i *inspector) Tables(ctx context.Context) ([]string, error) {
	var names []string
	err := i.query(ctx, i.q.tables(), func(rows *sql.Rows) error {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		names = append(names, name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("schema: reading tables: %w", err)
	}
	return names, nil
}

func (i *inspector) Columns(ctx context.Context, table string) ([]*Column, error) {
	columns, _, err := i.columns(ctx, table)
	if err != nil {
		return nil, err
	}
	idx, err := i.indexes(ctx, table, columns)
	if err != nil {
		return nil, err
	}
	markUnique(idx)
	return columns, nil
}

func (i *inspector) Indexes(ctx context.Context, table string) ([]*Index, error) {
	return i.indexes(ctx, table, nil)
}

func (i *inspector) ForeignKeys(ctx context.Context, table string) ([]*ForeignKey, error) {
	return i.foreignKeys(ctx, table, nil)
}

func (i *inspector) Table(ctx context.Context, name string) (*Table, error) {
	columns, pk, err := i.columns(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, &NotFoundError{Table: name}
	}
	t := &Table{Name: name, Columns: columns, PrimaryKey: pk}
	if t.Indexes, err = i.indexes(ctx, name, columns); err != nil {
		return nil, err
	}
	markUnique(t.Indexes)
	if t.ForeignKeys, err = i.foreignKeys(ctx, name, columns); err != nil {
		return nil, err
	}
	return t, nil
}

// columns returns the table columns and its primary key columns.
func (i *inspector) columns(ctx context.Context, table string) ([]*Column, []*Column, error) {
	var (
		columns []*Column
		keys    = make(map[*Column]int)
	)
	err := i.query(ctx, i.q.columns(table), func(rows *sql.Rows) error {
		var (
			c    Column
			def  sql.NullString
			size sql.NullInt64
			pk   int
		)
		if err := rows.Scan(&c.Name, &c.Type, &c.Nullable, &def, &size, &pk); err != nil {
			return err
		}
		if def.Valid {
			c.Default = def.String
		}
		c.Size = size.Int64
		if !size.Valid {
			c.Size = typeSize(c.Type)
		}
		columns = append(columns, &c)
		if pk > 0 {
			keys[&c] = pk
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("schema: reading columns of %q: %w", table, err)
	}
	var pk []*Column
	for _, c := range columns {
		if _, ok := keys[c]; ok {
			pk = append(pk, c)
		}
	}
	// SQLite reports the key position, the others report membership only.
	sort.SliceStable(pk, func(a, b int) bool { return keys[pk[a]] < keys[pk[b]] })
	return columns, pk, nil
}

// indexes returns the table indexes. Index columns are resolved against
// columns, or created by name if columns is nil.
func (i *inspector) indexes(ctx context.Context, table string, columns []*Column) ([]*Index, error) {
	var (
		indexes []*Index
		byName  = make(map[string]*Index)
	)
	err := i.query(ctx, i.q.indexes(table), func(rows *sql.Rows) error {
		var (
			name, column string
			unique       bool
		)
		if err := rows.Scan(&name, &unique, &column); err != nil {
			return err
		}
		idx, ok := byName[name]
		if !ok {
			idx = &Index{Name: name, Unique: unique}
			byName[name] = idx
			indexes = append(indexes, idx)
		}
		idx.Columns = append(idx.Columns, lookup(columns, column))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("schema: reading indexes of %q: %w", table, err)
	}
	return indexes, nil
}

func (i *inspector) foreignKeys(ctx context.Context, table string, columns []*Column) ([]*ForeignKey, error) {
	var (
		fks    []*ForeignKey
		byName = make(map[string]*ForeignKey)
	)
	err := i.query(ctx, i.q.foreignKeys(table), func(rows *sql.Rows) error {
		var (
			symbol, column, refTable string
			refColumn                sql.NullString
			onUpdate, onDelete       string
		)
		if err := rows.Scan(&symbol, &column, &refTable, &refColumn, &onUpdate, &onDelete); err != nil {
			return err
		}
		fk, ok := byName[symbol]
		if !ok {
			fk = &ForeignKey{
				Symbol:   symbol,
				RefTable: &Table{Name: refTable},
				OnUpdate: ReferenceOption(onUpdate),
				OnDelete: ReferenceOption(onDelete),
			}
			byName[symbol] = fk
			fks = append(fks, fk)
		}
		fk.Columns = append(fk.Columns, lookup(columns, column))
		// SQLite leaves the referenced column empty for references to
		// the primary key of the parent table.
		if refColumn.Valid {
			fk.RefColumns = append(fk.RefColumns, &Column{Name: refColumn.String})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("schema: reading foreign keys of %q: %w", table, err)
	}
	return fks, nil
}

// query runs a catalog query and calls scan for every row.
func (i *inspector) query(ctx context.Context, s *sql.Selector, scan func(*sql.Rows) error) error {
	rows := &sql.Rows{}
	if err := i.drv.Run(ctx, s, rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return rows.Close()
}

func lookup(columns []*Column, name string) *Column {
	for _, c := range columns {
		if c.Name == name {
			return c
		}
	}
	return &Column{Name: name}
}

// markUnique flags the columns covered alone by a unique index.
func markUnique(indexes []*Index) {
	for _, idx := range indexes {
		if idx.Unique && len(idx.Columns) == 1 {
			idx.Columns[0].Unique = true
		}
	}
}
