package schema

import (
	"strconv"
	"strings"
)

// Table is a database table as reported by an Inspector.
type Table struct {
	Name        string
	Columns     []*Column
	PrimaryKey  []*Column
	Indexes     []*Index
	ForeignKeys []*ForeignKey
}

// NewTable returns a table with the given name and columns.
func NewTable(name string, columns ...*Column) *Table {
	return &Table{Name: name, Columns: columns}
}

// Column returns the table column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Index returns the table index with the given name.
func (t *Table) Index(name string) (*Index, bool) {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return nil, false
}

// Column is a table column.
type Column struct {
	Name string
	// Type is the database type, e.g. "varchar(255)" on MySQL,
	// "character varying" on Postgres or "TEXT" on SQLite.
	Type     string
	Size     int64 // Maximum character length, 0 if unbounded or not a string type.
	Nullable bool
	Unique   bool
	// Default is the default expression as reported by the database,
	// or nil if the column has no default.
	Default any
}

// Index is a table index. The primary key is not reported as an index.
type Index struct {
	Name    string
	Unique  bool
	Columns []*Column
}

// ReferenceOption is a foreign key action, e.g. "CASCADE".
type ReferenceOption string

// Reference options.
const (
	NoAction   ReferenceOption = "NO ACTION"
	Restrict   ReferenceOption = "RESTRICT"
	Cascade    ReferenceOption = "CASCADE"
	SetNull    ReferenceOption = "SET NULL"
	SetDefault ReferenceOption = "SET DEFAULT"
)

// ForeignKey is a foreign key constraint.
type ForeignKey struct {
	// Symbol is the constraint name. SQLite does not name foreign keys
	// and reports their position instead.
	Symbol     string
	Columns    []*Column
	RefTable   *Table
	RefColumns []*Column
	OnUpdate   ReferenceOption
	OnDelete   ReferenceOption
}

// typeSize extracts the length of a type such as "VARCHAR(255)".
func typeSize(t string) int64 {
	open := strings.IndexByte(t, '(')
	end := strings.IndexByte(t, ')')
	if open < 0 || end < open {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(t[open+1:end]), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
