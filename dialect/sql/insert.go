package sql

import (
	"strings"

	"github.com/syssam/sqlfluent"
)

// InsertBuilder is a builder for the INSERT statement.
type InsertBuilder struct {
	errs
	table     string
	columns   []string
	rows      [][]Value
	sel       *Selector
	returning []string
}

// Insert returns a builder for the INSERT statement.
//
//	Insert("users").Columns("name", "age").Values("a8m", 10).Values("foo", 20)
func Insert(table string) *InsertBuilder { return &InsertBuilder{table: table} }

// Kind returns KindInsert.
func (i *InsertBuilder) Kind() Kind { return KindInsert }

// Into sets the table to insert into.
func (i *InsertBuilder) Into(table string) *InsertBuilder {
	i.table = table
	return i
}

// Columns appends columns to the insert column list. Rows and a SELECT
// source added before must match the extended list.
func (i *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	n := len(i.columns) + len(columns)
	if err := i.checkArity("Columns", n); err != nil {
		i.addError(err)
		return i
	}
	i.columns = append(i.columns, columns...)
	return i
}

// checkArity reports a StructuralError if the rows or the SELECT source
// do not provide n values.
func (i *InsertBuilder) checkArity(op string, n int) error {
	for _, row := range i.rows {
		if len(row) != n {
			return sqlfluent.NewStructuralError(op, "row has %d values, want %d", len(row), n)
		}
	}
	if i.sel != nil {
		if m := i.sel.columnCount(); m >= 0 && m != n {
			return sqlfluent.NewStructuralError(op, "statement selects %d columns, want %d", m, n)
		}
	}
	return nil
}

// Values appends a row. Its length must match the column list or, when
// no columns are declared, the previous rows.
func (i *InsertBuilder) Values(values ...any) *InsertBuilder {
	if i.sel != nil {
		i.addError(sqlfluent.NewStructuralError("Values", "VALUES and SELECT sources are exclusive"))
		return i
	}
	switch {
	case len(i.columns) > 0 && len(values) != len(i.columns):
		i.addError(sqlfluent.NewStructuralError("Values", "row has %d values, want %d", len(values), len(i.columns)))
		return i
	case len(i.columns) == 0 && len(i.rows) > 0 && len(values) != len(i.rows[0]):
		i.addError(sqlfluent.NewStructuralError("Values", "row has %d values, want %d", len(values), len(i.rows[0])))
		return i
	}
	row := make([]Value, len(values))
	for j, v := range values {
		row[j] = valueOf(v)
		if err := row[j].scalar("Values"); err != nil {
			i.addError(err)
			return i
		}
	}
	i.rows = append(i.rows, row)
	return i
}

// Set appends a column and its value to a single-row insert.
func (i *InsertBuilder) Set(column string, v any) *InsertBuilder {
	switch {
	case column == "":
		i.addError(sqlfluent.NewStructuralError("Set", "missing column name"))
		return i
	case i.sel != nil:
		i.addError(sqlfluent.NewStructuralError("Set", "VALUES and SELECT sources are exclusive"))
		return i
	case len(i.rows) > 1:
		i.addError(sqlfluent.NewStructuralError("Set", "cannot be used with multiple rows"))
		return i
	}
	if len(i.rows) == 0 {
		i.rows = append(i.rows, nil)
	}
	if len(i.rows[0]) != len(i.columns) {
		i.addError(sqlfluent.NewStructuralError("Set", "row has %d values, want %d", len(i.rows[0]), len(i.columns)))
		return i
	}
	value := valueOf(v)
	if err := value.scalar("Set"); err != nil {
		i.addError(err)
		return i
	}
	i.columns = append(i.columns, column)
	i.rows[0] = append(i.rows[0], value)
	return i
}

// FromSelect uses a SELECT statement as the source of the inserted rows.
func (i *InsertBuilder) FromSelect(s *Selector) *InsertBuilder {
	switch {
	case s == nil:
		i.addError(sqlfluent.NewStructuralError("FromSelect", "nil statement"))
	case len(i.rows) > 0:
		i.addError(sqlfluent.NewStructuralError("FromSelect", "VALUES and SELECT sources are exclusive"))
	default:
		if n := s.columnCount(); n >= 0 && len(i.columns) > 0 && n != len(i.columns) {
			i.addError(sqlfluent.NewStructuralError("FromSelect", "statement selects %d columns, want %d", n, len(i.columns)))
			return i
		}
		i.sel = s
	}
	return i
}

// Returning sets the RETURNING clause.
func (i *InsertBuilder) Returning(columns ...string) *InsertBuilder {
	i.returning = append(i.returning, columns...)
	return i
}

// Prepare renders the statement into a PreparedQuery.
func (i *InsertBuilder) Prepare(dialectID string) (*PreparedQuery, error) { return Render(i, dialectID) }

// Raw renders the statement with interpolated literals, for debugging only.
func (i *InsertBuilder) Raw(dialectID string) (string, error) { return Interpolate(i, dialectID) }

// SQL renders the statement as a PreparedQuery or as interpolated text.
func (i *InsertBuilder) SQL(dialectID string, prepared bool) (Rendered, error) {
	return SQL(i, dialectID, prepared)
}

func (i *InsertBuilder) render(b *Builder) {
	if i.table == "" {
		b.AddError(sqlfluent.NewStructuralError("Insert", "missing table name"))
		return
	}
	if len(i.columns) > 0 {
		if err := i.checkArity("Insert", len(i.columns)); err != nil {
			b.AddError(err)
			return
		}
	}
	b.WriteString("INSERT INTO ").WriteString(i.table)
	if len(i.columns) > 0 {
		b.WriteString(" (").WriteString(strings.Join(i.columns, ", ")).WriteByte(')')
	}
	switch {
	case i.sel != nil:
		b.WriteByte(' ')
		b.render(i.sel)
	case len(i.rows) > 0:
		b.WriteString(" VALUES ")
		b.Join(len(i.rows), ", ", func(r int) {
			b.WriteByte('(')
			b.Join(len(i.rows[r]), ", ", func(c int) { b.Value(i.rows[r][c]) })
			b.WriteByte(')')
		})
	case len(i.columns) > 0:
		b.AddError(sqlfluent.NewStructuralError("Insert", "columns declared without values"))
		return
	default:
		b.r.defaultValues(b)
	}
	b.returning(i.returning)
}
