package sql

import (
	"github.com/syssam/sqlfluent"
	"github.com/syssam/sqlfluent/dialect"
)

// DeleteBuilder is a builder for the DELETE statement.
type DeleteBuilder struct {
	errs
	filter[*DeleteBuilder]
	joiner[*DeleteBuilder]
	table     string
	alias     string
	order     []Order
	limit     *int
	offset    *int
	returning []string
}

// Delete returns a builder for the DELETE statement.
//
//	Delete("users").Where("id").Equals(1)
func Delete(table string) *DeleteBuilder {
	d := &DeleteBuilder{table: table}
	d.filter.self = d
	d.joiner.self = d
	return d
}

// Kind returns KindDelete.
func (d *DeleteBuilder) Kind() Kind { return KindDelete }

// From sets the table to delete from.
func (d *DeleteBuilder) From(table string) *DeleteBuilder {
	d.table = table
	return d
}

// As sets the alias of the table.
func (d *DeleteBuilder) As(alias string) *DeleteBuilder {
	d.alias = alias
	return d
}

// OrderBy appends an ORDER BY entry. Only MySQL supports it.
func (d *DeleteBuilder) OrderBy(column string, dir Direction) *DeleteBuilder {
	d.order = append(d.order, Order{Column: column, Direction: dir})
	return d
}

// Limit sets the LIMIT clause. Only MySQL supports it.
func (d *DeleteBuilder) Limit(n int) *DeleteBuilder {
	d.limit = count(d, "Limit", n)
	return d
}

// Offset sets an OFFSET. No dialect accepts it on DELETE, so rendering
// fails with an UnsupportedFeatureError.
func (d *DeleteBuilder) Offset(n int) *DeleteBuilder {
	d.offset = count(d, "Offset", n)
	return d
}

// Returning sets the RETURNING clause.
func (d *DeleteBuilder) Returning(columns ...string) *DeleteBuilder {
	d.returning = append(d.returning, columns...)
	return d
}

// Prepare renders the statement into a PreparedQuery.
func (d *DeleteBuilder) Prepare(dialectID string) (*PreparedQuery, error) { return Render(d, dialectID) }

// Raw renders the statement with interpolated literals, for debugging only.
func (d *DeleteBuilder) Raw(dialectID string) (string, error) { return Interpolate(d, dialectID) }

// SQL renders the statement as a PreparedQuery or as interpolated text.
func (d *DeleteBuilder) SQL(dialectID string, prepared bool) (Rendered, error) {
	return SQL(d, dialectID, prepared)
}

func (d *DeleteBuilder) render(b *Builder) {
	if d.table == "" {
		b.AddError(sqlfluent.NewStructuralError("Delete", "missing table name"))
		return
	}
	joined := len(d.joiner.joins) > 0
	if joined {
		if !b.require(dialect.FeatureUpdateJoin) {
			return
		}
		// Multi-table form: DELETE target FROM table JOIN ...
		target := d.table
		if d.alias != "" {
			target = d.alias
		}
		b.WriteString("DELETE ").WriteString(target).WriteString(" FROM ")
	} else {
		b.WriteString("DELETE FROM ")
	}
	b.WriteString(d.table)
	if d.alias != "" {
		b.WriteString(" AS ").WriteString(d.alias)
	}
	b.joins(d.joiner.joins)
	b.where(&d.filter.where)
	b.mutationTail("DELETE", joined, d.order, d.limit, d.offset)
	b.returning(d.returning)
}
