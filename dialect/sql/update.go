package sql

import (
	"sort"

	"github.com/syssam/sqlfluent"
	"github.com/syssam/sqlfluent/dialect"
)

// UpdateBuilder is a builder for the UPDATE statement.
type UpdateBuilder struct {
	errs
	filter[*UpdateBuilder]
	joiner[*UpdateBuilder]
	table     string
	alias     string
	sets      []assignment
	order     []Order
	limit     *int
	offset    *int
	returning []string
}

type assignment struct {
	column string
	value  Value
}

// Update returns a builder for the UPDATE statement.
//
//	Update("users").Set("name", "foo").Where("id").Equals(1)
func Update(table string) *UpdateBuilder {
	u := &UpdateBuilder{table: table}
	u.filter.self = u
	u.joiner.self = u
	return u
}

// Kind returns KindUpdate.
func (u *UpdateBuilder) Kind() Kind { return KindUpdate }

// Table sets the table to update.
func (u *UpdateBuilder) Table(table string) *UpdateBuilder {
	u.table = table
	return u
}

// As sets the alias of the updated table.
func (u *UpdateBuilder) As(alias string) *UpdateBuilder {
	u.alias = alias
	return u
}

// Set appends a "column = v" assignment. v may be a literal, a column
// value (Col/Ident), a raw expression or a single-column subquery.
func (u *UpdateBuilder) Set(column string, v any) *UpdateBuilder {
	if column == "" {
		u.addError(sqlfluent.NewStructuralError("Set", "missing column name"))
		return u
	}
	value := valueOf(v)
	if err := value.scalar("Set"); err != nil {
		u.addError(err)
		return u
	}
	u.sets = append(u.sets, assignment{column: column, value: value})
	return u
}

// SetMultiple appends an assignment per map entry, ordered by column name.
func (u *UpdateBuilder) SetMultiple(values map[string]any) *UpdateBuilder {
	columns := make([]string, 0, len(values))
	for c := range values {
		columns = append(columns, c)
	}
	sort.Strings(columns)
	for _, c := range columns {
		u.Set(c, values[c])
	}
	return u
}

// OrderBy appends an ORDER BY entry. Only MySQL supports it.
func (u *UpdateBuilder) OrderBy(column string, dir Direction) *UpdateBuilder {
	u.order = append(u.order, Order{Column: column, Direction: dir})
	return u
}

// Limit sets the LIMIT clause. Only MySQL supports it.
func (u *UpdateBuilder) Limit(n int) *UpdateBuilder {
	u.limit = count(u, "Limit", n)
	return u
}

// Offset sets an OFFSET. No dialect accepts it on UPDATE, so rendering
// fails with an UnsupportedFeatureError.
func (u *UpdateBuilder) Offset(n int) *UpdateBuilder {
	u.offset = count(u, "Offset", n)
	return u
}

// Returning sets the RETURNING clause.
func (u *UpdateBuilder) Returning(columns ...string) *UpdateBuilder {
	u.returning = append(u.returning, columns...)
	return u
}

// Prepare renders the statement into a PreparedQuery.
func (u *UpdateBuilder) Prepare(dialectID string) (*PreparedQuery, error) { return Render(u, dialectID) }

// Raw renders the statement with interpolated literals, for debugging only.
func (u *UpdateBuilder) Raw(dialectID string) (string, error) { return Interpolate(u, dialectID) }

// SQL renders the statement as a PreparedQuery or as interpolated text.
func (u *UpdateBuilder) SQL(dialectID string, prepared bool) (Rendered, error) {
	return SQL(u, dialectID, prepared)
}

func (u *UpdateBuilder) render(b *Builder) {
	switch {
	case u.table == "":
		b.AddError(sqlfluent.NewStructuralError("Update", "missing table name"))
		return
	case len(u.sets) == 0:
		b.AddError(sqlfluent.NewStructuralError("Update", "no assignments"))
		return
	}
	b.WriteString("UPDATE ").WriteString(u.table)
	if u.alias != "" {
		b.WriteString(" AS ").WriteString(u.alias)
	}
	if len(u.joiner.joins) > 0 {
		if !b.require(dialect.FeatureUpdateJoin) {
			return
		}
		b.joins(u.joiner.joins)
	}
	b.WriteString(" SET ")
	b.Join(len(u.sets), ", ", func(i int) {
		b.WriteString(u.sets[i].column).WriteString(" = ").Value(u.sets[i].value)
	})
	b.where(&u.filter.where)
	b.mutationTail("UPDATE", len(u.joiner.joins) > 0, u.order, u.limit, u.offset)
	b.returning(u.returning)
}

// mutationTail writes ORDER BY and LIMIT of UPDATE and DELETE statements.
func (b *Builder) mutationTail(kind string, joined bool, order []Order, limit, offset *int) {
	if offset != nil {
		b.unsupported("OFFSET in " + kind)
		return
	}
	if len(order) == 0 && limit == nil {
		return
	}
	if !b.require(dialect.FeatureUpdateLimit) {
		return
	}
	if joined {
		b.unsupported("ORDER BY/LIMIT in multi-table " + kind)
		return
	}
	b.orderBy(order)
	if limit != nil {
		b.WriteString(" LIMIT ").Int(*limit)
	}
}
