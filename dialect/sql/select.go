package sql

import (
	"github.com/syssam/sqlfluent"
	"github.com/syssam/sqlfluent/dialect"
)

// Selector is a builder for the SELECT statement.
type Selector struct {
	errs
	filter[*Selector]
	joiner[*Selector]
	ctes      []CTE
	distinct  bool
	selection []selection
	from      *Source
	group     []string
	having    Chain
	unions    []Union
	order     []Order
	limit     *int
	offset    *int
}

type selection struct {
	expr  string
	sub   *Selector
	alias string
}

// Select returns a builder for the SELECT statement. Columns are written
// verbatim, so "id,name" and "COUNT(*) AS n" are both valid.
//
//	Select("id", "name").From("users").Where("status").Equals("active")
func Select(columns ...string) *Selector {
	s := &Selector{}
	s.filter.self = s
	s.joiner.self = s
	return s.Columns(columns...)
}

// Kind returns KindSelect.
func (s *Selector) Kind() Kind { return KindSelect }

// Columns appends columns to the select list.
func (s *Selector) Columns(columns ...string) *Selector {
	for _, c := range columns {
		s.selection = append(s.selection, selection{expr: c})
	}
	return s
}

// SelectSubquery appends "(sub) AS alias" to the select list. The
// subquery must select a single column and the alias is required.
func (s *Selector) SelectSubquery(sub *Selector, alias string) *Selector {
	if alias == "" {
		s.addError(sqlfluent.NewStructuralError("SelectSubquery", "subquery column requires an alias"))
		return s
	}
	if err := Sub(sub).scalar("SelectSubquery"); err != nil {
		s.addError(err)
		return s
	}
	s.selection = append(s.selection, selection{sub: sub, alias: alias})
	return s
}

// Distinct adds the DISTINCT keyword.
func (s *Selector) Distinct() *Selector {
	s.distinct = true
	return s
}

// From sets the table to select from.
func (s *Selector) From(table string) *Selector {
	return s.FromSource(Table(table))
}

// FromSource sets the FROM source: a table or an aliased subquery.
func (s *Selector) FromSource(src Source) *Selector {
	if err := src.check("From"); err != nil {
		s.addError(err)
		return s
	}
	s.from = &src
	return s
}

// With declares a common table expression.
func (s *Selector) With(name string, body *Selector) *Selector {
	return s.with("With", name, body, false)
}

// WithRecursive declares a recursive common table expression. Its body
// must combine the anchor and recursive members with a union.
func (s *Selector) WithRecursive(name string, body *Selector) *Selector {
	return s.with("WithRecursive", name, body, true)
}

func (s *Selector) with(op, name string, body *Selector, recursive bool) *Selector {
	switch {
	case name == "":
		s.addError(sqlfluent.NewStructuralError(op, "common table expression requires a name"))
	case body == nil:
		s.addError(sqlfluent.NewStructuralError(op, "nil body for %q", name))
	case recursive && len(body.unions) == 0:
		s.addError(sqlfluent.NewStructuralError(op, "recursive body of %q must contain a union", name))
	default:
		s.ctes = append(s.ctes, CTE{Name: name, Recursive: recursive, Body: body})
	}
	return s
}

// GroupBy appends GROUP BY columns.
func (s *Selector) GroupBy(columns ...string) *Selector {
	s.group = append(s.group, columns...)
	return s
}

// Having starts a HAVING predicate, combined with AND when the clause
// already has predicates.
func (s *Selector) Having(column string) *Condition[*Selector] {
	return newCondition(s, &s.having, And, Target{Column: column})
}

// AndHaving starts a HAVING predicate combined with AND.
func (s *Selector) AndHaving(column string) *Condition[*Selector] {
	return newCondition(s, &s.having, And, Target{Column: column})
}

// OrHaving starts a HAVING predicate combined with OR.
func (s *Selector) OrHaving(column string) *Condition[*Selector] {
	return newCondition(s, &s.having, Or, Target{Column: column})
}

// HavingJSON starts a HAVING predicate on a JSON column, combined with AND
// when the clause already has predicates.
func (s *Selector) HavingJSON(column string) *JSONCondition[*Selector] {
	return &JSONCondition[*Selector]{owner: s, chain: &s.having, conn: And, column: column}
}

// AndHavingJSON starts a HAVING predicate on a JSON column combined with AND.
func (s *Selector) AndHavingJSON(column string) *JSONCondition[*Selector] {
	return &JSONCondition[*Selector]{owner: s, chain: &s.having, conn: And, column: column}
}

// OrHavingJSON starts a HAVING predicate on a JSON column combined with OR.
func (s *Selector) OrHavingJSON(column string) *JSONCondition[*Selector] {
	return &JSONCondition[*Selector]{owner: s, chain: &s.having, conn: Or, column: column}
}

// HavingChain returns the HAVING chain of the statement.
func (s *Selector) HavingChain() *Chain { return &s.having }

// Union appends a UNION member. Both sides must select the same number of
// columns; this is checked when both select lists are explicit.
func (s *Selector) Union(other *Selector) *Selector {
	return s.union("Union", other, false)
}

// UnionAll appends a UNION ALL member.
func (s *Selector) UnionAll(other *Selector) *Selector {
	return s.union("UnionAll", other, true)
}

func (s *Selector) union(op string, other *Selector, all bool) *Selector {
	if other == nil {
		s.addError(sqlfluent.NewStructuralError(op, "nil statement"))
		return s
	}
	if n, m := s.columnCount(), other.columnCount(); n >= 0 && m >= 0 && n != m {
		s.addError(sqlfluent.NewStructuralError(op, "member selects %d columns, want %d", m, n))
		return s
	}
	s.unions = append(s.unions, Union{All: all, Statement: other})
	return s
}

// OrderBy appends an ORDER BY entry.
func (s *Selector) OrderBy(column string, dir Direction) *Selector {
	s.order = append(s.order, Order{Column: column, Direction: dir})
	return s
}

// Limit sets the LIMIT clause.
func (s *Selector) Limit(n int) *Selector {
	s.limit = count(s, "Limit", n)
	return s
}

// Offset sets the OFFSET clause.
func (s *Selector) Offset(n int) *Selector {
	s.offset = count(s, "Offset", n)
	return s
}

// count validates a LIMIT or OFFSET value.
func count(o owner, op string, n int) *int {
	if n < 0 {
		o.addError(sqlfluent.NewStructuralError(op, "negative value %d", n))
		return nil
	}
	return &n
}

// RightJoin appends a RIGHT JOIN.
func (s *Selector) RightJoin(src Source, on string) *Selector {
	return s.join(JoinRight, src, on)
}

// FullJoin appends a FULL JOIN.
func (s *Selector) FullJoin(src Source, on string) *Selector {
	return s.join(JoinFull, src, on)
}

// CrossJoin appends a CROSS JOIN. Cross joins take no constraint.
func (s *Selector) CrossJoin(src Source) *Selector {
	return s.join(JoinCross, src, "")
}

// CTEs returns a copy of the declared common table expressions.
func (s *Selector) CTEs() []CTE { return append([]CTE(nil), s.ctes...) }

// Unions returns a copy of the union members.
func (s *Selector) Unions() []Union { return append([]Union(nil), s.unions...) }

// Orders returns a copy of the ORDER BY entries.
func (s *Selector) Orders() []Order { return append([]Order(nil), s.order...) }

// Prepare renders the statement into a PreparedQuery.
func (s *Selector) Prepare(dialectID string) (*PreparedQuery, error) { return Render(s, dialectID) }

// Raw renders the statement with interpolated literals, for debugging only.
func (s *Selector) Raw(dialectID string) (string, error) { return Interpolate(s, dialectID) }

// SQL renders the statement as a PreparedQuery or, when prepared is false,
// as interpolated text.
func (s *Selector) SQL(dialectID string, prepared bool) (Rendered, error) {
	return SQL(s, dialectID, prepared)
}

// columnCount returns the number of selected columns, or -1 if unknown.
func (s *Selector) columnCount() int {
	if len(s.selection) == 0 {
		return -1
	}
	n := 0
	for _, c := range s.selection {
		if c.sub != nil {
			n++
			continue
		}
		m := countColumns([]string{c.expr})
		if m < 0 {
			return -1
		}
		n += m
	}
	return n
}

// compound reports whether the statement needs parentheses when used as a
// union member. A member with its own unions is grouped to keep its nesting.
func (s *Selector) compound() bool {
	return len(s.ctes) > 0 || len(s.unions) > 0 || len(s.order) > 0 || s.limit != nil || s.offset != nil
}

func (s *Selector) render(b *Builder) {
	s.renderWith(b)
	b.WriteString("SELECT ")
	if s.distinct {
		b.WriteString("DISTINCT ")
	}
	if len(s.selection) == 0 {
		b.WriteByte('*')
	}
	b.Join(len(s.selection), ", ", func(i int) {
		c := s.selection[i]
		if c.sub == nil {
			b.WriteString(c.expr)
			return
		}
		b.Nested(c.sub).WriteString(" AS ").WriteString(c.alias)
	})
	if s.from != nil {
		b.WriteString(" FROM ")
		b.source(*s.from)
	}
	b.joins(s.joiner.joins)
	b.where(&s.filter.where)
	if len(s.group) > 0 {
		b.WriteString(" GROUP BY ")
		b.Join(len(s.group), ", ", func(i int) { b.WriteString(s.group[i]) })
	}
	if s.having.Len() > 0 {
		b.WriteString(" HAVING ")
		b.chain(&s.having)
	}
	for _, u := range s.unions {
		b.WriteString(" UNION ")
		if u.All {
			b.WriteString("ALL ")
		}
		if !u.Statement.compound() {
			b.render(u.Statement)
			continue
		}
		// SQLite does not accept parenthesized compound members.
		if b.r.flavor().Name == dialect.SQLite {
			if len(u.Statement.unions) > 0 {
				b.unsupported("nested UNION member")
			} else {
				b.unsupported("ordered or paginated UNION member")
			}
			return
		}
		b.Nested(u.Statement)
	}
	b.orderBy(s.order)
	b.r.limitOffset(b, s.limit, s.offset)
}

func (s *Selector) renderWith(b *Builder) {
	if len(s.ctes) == 0 {
		return
	}
	recursive := false
	for _, c := range s.ctes {
		recursive = recursive || c.Recursive
	}
	if recursive && !b.require(dialect.FeatureRecursiveCTE) || !b.require(dialect.FeatureCTE) {
		return
	}
	b.WriteString("WITH ")
	if recursive {
		b.WriteString("RECURSIVE ")
	}
	b.Join(len(s.ctes), ", ", func(i int) {
		b.WriteString(s.ctes[i].Name).WriteString(" AS ").Nested(s.ctes[i].Body)
	})
	b.WriteByte(' ')
}

// render writes a statement that is not parenthesized, checking its
// recorded construction errors first.
func (b *Builder) render(s *Selector) {
	if err := s.Err(); err != nil {
		b.AddError(err)
		return
	}
	s.render(b)
}
