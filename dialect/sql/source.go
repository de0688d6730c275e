package sql

import (
	"errors"

	"github.com/syssam/sqlfluent"
)

// Source is a table or a subquery used in FROM or JOIN.
type Source struct {
	table string
	sub   *Selector
	alias string
}

// Table returns a table source. The name is written verbatim.
func Table(name string) Source { return Source{table: name} }

// Subquery returns a subquery source. It must be given an alias with As.
func Subquery(s *Selector) Source { return Source{sub: s} }

// As returns a copy of the source with the given alias.
func (s Source) As(alias string) Source {
	s.alias = alias
	return s
}

// Name returns the table name, or "" for a subquery.
func (s Source) Name() string { return s.table }

// Alias returns the source alias.
func (s Source) Alias() string { return s.alias }

// Query returns the subquery of the source, if any.
func (s Source) Query() *Selector { return s.sub }

func (s Source) check(op string) error {
	switch {
	case s.sub != nil && s.alias == "":
		return sqlfluent.NewStructuralError(op, "subquery source requires an alias")
	case s.sub == nil && s.table == "":
		return sqlfluent.NewStructuralError(op, "missing table name")
	}
	return nil
}

// JoinKind is the kind of a join clause.
type JoinKind uint8

// Join kinds.
const (
	JoinInner JoinKind = iota + 1
	JoinLeft
	JoinRight
	JoinFull
	JoinCross
)

// String returns the SQL keyword of the join.
func (k JoinKind) String() string {
	switch k {
	case JoinInner:
		return "INNER JOIN"
	case JoinLeft:
		return "LEFT JOIN"
	case JoinRight:
		return "RIGHT JOIN"
	case JoinFull:
		return "FULL JOIN"
	case JoinCross:
		return "CROSS JOIN"
	default:
		return "JOIN"
	}
}

// JoinClause is a single join of a statement.
type JoinClause struct {
	Kind   JoinKind
	Source Source
	On     string // Raw constraint expression. Empty for CROSS joins.
}

// joiner holds the join list shared by SELECT, UPDATE and DELETE.
type joiner[S owner] struct {
	self  S
	joins []JoinClause
}

// InnerJoin appends an INNER JOIN with the given constraint expression.
func (j *joiner[S]) InnerJoin(src Source, on string) S {
	return j.join(JoinInner, src, on)
}

// LeftJoin appends a LEFT JOIN with the given constraint expression.
func (j *joiner[S]) LeftJoin(src Source, on string) S {
	return j.join(JoinLeft, src, on)
}

// Joins returns a copy of the join list.
func (j *joiner[S]) Joins() []JoinClause {
	return append([]JoinClause(nil), j.joins...)
}

func (j *joiner[S]) join(kind JoinKind, src Source, on string) S {
	op := kind.String()
	if err := src.check(op); err != nil {
		j.self.addError(err)
		return j.self
	}
	if kind != JoinCross && on == "" {
		j.self.addError(sqlfluent.NewStructuralError(op, "missing join constraint"))
		return j.self
	}
	j.joins = append(j.joins, JoinClause{Kind: kind, Source: src, On: on})
	return j.self
}

// Direction is a sort direction.
type Direction uint8

// Sort directions.
const (
	Asc Direction = iota
	Desc
)

// String returns the SQL keyword of the direction.
func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// Order is an ORDER BY entry. The first entry is the primary sort key.
type Order struct {
	Column    string
	Direction Direction
}

// CTE is a common table expression declared in a WITH clause.
type CTE struct {
	Name      string
	Recursive bool
	Body      *Selector
}

// Union is a statement combined with UNION or UNION ALL.
type Union struct {
	All       bool
	Statement *Selector
}

// errs collects the structural errors of a statement.
type errs struct {
	list []error
}

func (e *errs) addError(err error) {
	if err != nil {
		e.list = append(e.list, err)
	}
}

// Err returns the structural errors recorded by construction calls, if any.
func (e *errs) Err() error {
	if len(e.list) == 1 {
		return e.list[0]
	}
	return errors.Join(e.list...)
}
