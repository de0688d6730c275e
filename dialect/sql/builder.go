package sql

import (
	"errors"
	"strconv"
	"strings"

	"github.com/syssam/sqlfluent"
	"github.com/syssam/sqlfluent/dialect"
)

// Kind is the statement kind reported by a PreparedQuery.
type Kind string

// Statement kinds.
const (
	KindSelect Kind = "SELECT"
	KindInsert Kind = "INSERT"
	KindUpdate Kind = "UPDATE"
	KindDelete Kind = "DELETE"
)

// Statement is implemented by the four statement builders.
type Statement interface {
	// Kind returns the statement kind.
	Kind() Kind
	// Err returns the structural errors recorded during construction.
	Err() error
	render(*Builder)
}

var (
	_ Statement = (*Selector)(nil)
	_ Statement = (*InsertBuilder)(nil)
	_ Statement = (*UpdateBuilder)(nil)
	_ Statement = (*DeleteBuilder)(nil)
)

// Render renders stmt for the given dialect identifier (e.g. "mysql",
// "pgsql", "sqlite:3.35") into a PreparedQuery. Rendering reads the
// statement only, so a statement that is no longer modified may be
// rendered concurrently.
func Render(stmt Statement, dialectID string) (*PreparedQuery, error) {
	b, err := build(stmt, dialectID, false)
	if err != nil {
		return nil, err
	}
	return &PreparedQuery{
		sql:     b.String(),
		args:    b.args,
		kind:    stmt.Kind(),
		dialect: b.r.flavor().String(),
	}, nil
}

// Interpolate renders stmt with every binding substituted as a quoted
// literal. The result is meant for logging and debugging only and must
// never be executed.
func Interpolate(stmt Statement, dialectID string) (string, error) {
	b, err := build(stmt, dialectID, true)
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// Rendered is the result of SQL: a PreparedQuery, or the interpolated text.
type Rendered struct {
	Prepared *PreparedQuery
	Raw      string
}

// String returns the rendered SQL text.
func (r Rendered) String() string {
	if r.Prepared != nil {
		return r.Prepared.SQL()
	}
	return r.Raw
}

// SQL renders stmt as a PreparedQuery when prepared is true, or as an
// interpolated debug string otherwise.
func SQL(stmt Statement, dialectID string, prepared bool) (Rendered, error) {
	if prepared {
		q, err := Render(stmt, dialectID)
		return Rendered{Prepared: q}, err
	}
	s, err := Interpolate(stmt, dialectID)
	return Rendered{Raw: s}, err
}

func build(stmt Statement, dialectID string, raw bool) (*Builder, error) {
	r, err := rendererFor(dialectID)
	if err != nil {
		return nil, err
	}
	if err := stmt.Err(); err != nil {
		return nil, err
	}
	b := &Builder{r: r, raw: raw}
	stmt.render(b)
	if b.err != nil {
		return nil, b.err
	}
	return b, nil
}

// Builder accumulates the SQL text and bindings of a single render call.
type Builder struct {
	sb   strings.Builder
	r    renderer
	args []any
	raw  bool
	err  error
}

// String returns the accumulated SQL text.
func (b *Builder) String() string { return b.sb.String() }

// Args returns the accumulated bindings.
func (b *Builder) Args() []any { return b.args }

// WriteString writes s verbatim.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// WriteByte writes c verbatim.
func (b *Builder) WriteByte(c byte) *Builder {
	b.sb.WriteByte(c)
	return b
}

// Arg writes a placeholder and appends a binding, or writes the quoted
// literal when interpolating.
func (b *Builder) Arg(v any) *Builder {
	if b.raw {
		lit, err := b.r.literal(v)
		if err != nil {
			b.AddError(err)
			return b
		}
		return b.WriteString(lit)
	}
	b.args = append(b.args, v)
	return b.WriteString(b.r.placeholder(len(b.args)))
}

// Ident writes a dialect-quoted identifier. Dotted names are quoted per
// part and "*" parts are left as is.
func (b *Builder) Ident(name string) *Builder {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if i > 0 {
			b.WriteByte('.')
		}
		if p == "*" {
			b.WriteString(p)
			continue
		}
		b.WriteString(b.r.quote(p))
	}
	return b
}

// Int writes an integer constant.
func (b *Builder) Int(n int) *Builder {
	return b.WriteString(strconv.Itoa(n))
}

// AddError records a render error. Only the first error per statement
// tree is kept, as later text is meaningless.
func (b *Builder) AddError(err error) {
	if err != nil && b.err == nil {
		b.err = err
	}
}

// require reports whether the dialect supports f, recording an
// UnsupportedFeatureError if it does not.
func (b *Builder) require(f dialect.Feature) bool {
	if b.r.flavor().Supports(f) {
		return true
	}
	b.unsupported(f.String())
	return false
}

func (b *Builder) unsupported(feature string) {
	b.AddError(sqlfluent.NewUnsupportedFeatureError(b.r.flavor().String(), feature))
}

// Value writes v according to its tag.
func (b *Builder) Value(v Value) *Builder {
	switch v.kind {
	case ValueLiteral:
		b.Arg(v.lit)
	case ValueColumn:
		if v.quote {
			b.Ident(v.text)
		} else {
			b.WriteString(v.text)
		}
	case ValueRaw:
		b.WriteString(v.text)
	case ValueSubquery:
		b.Nested(v.sub)
	default:
		b.AddError(errors.New("sqlfluent: invalid value"))
	}
	return b
}

// Nested writes a parenthesized subquery. Its bindings are appended at
// the current position so bindings follow placeholder order.
func (b *Builder) Nested(s *Selector) *Builder {
	if s == nil {
		b.AddError(sqlfluent.NewStructuralError("subquery", "nil subquery"))
		return b
	}
	if err := s.Err(); err != nil {
		b.AddError(err)
		return b
	}
	b.WriteByte('(')
	s.render(b)
	return b.WriteByte(')')
}

// Join calls f for every index in [0, n), separating the output with sep.
func (b *Builder) Join(n int, sep string, f func(int)) *Builder {
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(sep)
		}
		f(i)
	}
	return b
}

func (b *Builder) chain(c *Chain) {
	for i, e := range c.entries {
		if i > 0 {
			b.WriteByte(' ').WriteString(e.Connective.String()).WriteByte(' ')
		}
		b.WriteString(e.Predicate.Open)
		b.predicate(e.Predicate)
		b.WriteString(e.Predicate.Close)
	}
}

func (b *Builder) predicate(p Predicate) {
	switch p.Op {
	case OpExists, OpNotExists:
		b.WriteString(p.Op.String()).WriteByte(' ').Value(p.Operands[0])
		return
	case OpJSONContains, OpJSONNotContains:
		if b.require(dialect.FeatureJSON) {
			b.r.jsonContains(b, p.Target.Column, p.Target.JSON.Path, p.Operands[0], p.Op == OpJSONNotContains)
		}
		return
	case OpIn, OpNotIn:
		if len(p.Operands) == 0 {
			// IN () is not valid SQL.
			if p.Op == OpIn {
				b.WriteString("1 = 0")
			} else {
				b.WriteString("1 = 1")
			}
			return
		}
	}
	b.target(p)
	switch p.Op {
	case OpIsNull, OpIsNotNull:
		b.WriteByte(' ').WriteString(p.Op.String())
	case OpIn, OpNotIn:
		b.WriteByte(' ').WriteString(p.Op.String()).WriteByte(' ')
		if len(p.Operands) == 1 && p.Operands[0].kind == ValueSubquery {
			b.Value(p.Operands[0])
			return
		}
		b.WriteByte('(')
		b.Join(len(p.Operands), ", ", func(i int) { b.Value(p.Operands[i]) })
		b.WriteByte(')')
	case OpBetween, OpNotBetween:
		b.WriteByte(' ').WriteString(p.Op.String()).WriteByte(' ')
		b.Value(p.Operands[0]).WriteString(" AND ").Value(p.Operands[1])
	default:
		b.WriteByte(' ').WriteString(p.Op.String()).WriteByte(' ').Value(p.Operands[0])
	}
}

func (b *Builder) target(p Predicate) {
	t := p.Target
	if t.JSON == nil {
		b.WriteString(t.Column)
		return
	}
	if !b.require(dialect.FeatureJSON) {
		return
	}
	switch t.JSON.Mode {
	case JSONLength:
		b.r.jsonLength(b, t.Column, t.JSON.Path)
	default:
		b.r.jsonExtract(b, t.Column, t.JSON.Path, numericOperands(p.Operands))
	}
}

// numericOperands reports whether the comparison operands are numeric
// literals, which some dialects need to cast extracted JSON text for.
func numericOperands(vs []Value) bool {
	if len(vs) == 0 {
		return false
	}
	for _, v := range vs {
		if v.kind != ValueLiteral {
			return false
		}
		switch v.lit.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		default:
			return false
		}
	}
	return true
}

func (b *Builder) source(s Source) {
	if s.sub != nil {
		b.Nested(s.sub)
	} else {
		b.WriteString(s.table)
	}
	if s.alias != "" {
		b.WriteString(" AS ").WriteString(s.alias)
	}
}

func (b *Builder) joins(js []JoinClause) {
	for _, j := range js {
		switch j.Kind {
		case JoinRight:
			if !b.require(dialect.FeatureRightJoin) {
				return
			}
		case JoinFull:
			if !b.require(dialect.FeatureFullJoin) {
				return
			}
		}
		b.WriteByte(' ').WriteString(j.Kind.String()).WriteByte(' ')
		b.source(j.Source)
		if j.Kind != JoinCross {
			b.WriteString(" ON ").WriteString(j.On)
		}
	}
}

func (b *Builder) where(c *Chain) {
	if c.Len() > 0 {
		b.WriteString(" WHERE ")
		b.chain(c)
	}
}

func (b *Builder) orderBy(orders []Order) {
	if len(orders) == 0 {
		return
	}
	b.WriteString(" ORDER BY ")
	b.Join(len(orders), ", ", func(i int) {
		b.WriteString(orders[i].Column).WriteByte(' ').WriteString(orders[i].Direction.String())
	})
}

func (b *Builder) returning(columns []string) {
	if len(columns) == 0 || !b.require(dialect.FeatureReturning) {
		return
	}
	b.WriteString(" RETURNING ").WriteString(strings.Join(columns, ", "))
}
