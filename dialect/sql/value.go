package sql

import (
	"fmt"
	"strings"

	"github.com/syssam/sqlfluent"
)

// ValueKind is the tag of a Value.
type ValueKind uint8

// Value kinds.
const (
	ValueLiteral ValueKind = iota + 1
	ValueColumn
	ValueRaw
	ValueSubquery
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case ValueLiteral:
		return "literal"
	case ValueColumn:
		return "column"
	case ValueRaw:
		return "raw"
	case ValueSubquery:
		return "subquery"
	default:
		return "invalid"
	}
}

// Value is an operand of a statement: a bound literal, a column reference,
// a raw SQL expression or a nested SELECT. Only literals produce bindings.
type Value struct {
	kind  ValueKind
	lit   any
	text  string
	quote bool
	sub   *Selector
}

// Lit returns a literal value. It is always rendered as a placeholder
// with a binding, including nil which binds NULL.
func Lit(v any) Value { return Value{kind: ValueLiteral, lit: v} }

// Col returns a column reference that is written to the query verbatim.
func Col(name string) Value { return Value{kind: ValueColumn, text: name} }

// Ident returns a column reference quoted with the dialect identifier quote.
// Dotted names are quoted per part, e.g. `u`.`id` on MySQL.
func Ident(name string) Value { return Value{kind: ValueColumn, text: name, quote: true} }

// Raw returns a raw SQL expression. Its text is written verbatim and must
// never contain caller-supplied data.
func Raw(expr string) Value { return Value{kind: ValueRaw, text: expr} }

// Sub returns a subquery value.
func Sub(s *Selector) Value { return Value{kind: ValueSubquery, sub: s} }

// Kind returns the value tag.
func (v Value) Kind() ValueKind { return v.kind }

// Literal returns the literal payload of a ValueLiteral.
func (v Value) Literal() any { return v.lit }

// Text returns the text of a column or raw value.
func (v Value) Text() string { return v.text }

// Subquery returns the nested SELECT of a ValueSubquery.
func (v Value) Subquery() *Selector { return v.sub }

// String implements the fmt.Stringer interface.
func (v Value) String() string {
	switch v.kind {
	case ValueLiteral:
		return fmt.Sprintf("Lit(%v)", v.lit)
	case ValueColumn:
		return "Col(" + v.text + ")"
	case ValueRaw:
		return "Raw(" + v.text + ")"
	case ValueSubquery:
		return "Sub(SELECT)"
	default:
		return "Value(invalid)"
	}
}

// valueOf wraps a construction argument into a Value. Values pass through,
// selectors become subqueries and everything else is a literal.
func valueOf(a any) Value {
	switch a := a.(type) {
	case Value:
		return a
	case *Selector:
		return Sub(a)
	default:
		return Lit(a)
	}
}

// scalar checks that a subquery value used in a scalar position returns
// exactly one column.
func (v Value) scalar(op string) error {
	if v.kind != ValueSubquery {
		return nil
	}
	if v.sub == nil {
		return sqlfluent.NewStructuralError(op, "nil subquery")
	}
	if n := v.sub.columnCount(); n != 1 {
		return sqlfluent.NewStructuralError(op, "scalar subquery must select exactly one column, got %s", arity(n))
	}
	return nil
}

func arity(n int) string {
	if n < 0 {
		return "*"
	}
	return fmt.Sprint(n)
}

// countColumns counts the entries of a select list, splitting each item on
// top-level commas. It returns -1 if the list contains a star.
func countColumns(list []string) int {
	n := 0
	for _, c := range list {
		for _, part := range splitTopLevel(c) {
			p := strings.TrimSpace(part)
			if p == "*" || strings.HasSuffix(p, ".*") {
				return -1
			}
			if p != "" {
				n++
			}
		}
	}
	return n
}

func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
