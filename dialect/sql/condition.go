package sql

import (
	"reflect"

	"github.com/syssam/sqlfluent"
)

// CondOption configures a single comparison call.
type CondOption func(*condConfig)

type condConfig struct {
	open, close string
	expr        bool
	optional    bool
	path        string
}

func newCondConfig(opts []CondOption) *condConfig {
	cfg := &condConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// OpenBracket writes s verbatim before the predicate, e.g. "(" or "NOT (".
func OpenBracket(s string) CondOption {
	return func(c *condConfig) {
		c.open = s
	}
}

// CloseBracket writes s verbatim after the predicate.
func CloseBracket(s string) CondOption {
	return func(c *condConfig) {
		c.close = s
	}
}

// AsExpr renders string operands as column expressions instead of binding
// them, e.g. Where("a.id").Equals("b.a_id", AsExpr()).
func AsExpr() CondOption {
	return func(c *condConfig) {
		c.expr = true
	}
}

// Optional skips the predicate entirely when the operand is nil, an empty
// string or an empty slice.
func Optional() CondOption {
	return func(c *condConfig) {
		c.optional = true
	}
}

// AtPath sets the JSON path a containment check is applied to.
// The document root is used by default.
func AtPath(path string) CondOption {
	return func(c *condConfig) {
		c.path = path
	}
}

// owner is implemented by the statements a condition can return to.
type owner interface {
	addError(error)
}

// Filter is the condition capability shared by SELECT, UPDATE and DELETE.
type Filter[S owner] interface {
	Where(column string) *Condition[S]
	And(column string) *Condition[S]
	Or(column string) *Condition[S]
	WhereJSON(column string) *JSONCondition[S]
	AndJSON(column string) *JSONCondition[S]
	OrJSON(column string) *JSONCondition[S]
}

// filter holds the WHERE chain of a statement and implements Filter.
type filter[S owner] struct {
	self  S
	where Chain
}

// Where starts a predicate on column. It is combined with AND when the
// WHERE clause already has predicates. An empty column is allowed for
// Exists and NotExists.
func (f *filter[S]) Where(column string) *Condition[S] {
	return newCondition(f.self, &f.where, And, Target{Column: column})
}

// And starts a predicate combined with AND.
func (f *filter[S]) And(column string) *Condition[S] {
	return newCondition(f.self, &f.where, And, Target{Column: column})
}

// Or starts a predicate combined with OR.
func (f *filter[S]) Or(column string) *Condition[S] {
	return newCondition(f.self, &f.where, Or, Target{Column: column})
}

// WhereJSON starts a predicate on a JSON column.
func (f *filter[S]) WhereJSON(column string) *JSONCondition[S] {
	return &JSONCondition[S]{owner: f.self, chain: &f.where, conn: And, column: column}
}

// AndJSON starts a JSON predicate combined with AND.
func (f *filter[S]) AndJSON(column string) *JSONCondition[S] {
	return &JSONCondition[S]{owner: f.self, chain: &f.where, conn: And, column: column}
}

// OrJSON starts a JSON predicate combined with OR.
func (f *filter[S]) OrJSON(column string) *JSONCondition[S] {
	return &JSONCondition[S]{owner: f.self, chain: &f.where, conn: Or, column: column}
}

// WhereChain returns the WHERE chain of the statement.
func (f *filter[S]) WhereChain() *Chain { return &f.where }

// Condition is a pending predicate. It is completed by exactly one
// comparison call, which appends the predicate and returns the statement.
type Condition[S owner] struct {
	owner  S
	chain  *Chain
	conn   Connective
	target Target
	err    error
}

func newCondition[S owner](o S, chain *Chain, conn Connective, t Target) *Condition[S] {
	return &Condition[S]{owner: o, chain: chain, conn: conn, target: t}
}

// Equals appends "column = v".
func (c *Condition[S]) Equals(v any, opts ...CondOption) S { return c.compare(OpEQ, v, opts) }

// NotEquals appends "column <> v".
func (c *Condition[S]) NotEquals(v any, opts ...CondOption) S { return c.compare(OpNEQ, v, opts) }

// Greater appends "column > v".
func (c *Condition[S]) Greater(v any, opts ...CondOption) S { return c.compare(OpGT, v, opts) }

// GreaterEquals appends "column >= v".
func (c *Condition[S]) GreaterEquals(v any, opts ...CondOption) S { return c.compare(OpGTE, v, opts) }

// Lower appends "column < v".
func (c *Condition[S]) Lower(v any, opts ...CondOption) S { return c.compare(OpLT, v, opts) }

// LowerEquals appends "column <= v".
func (c *Condition[S]) LowerEquals(v any, opts ...CondOption) S { return c.compare(OpLTE, v, opts) }

// Like appends "column LIKE pattern".
func (c *Condition[S]) Like(pattern any, opts ...CondOption) S { return c.compare(OpLike, pattern, opts) }

// NotLike appends "column NOT LIKE pattern".
func (c *Condition[S]) NotLike(pattern any, opts ...CondOption) S {
	return c.compare(OpNotLike, pattern, opts)
}

// In appends "column IN (...)". values is a slice of operands, a single
// operand, or a *Selector / Sub value for "column IN (SELECT ...)".
func (c *Condition[S]) In(values any, opts ...CondOption) S { return c.list(OpIn, values, opts) }

// NotIn appends "column NOT IN (...)".
func (c *Condition[S]) NotIn(values any, opts ...CondOption) S { return c.list(OpNotIn, values, opts) }

// IsNull appends "column IS NULL".
func (c *Condition[S]) IsNull(opts ...CondOption) S { return c.unary(OpIsNull, opts) }

// IsNotNull appends "column IS NOT NULL".
func (c *Condition[S]) IsNotNull(opts ...CondOption) S { return c.unary(OpIsNotNull, opts) }

// Between appends "column BETWEEN lo AND hi".
func (c *Condition[S]) Between(lo, hi any, opts ...CondOption) S {
	return c.between(OpBetween, lo, hi, opts)
}

// NotBetween appends "column NOT BETWEEN lo AND hi".
func (c *Condition[S]) NotBetween(lo, hi any, opts ...CondOption) S {
	return c.between(OpNotBetween, lo, hi, opts)
}

// Exists appends "EXISTS (subquery)". The condition column is ignored.
func (c *Condition[S]) Exists(sub *Selector, opts ...CondOption) S {
	return c.exists(OpExists, sub, opts)
}

// NotExists appends "NOT EXISTS (subquery)".
func (c *Condition[S]) NotExists(sub *Selector, opts ...CondOption) S {
	return c.exists(OpNotExists, sub, opts)
}

func (c *Condition[S]) compare(op Op, v any, opts []CondOption) S {
	cfg := newCondConfig(opts)
	if cfg.optional && isEmpty(v) {
		return c.owner
	}
	operand := cfg.operand(v)
	if err := operand.scalar(op.String()); err != nil {
		c.owner.addError(err)
		return c.owner
	}
	return c.append(op, cfg, operand)
}

func (c *Condition[S]) list(op Op, values any, opts []CondOption) S {
	cfg := newCondConfig(opts)
	if cfg.optional && isEmpty(values) {
		return c.owner
	}
	var operands []Value
	switch vs := values.(type) {
	case *Selector, Value:
		operands = []Value{cfg.operand(vs)}
	case []any:
		for _, v := range vs {
			operands = append(operands, cfg.operand(v))
		}
	case []byte:
		operands = []Value{cfg.operand(vs)}
	default:
		rv := reflect.ValueOf(values)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			operands = []Value{cfg.operand(values)}
			break
		}
		for i := 0; i < rv.Len(); i++ {
			operands = append(operands, cfg.operand(rv.Index(i).Interface()))
		}
	}
	for _, o := range operands {
		if err := o.scalar(op.String()); err != nil {
			c.owner.addError(err)
			return c.owner
		}
	}
	return c.append(op, cfg, operands...)
}

func (c *Condition[S]) unary(op Op, opts []CondOption) S {
	return c.append(op, newCondConfig(opts))
}

func (c *Condition[S]) between(op Op, lo, hi any, opts []CondOption) S {
	cfg := newCondConfig(opts)
	if cfg.optional && (isEmpty(lo) || isEmpty(hi)) {
		return c.owner
	}
	operands := []Value{cfg.operand(lo), cfg.operand(hi)}
	for _, o := range operands {
		if err := o.scalar(op.String()); err != nil {
			c.owner.addError(err)
			return c.owner
		}
	}
	return c.append(op, cfg, operands...)
}

func (c *Condition[S]) exists(op Op, sub *Selector, opts []CondOption) S {
	if sub == nil {
		c.owner.addError(sqlfluent.NewStructuralError(op.String(), "nil subquery"))
		return c.owner
	}
	// EXISTS has no left-hand side.
	c.target = Target{}
	return c.append(op, newCondConfig(opts), Sub(sub))
}

func (c *Condition[S]) append(op Op, cfg *condConfig, operands ...Value) S {
	if c.err != nil {
		c.owner.addError(c.err)
		return c.owner
	}
	c.chain.add(c.conn, Predicate{
		Target:     c.target,
		Op:         op,
		Operands:   operands,
		Expression: cfg.expr,
		Open:       cfg.open,
		Close:      cfg.close,
	})
	return c.owner
}

// operand wraps a comparison argument, honoring AsExpr.
func (cfg *condConfig) operand(v any) Value {
	if s, ok := v.(string); ok && cfg.expr {
		return Col(s)
	}
	return valueOf(v)
}

// JSONCondition is a pending predicate on a JSON column. Extract or Length
// resolves a path before a comparison; Contains and NotContains complete
// the predicate directly.
type JSONCondition[S owner] struct {
	owner  S
	chain  *Chain
	conn   Connective
	column string
}

// Extract compares the scalar at path.
func (j *JSONCondition[S]) Extract(path string) *Condition[S] {
	return j.resolve(JSONExtract, path)
}

// Length compares the length of the array at path.
func (j *JSONCondition[S]) Length(path string) *Condition[S] {
	return j.resolve(JSONLength, path)
}

func (j *JSONCondition[S]) resolve(mode JSONMode, path string) *Condition[S] {
	p, err := ParseJSONPath(path)
	c := newCondition(j.owner, j.chain, j.conn, Target{
		Column: j.column,
		JSON:   &JSONTarget{Mode: mode, Path: p},
	})
	c.err = err
	return c
}

// Contains appends a predicate checking that the JSON document (or the
// value at AtPath) contains v.
func (j *JSONCondition[S]) Contains(v any, opts ...CondOption) S {
	return j.contains(OpJSONContains, v, opts)
}

// NotContains is the negation of Contains.
func (j *JSONCondition[S]) NotContains(v any, opts ...CondOption) S {
	return j.contains(OpJSONNotContains, v, opts)
}

func (j *JSONCondition[S]) contains(op Op, v any, opts []CondOption) S {
	cfg := newCondConfig(opts)
	if cfg.optional && isEmpty(v) {
		return j.owner
	}
	path := cfg.path
	if path == "" {
		path = "$"
	}
	c := j.resolve(JSONContainer, path)
	operand := valueOf(v)
	if operand.kind == ValueSubquery {
		j.owner.addError(sqlfluent.NewStructuralError(op.String(), "subquery operand is not supported"))
		return j.owner
	}
	return c.append(op, cfg, operand)
}

// isEmpty reports whether an operand is absent for Optional comparisons.
func isEmpty(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case Value:
		return v.kind == ValueLiteral && isEmpty(v.lit)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	}
	return false
}
