package sql

import (
	"strconv"
	"strings"

	"github.com/syssam/sqlfluent"
)

// Op is a predicate operator.
type Op uint8

// Predicate operators.
const (
	OpEQ Op = iota + 1
	OpNEQ
	OpGT
	OpGTE
	OpLT
	OpLTE
	OpIn
	OpNotIn
	OpLike
	OpNotLike
	OpIsNull
	OpIsNotNull
	OpBetween
	OpNotBetween
	OpExists
	OpNotExists
	OpJSONContains
	OpJSONNotContains
)

var ops = [...]string{
	OpEQ:              "=",
	OpNEQ:             "<>",
	OpGT:              ">",
	OpGTE:             ">=",
	OpLT:              "<",
	OpLTE:             "<=",
	OpIn:              "IN",
	OpNotIn:           "NOT IN",
	OpLike:            "LIKE",
	OpNotLike:         "NOT LIKE",
	OpIsNull:          "IS NULL",
	OpIsNotNull:       "IS NOT NULL",
	OpBetween:         "BETWEEN",
	OpNotBetween:      "NOT BETWEEN",
	OpExists:          "EXISTS",
	OpNotExists:       "NOT EXISTS",
	OpJSONContains:    "JSON_CONTAINS",
	OpJSONNotContains: "JSON_NOT_CONTAINS",
}

// String returns the SQL spelling of the operator.
func (o Op) String() string {
	if int(o) < len(ops) && ops[o] != "" {
		return ops[o]
	}
	return "Op(" + strconv.Itoa(int(o)) + ")"
}

// Connective joins a predicate to the one before it in a chain.
type Connective uint8

// Connectives. The first entry of a chain is always None.
const (
	None Connective = iota
	And
	Or
)

// String returns the SQL keyword of the connective.
func (c Connective) String() string {
	switch c {
	case And:
		return "AND"
	case Or:
		return "OR"
	default:
		return ""
	}
}

// JSONMode is the resolution applied to a JSON column before comparison.
type JSONMode uint8

// JSON resolution modes.
const (
	JSONExtract JSONMode = iota + 1
	JSONLength
	// JSONContainer locates the document a containment check applies to.
	JSONContainer
)

// Target is the left-hand side of a predicate: a column, or a JSON path
// resolved on a column.
type Target struct {
	Column string
	JSON   *JSONTarget
}

// JSONTarget resolves a JSON path on a column.
type JSONTarget struct {
	Mode JSONMode
	Path JSONPath
}

// Predicate is one atomic comparison within a WHERE or HAVING chain.
type Predicate struct {
	Target   Target
	Op       Op
	Operands []Value
	// Expression reports whether the right-hand operands were given
	// as raw column expressions instead of bound literals.
	Expression bool
	// Open and Close are bracket literals copied verbatim around the predicate.
	Open, Close string
}

// Entry is a predicate with the connective it was added with.
type Entry struct {
	Connective Connective
	Predicate  Predicate
}

// Chain is an ordered sequence of predicates combined by AND/OR.
// Bracket balance is the caller's responsibility and is never checked.
type Chain struct {
	entries []Entry
}

// Len returns the number of predicates in the chain.
func (c *Chain) Len() int { return len(c.entries) }

// Entries returns a copy of the chain entries.
func (c *Chain) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

func (c *Chain) add(conn Connective, p Predicate) {
	if len(c.entries) == 0 {
		conn = None
	}
	c.entries = append(c.entries, Entry{Connective: conn, Predicate: p})
}

// JSONPath is a validated JSON path such as $.a.b[0].
type JSONPath struct {
	segs []pathSeg
}

type pathSeg struct {
	key   string
	index int
	isIdx bool
}

// ParseJSONPath parses a path of the form $, $.key, $.key[0].other.
// Keys are restricted to identifiers so the path can be inlined safely.
func ParseJSONPath(path string) (JSONPath, error) {
	if !strings.HasPrefix(path, "$") {
		return JSONPath{}, sqlfluent.NewStructuralError("JSONPath", "path %q must start with $", path)
	}
	var (
		p JSONPath
		s = path[1:]
	)
	for len(s) > 0 {
		switch s[0] {
		case '.':
			i := 1
			for i < len(s) && isIdentByte(s[i], i == 1) {
				i++
			}
			if i == 1 {
				return JSONPath{}, sqlfluent.NewStructuralError("JSONPath", "invalid key in path %q", path)
			}
			p.segs = append(p.segs, pathSeg{key: s[1:i]})
			s = s[i:]
		case '[':
			end := strings.IndexByte(s, ']')
			if end < 2 {
				return JSONPath{}, sqlfluent.NewStructuralError("JSONPath", "invalid index in path %q", path)
			}
			idx, err := strconv.Atoi(s[1:end])
			if err != nil || idx < 0 {
				return JSONPath{}, sqlfluent.NewStructuralError("JSONPath", "invalid index in path %q", path)
			}
			p.segs = append(p.segs, pathSeg{index: idx, isIdx: true})
			s = s[end+1:]
		default:
			return JSONPath{}, sqlfluent.NewStructuralError("JSONPath", "unexpected %q in path %q", s[0], path)
		}
	}
	return p, nil
}

func isIdentByte(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}

// IsRoot reports whether the path addresses the whole document.
func (p JSONPath) IsRoot() bool { return len(p.segs) == 0 }

// String returns the path in $.a[0] notation, used by MySQL and SQLite.
func (p JSONPath) String() string {
	var b strings.Builder
	b.WriteByte('$')
	for _, s := range p.segs {
		if s.isIdx {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.index))
			b.WriteByte(']')
		} else {
			b.WriteByte('.')
			b.WriteString(s.key)
		}
	}
	return b.String()
}

// Array returns the path as a Postgres text array literal body, e.g. {a,0}.
func (p JSONPath) Array() string {
	parts := make([]string, len(p.segs))
	for i, s := range p.segs {
		if s.isIdx {
			parts[i] = strconv.Itoa(s.index)
		} else {
			parts[i] = s.key
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}
