package sql

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/vmihailenco/msgpack/v5"
)

// PreparedQuery is a rendered statement: SQL text with placeholders and
// the ordered bindings for them. It is immutable once created.
type PreparedQuery struct {
	sql     string
	args    []any
	kind    Kind
	dialect string
}

// SQL returns the SQL text.
func (q *PreparedQuery) SQL() string { return q.sql }

// Args returns a copy of the bindings, in placeholder order.
func (q *PreparedQuery) Args() []any { return append([]any(nil), q.args...) }

// Kind returns the statement kind.
func (q *PreparedQuery) Kind() Kind { return q.kind }

// Dialect returns the flavor identifier the query was rendered for.
func (q *PreparedQuery) Dialect() string { return q.dialect }

// Query returns the SQL text and its bindings, the pair passed to
// ExecQuerier.Query and ExecQuerier.Exec.
func (q *PreparedQuery) Query() (string, []any) { return q.sql, q.Args() }

// String implements the fmt.Stringer interface.
func (q *PreparedQuery) String() string { return q.sql }

// LogValue implements slog.LogValuer.
func (q *PreparedQuery) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", string(q.kind)),
		slog.String("dialect", q.dialect),
		slog.String("query", q.sql),
		slog.Int("args", len(q.args)),
	)
}

// preparedWire is the encoded form of a PreparedQuery.
type preparedWire struct {
	SQL     string `msgpack:"sql"`
	Args    []any  `msgpack:"args"`
	Kind    Kind   `msgpack:"kind"`
	Dialect string `msgpack:"dialect"`
}

// MarshalBinary encodes the query with msgpack, e.g. to hand it to a
// separate execution process or an audit log. Bindings must be msgpack
// encodable; custom driver.Valuer types are not resolved.
func (q *PreparedQuery) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal(&preparedWire{SQL: q.sql, Args: q.args, Kind: q.kind, Dialect: q.dialect})
}

// UnmarshalPreparedQuery decodes a query encoded with MarshalBinary.
// Integer bindings are decoded as int64 and unsigned ones as uint64.
func UnmarshalPreparedQuery(data []byte) (*PreparedQuery, error) {
	var w preparedWire
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("sql: decoding prepared query: %w", err)
	}
	switch w.Kind {
	case KindSelect, KindInsert, KindUpdate, KindDelete:
	default:
		return nil, fmt.Errorf("sql: decoding prepared query: unknown kind %q", w.Kind)
	}
	return &PreparedQuery{sql: w.SQL, args: w.Args, kind: w.Kind, dialect: w.Dialect}, nil
}
