package sql

import (
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/syssam/sqlfluent"
	"github.com/syssam/sqlfluent/dialect"
)

// renderer holds the dialect specific parts of rendering.
type renderer interface {
	flavor() dialect.Flavor
	placeholder(n int) string
	quote(ident string) string
	literal(v any) (string, error)
	limitOffset(b *Builder, limit, offset *int)
	jsonExtract(b *Builder, column string, path JSONPath, numeric bool)
	jsonLength(b *Builder, column string, path JSONPath)
	jsonContains(b *Builder, column string, path JSONPath, v Value, not bool)
	defaultValues(b *Builder)
}

func rendererFor(id string) (renderer, error) {
	f, err := dialect.Parse(id)
	if err != nil {
		return nil, err
	}
	switch f.Name {
	case dialect.MySQL:
		return mysqlRenderer{f}, nil
	case dialect.Postgres:
		return postgresRenderer{f}, nil
	case dialect.SQLite:
		return sqliteRenderer{f}, nil
	default:
		return nil, sqlfluent.NewUnsupportedDialectError(id)
	}
}

type mysqlRenderer struct{ f dialect.Flavor }

func (r mysqlRenderer) flavor() dialect.Flavor { return r.f }
func (mysqlRenderer) placeholder(int) string    { return "?" }

func (mysqlRenderer) quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (mysqlRenderer) literal(v any) (string, error) {
	return formatLiteral(v, literalFormat{
		t: "TRUE", f: "FALSE",
		str:   func(s string) string { return "'" + escapeStringValue(s) + "'" },
		bytes: func(b []byte) string { return "X'" + hex.EncodeToString(b) + "'" },
		time:  "2006-01-02 15:04:05.999999",
	})
}

// maxUint64 is the largest row count MySQL accepts, used for OFFSET
// without LIMIT.
const maxUint64 = "18446744073709551615"

func (mysqlRenderer) limitOffset(b *Builder, limit, offset *int) {
	switch {
	case limit != nil:
		b.WriteString(" LIMIT ").Int(*limit)
	case offset != nil:
		b.WriteString(" LIMIT " + maxUint64)
	}
	if offset != nil {
		b.WriteString(" OFFSET ").Int(*offset)
	}
}

func (mysqlRenderer) jsonExtract(b *Builder, column string, path JSONPath, _ bool) {
	b.WriteString("JSON_UNQUOTE(JSON_EXTRACT(").WriteString(column).WriteString(", '").
		WriteString(path.String()).WriteString("'))")
}

func (mysqlRenderer) jsonLength(b *Builder, column string, path JSONPath) {
	b.WriteString("JSON_LENGTH(").WriteString(column)
	if !path.IsRoot() {
		b.WriteString(", '").WriteString(path.String()).WriteByte('\'')
	}
	b.WriteByte(')')
}

func (mysqlRenderer) jsonContains(b *Builder, column string, path JSONPath, v Value, not bool) {
	if not {
		b.WriteString("NOT ")
	}
	b.WriteString("JSON_CONTAINS(").WriteString(column).WriteString(", ")
	jsonArg(b, v)
	if !path.IsRoot() {
		b.WriteString(", '").WriteString(path.String()).WriteByte('\'')
	}
	b.WriteByte(')')
}

func (mysqlRenderer) defaultValues(b *Builder) { b.WriteString(" () VALUES ()") }

type postgresRenderer struct{ f dialect.Flavor }

func (r postgresRenderer) flavor() dialect.Flavor { return r.f }
func (postgresRenderer) placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (postgresRenderer) quote(ident string) string {
	return pq.QuoteIdentifier(ident)
}

func (postgresRenderer) literal(v any) (string, error) {
	return formatLiteral(v, literalFormat{
		t: "TRUE", f: "FALSE",
		str:   func(s string) string { return strings.TrimSpace(pq.QuoteLiteral(s)) },
		bytes: func(b []byte) string { return `'\x` + hex.EncodeToString(b) + "'" },
		time:  "2006-01-02 15:04:05.999999-07:00",
	})
}

func (postgresRenderer) limitOffset(b *Builder, limit, offset *int) {
	if limit != nil {
		b.WriteString(" LIMIT ").Int(*limit)
	}
	if offset != nil {
		b.WriteString(" OFFSET ").Int(*offset)
	}
}

func (postgresRenderer) jsonExtract(b *Builder, column string, path JSONPath, numeric bool) {
	if numeric {
		b.WriteByte('(')
	}
	b.WriteString(column).WriteString(" #>> '").WriteString(path.Array()).WriteByte('\'')
	if numeric {
		b.WriteString(")::numeric")
	}
}

func (postgresRenderer) jsonLength(b *Builder, column string, path JSONPath) {
	b.WriteString("jsonb_array_length(")
	if path.IsRoot() {
		b.WriteString(column)
	} else {
		b.WriteString(column).WriteString(" #> '").WriteString(path.Array()).WriteByte('\'')
	}
	b.WriteByte(')')
}

func (postgresRenderer) jsonContains(b *Builder, column string, path JSONPath, v Value, not bool) {
	if not {
		b.WriteString("NOT (")
	}
	if path.IsRoot() {
		b.WriteString(column)
	} else {
		b.WriteByte('(').WriteString(column).WriteString(" #> '").WriteString(path.Array()).WriteString("')")
	}
	b.WriteString(" @> ")
	jsonArg(b, v)
	b.WriteString("::jsonb")
	if not {
		b.WriteByte(')')
	}
}

func (postgresRenderer) defaultValues(b *Builder) { b.WriteString(" DEFAULT VALUES") }

type sqliteRenderer struct{ f dialect.Flavor }

func (r sqliteRenderer) flavor() dialect.Flavor { return r.f }
func (sqliteRenderer) placeholder(int) string    { return "?" }

func (sqliteRenderer) quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (sqliteRenderer) literal(v any) (string, error) {
	return formatLiteral(v, literalFormat{
		t: "1", f: "0",
		str:   func(s string) string { return "'" + strings.ReplaceAll(s, "'", "''") + "'" },
		bytes: func(b []byte) string { return "X'" + hex.EncodeToString(b) + "'" },
		time:  "2006-01-02 15:04:05.999999999-07:00",
	})
}

func (sqliteRenderer) limitOffset(b *Builder, limit, offset *int) {
	switch {
	case limit != nil:
		b.WriteString(" LIMIT ").Int(*limit)
	case offset != nil:
		b.WriteString(" LIMIT -1")
	}
	if offset != nil {
		b.WriteString(" OFFSET ").Int(*offset)
	}
}

func (sqliteRenderer) jsonExtract(b *Builder, column string, path JSONPath, _ bool) {
	b.WriteString("json_extract(").WriteString(column).WriteString(", '").
		WriteString(path.String()).WriteString("')")
}

func (sqliteRenderer) jsonLength(b *Builder, column string, path JSONPath) {
	b.WriteString("json_array_length(").WriteString(column)
	if !path.IsRoot() {
		b.WriteString(", '").WriteString(path.String()).WriteByte('\'')
	}
	b.WriteByte(')')
}

// SQLite has no containment operator. Scalars are matched against the
// array elements (or the value itself) at the path.
func (sqliteRenderer) jsonContains(b *Builder, column string, path JSONPath, v Value, not bool) {
	if not {
		b.WriteString("NOT ")
	}
	b.WriteString("EXISTS (SELECT 1 FROM json_each(").WriteString(column)
	if !path.IsRoot() {
		b.WriteString(", '").WriteString(path.String()).WriteByte('\'')
	}
	b.WriteString(") WHERE json_each.value = ")
	if v.kind == ValueLiteral && isScalar(v.lit) {
		b.Value(v)
	} else {
		jsonArg(b, v)
	}
	b.WriteByte(')')
}

func (sqliteRenderer) defaultValues(b *Builder) { b.WriteString(" DEFAULT VALUES") }

// jsonArg binds a literal as its JSON encoding. Other values are written as is.
func jsonArg(b *Builder, v Value) {
	if v.kind != ValueLiteral {
		b.Value(v)
		return
	}
	if s, ok := v.lit.(json.RawMessage); ok {
		b.Arg(string(s))
		return
	}
	buf, err := json.Marshal(v.lit)
	if err != nil {
		b.AddError(fmt.Errorf("sqlfluent: encoding JSON operand: %w", err))
		return
	}
	b.Arg(string(buf))
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, bool, string, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// literalFormat holds the dialect spelling of literal values.
type literalFormat struct {
	t, f  string
	str   func(string) string
	bytes func([]byte) string
	time  string
}

// formatLiteral formats v as an SQL literal. It is used for interpolated
// rendering only, never for executed statements.
func formatLiteral(v any, lf literalFormat) (string, error) {
	if valuer, ok := v.(driver.Valuer); ok {
		dv, err := valuer.Value()
		if err != nil {
			return "", fmt.Errorf("sqlfluent: resolving %T: %w", v, err)
		}
		// A valuer returning itself would recurse forever.
		if _, again := dv.(driver.Valuer); again {
			return lf.str(fmt.Sprint(dv)), nil
		}
		v = dv
	}
	switch v := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if v {
			return lf.t, nil
		}
		return lf.f, nil
	case int:
		return strconv.Itoa(v), nil
	case int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(v).Int(), 10), nil
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(v).Uint(), 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case string:
		return lf.str(v), nil
	case []byte:
		return lf.bytes(v), nil
	case json.RawMessage:
		return lf.str(string(v)), nil
	case time.Time:
		return lf.str(v.Format(lf.time)), nil
	case fmt.Stringer:
		return lf.str(v.String()), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "NULL", nil
		}
		return formatLiteral(rv.Elem().Interface(), lf)
	}
	return lf.str(fmt.Sprint(v)), nil
}
