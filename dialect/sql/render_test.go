package sql

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/sqlfluent/dialect"
)

func TestJSONPredicates(t *testing.T) {
	tests := []struct {
		name    string
		input   *Selector
		dialect string
		query   string
		args    []any
	}{
		{
			name:    "postgres numeric extract",
			input:   Select().From("users").WhereJSON("meta").Extract("$.age").Greater(18),
			dialect: "pgsql",
			query:   "SELECT * FROM users WHERE (meta #>> '{age}')::numeric > $1",
			args:    []any{18},
		},
		{
			name:    "postgres text extract",
			input:   Select().From("users").WhereJSON("meta").Extract("$.name").Equals("a8m"),
			dialect: "pgsql",
			query:   "SELECT * FROM users WHERE meta #>> '{name}' = $1",
			args:    []any{"a8m"},
		},
		{
			name:    "postgres nested path",
			input:   Select().From("users").WhereJSON("meta").Extract("$.tags[0]").In([]string{"a", "b"}),
			dialect: "pgsql",
			query:   "SELECT * FROM users WHERE meta #>> '{tags,0}' IN ($1, $2)",
			args:    []any{"a", "b"},
		},
		{
			name:    "postgres numeric between",
			input:   Select().From("users").WhereJSON("meta").Extract("$.score").Between(1.5, 3),
			dialect: "pgsql",
			query:   "SELECT * FROM users WHERE (meta #>> '{score}')::numeric BETWEEN $1 AND $2",
			args:    []any{1.5, 3},
		},
		{
			name:    "mysql extract",
			input:   Select().From("users").WhereJSON("meta").Extract("$.name").Equals("a8m"),
			dialect: dialect.MySQL,
			query:   "SELECT * FROM users WHERE JSON_UNQUOTE(JSON_EXTRACT(meta, '$.name')) = ?",
			args:    []any{"a8m"},
		},
		{
			name:    "mysql extract index",
			input:   Select().From("users").WhereJSON("meta").Extract("$.tags[0]").IsNotNull(),
			dialect: dialect.MySQL,
			query:   "SELECT * FROM users WHERE JSON_UNQUOTE(JSON_EXTRACT(meta, '$.tags[0]')) IS NOT NULL",
		},
		{
			name:    "sqlite extract",
			input:   Select().From("users").WhereJSON("meta").Extract("$.age").Greater(18),
			dialect: dialect.SQLite,
			query:   "SELECT * FROM users WHERE json_extract(meta, '$.age') > ?",
			args:    []any{18},
		},
		{
			name:    "mysql length",
			input:   Select().From("users").WhereJSON("tags").Length("$").Greater(1),
			dialect: dialect.MySQL,
			query:   "SELECT * FROM users WHERE JSON_LENGTH(tags) > ?",
			args:    []any{1},
		},
		{
			name:    "postgres length",
			input:   Select().From("users").WhereJSON("meta").Length("$.tags").Greater(1),
			dialect: dialect.Postgres,
			query:   "SELECT * FROM users WHERE jsonb_array_length(meta #> '{tags}') > $1",
			args:    []any{1},
		},
		{
			name:    "postgres root length",
			input:   Select().From("users").WhereJSON("tags").Length("$").Equals(0),
			dialect: dialect.Postgres,
			query:   "SELECT * FROM users WHERE jsonb_array_length(tags) = $1",
			args:    []any{0},
		},
		{
			name:    "sqlite length",
			input:   Select().From("users").WhereJSON("meta").Length("$.tags").Greater(1),
			dialect: dialect.SQLite,
			query:   "SELECT * FROM users WHERE json_array_length(meta, '$.tags') > ?",
			args:    []any{1},
		},
		{
			name:    "mysql contains",
			input:   Select().From("users").WhereJSON("tags").Contains("admin"),
			dialect: dialect.MySQL,
			query:   "SELECT * FROM users WHERE JSON_CONTAINS(tags, ?)",
			args:    []any{`"admin"`},
		},
		{
			name:    "mysql contains at path",
			input:   Select().From("users").WhereJSON("meta").NotContains(map[string]int{"level": 2}, AtPath("$.roles")),
			dialect: dialect.MySQL,
			query:   "SELECT * FROM users WHERE NOT JSON_CONTAINS(meta, ?, '$.roles')",
			args:    []any{`{"level":2}`},
		},
		{
			name:    "postgres contains",
			input:   Select().From("users").WhereJSON("tags").Contains("admin"),
			dialect: dialect.Postgres,
			query:   "SELECT * FROM users WHERE tags @> $1::jsonb",
			args:    []any{`"admin"`},
		},
		{
			name:    "postgres contains at path",
			input:   Select().From("users").WhereJSON("meta").Contains([]string{"a", "b"}, AtPath("$.roles")),
			dialect: dialect.Postgres,
			query:   "SELECT * FROM users WHERE (meta #> '{roles}') @> $1::jsonb",
			args:    []any{`["a","b"]`},
		},
		{
			name:    "postgres not contains",
			input:   Select().From("users").Where("id").Greater(1).OrJSON("tags").NotContains(json.RawMessage(`[1]`)),
			dialect: dialect.Postgres,
			query:   "SELECT * FROM users WHERE id > $1 OR NOT (tags @> $2::jsonb)",
			args:    []any{1, "[1]"},
		},
		{
			name:    "sqlite contains scalar",
			input:   Select().From("users").WhereJSON("tags").Contains("admin"),
			dialect: dialect.SQLite,
			query:   "SELECT * FROM users WHERE EXISTS (SELECT 1 FROM json_each(tags) WHERE json_each.value = ?)",
			args:    []any{"admin"},
		},
		{
			name:    "sqlite not contains at path",
			input:   Select().From("users").WhereJSON("meta").NotContains(7, AtPath("$.ids")),
			dialect: dialect.SQLite,
			query:   "SELECT * FROM users WHERE NOT EXISTS (SELECT 1 FROM json_each(meta, '$.ids') WHERE json_each.value = ?)",
			args:    []any{7},
		},
		{
			name:    "sqlite contains composite",
			input:   Select().From("users").WhereJSON("meta").Contains(map[string]bool{"ok": true}),
			dialect: dialect.SQLite,
			query:   "SELECT * FROM users WHERE EXISTS (SELECT 1 FROM json_each(meta) WHERE json_each.value = ?)",
			args:    []any{`{"ok":true}`},
		},
		{
			name: "json with brackets and connectives",
			input: Select().From("users").
				Where("active").Equals(true).
				AndJSON("meta").Extract("$.plan").Equals("pro", OpenBracket("(")).
				OrJSON("meta").Length("$.seats").Greater(10, CloseBracket(")")),
			dialect: dialect.SQLite,
			query:   "SELECT * FROM users WHERE active = ? AND (json_extract(meta, '$.plan') = ? OR json_array_length(meta, '$.seats') > ?)",
			args:    []any{true, "pro", 10},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := tt.input.Prepare(tt.dialect)
			require.NoError(t, err)
			require.Equal(t, tt.query, q.SQL())
			require.Equal(t, tt.args, q.Args())
		})
	}
}

func TestParseJSONPath(t *testing.T) {
	tests := []struct {
		path  string
		str   string
		array string
		err   bool
	}{
		{path: "$", str: "$", array: "{}"},
		{path: "$.a", str: "$.a", array: "{a}"},
		{path: "$.a.b_2[3].c", str: "$.a.b_2[3].c", array: "{a,b_2,3,c}"},
		{path: "$[0]", str: "$[0]", array: "{0}"},
		{path: "a", err: true},
		{path: "$.", err: true},
		{path: "$.1a", err: true},
		{path: "$.a'b", err: true},
		{path: "$[-1]", err: true},
		{path: "$[]", err: true},
		{path: "$['a']", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p, err := ParseJSONPath(tt.path)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.str, p.String())
			assert.Equal(t, tt.array, p.Array())
			assert.Equal(t, tt.path == "$", p.IsRoot())
		})
	}
}

func TestInterpolate(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	id := uuid.MustParse("2c2a0ae1-8c4a-4b1c-9d7e-0a4d2e1c6f11")
	n := 42
	var nilPtr *int
	tests := []struct {
		name    string
		input   Statement
		dialect string
		raw     string
	}{
		{
			name:    "mysql scalars",
			input:   Select().From("users").Where("name").Equals("it's").And("active").Equals(true).And("score").Greater(1.5),
			dialect: dialect.MySQL,
			raw:     "SELECT * FROM users WHERE name = 'it''s' AND active = TRUE AND score > 1.5",
		},
		{
			name:    "mysql backslash",
			input:   Select().From("files").Where("path").Equals(`C:\tmp`),
			dialect: dialect.MySQL,
			raw:     `SELECT * FROM files WHERE path = 'C:\\tmp'`,
		},
		{
			name:    "postgres scalars",
			input:   Select().From("users").Where("name").Equals("it's").And("active").Equals(false).And("id").In([]int64{1, 2}),
			dialect: dialect.Postgres,
			raw:     "SELECT * FROM users WHERE name = 'it''s' AND active = FALSE AND id IN (1, 2)",
		},
		{
			name:    "postgres backslash",
			input:   Select().From("files").Where("path").Equals(`C:\tmp`),
			dialect: dialect.Postgres,
			raw:     `SELECT * FROM files WHERE path = E'C:\\tmp'`,
		},
		{
			name:    "sqlite booleans",
			input:   Update("users").Set("active", true).Set("admin", false).Where("name").Equals("o'neil"),
			dialect: dialect.SQLite,
			raw:     "UPDATE users SET active = 1, admin = 0 WHERE name = 'o''neil'",
		},
		{
			name:    "bytes",
			input:   Insert("blobs").Set("data", []byte{1, 2, 0xff}),
			dialect: dialect.MySQL,
			raw:     "INSERT INTO blobs (data) VALUES (X'0102ff')",
		},
		{
			name:    "postgres bytes",
			input:   Insert("blobs").Set("data", []byte{1, 2, 0xff}),
			dialect: dialect.Postgres,
			raw:     `INSERT INTO blobs (data) VALUES ('\x0102ff')`,
		},
		{
			name:    "mysql time",
			input:   Select().From("events").Where("at").Greater(ts),
			dialect: dialect.MySQL,
			raw:     "SELECT * FROM events WHERE at > '2024-01-02 03:04:05'",
		},
		{
			name:    "postgres time",
			input:   Select().From("events").Where("at").Greater(ts),
			dialect: dialect.Postgres,
			raw:     "SELECT * FROM events WHERE at > '2024-01-02 03:04:05+00:00'",
		},
		{
			name:    "sqlite time",
			input:   Select().From("events").Where("at").Greater(ts),
			dialect: dialect.SQLite,
			raw:     "SELECT * FROM events WHERE at > '2024-01-02 03:04:05+00:00'",
		},
		{
			name:    "valuer",
			input:   Select().From("users").Where("id").Equals(id),
			dialect: dialect.Postgres,
			raw:     "SELECT * FROM users WHERE id = '2c2a0ae1-8c4a-4b1c-9d7e-0a4d2e1c6f11'",
		},
		{
			name:    "pointers and null",
			input:   Insert("t").Columns("a", "b", "c").Values(&n, nilPtr, nil),
			dialect: dialect.SQLite,
			raw:     "INSERT INTO t (a, b, c) VALUES (42, NULL, NULL)",
		},
		{
			name:    "unsigned and small ints",
			input:   Insert("t").Columns("a", "b", "c").Values(uint8(7), int16(-3), float32(0.5)),
			dialect: dialect.MySQL,
			raw:     "INSERT INTO t (a, b, c) VALUES (7, -3, 0.5)",
		},
		{
			name:    "json operand",
			input:   Select().From("users").WhereJSON("tags").Contains("a'b"),
			dialect: dialect.Postgres,
			raw:     `SELECT * FROM users WHERE tags @> '"a''b"'::jsonb`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Interpolate(tt.input, tt.dialect)
			require.NoError(t, err)
			require.Equal(t, tt.raw, raw)
		})
	}
}

func TestIdentQuoting(t *testing.T) {
	tests := []struct {
		dialect string
		ident   string
		want    string
	}{
		{dialect.MySQL, "u.id", "`u`.`id`"},
		{dialect.MySQL, "we`ird", "`we``ird`"},
		{dialect.Postgres, "u.*", `"u".*`},
		{dialect.Postgres, `we"ird`, `"we""ird"`},
		{dialect.SQLite, "users", `"users"`},
		{dialect.SQLite, `a"b.c`, `"a""b"."c"`},
	}
	for _, tt := range tests {
		t.Run(tt.dialect+"/"+tt.ident, func(t *testing.T) {
			r, err := rendererFor(tt.dialect)
			require.NoError(t, err)
			b := &Builder{r: r}
			assert.Equal(t, tt.want, b.Ident(tt.ident).String())
		})
	}
}

// substitute replaces every placeholder of q with the dialect literal of
// its binding.
func substitute(t *testing.T, q *PreparedQuery) string {
	t.Helper()
	r, err := rendererFor(q.Dialect())
	require.NoError(t, err)
	query, args := q.Query()
	var (
		b    strings.Builder
		used int
	)
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '?' && r.flavor().Name != dialect.Postgres:
			require.Less(t, used, len(args))
			lit, err := r.literal(args[used])
			require.NoError(t, err)
			b.WriteString(lit)
			used++
		case c == '$' && r.flavor().Name == dialect.Postgres && i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9':
			j := i + 1
			for j < len(query) && query[j] >= '0' && query[j] <= '9' {
				j++
			}
			n, err := strconv.Atoi(query[i+1 : j])
			require.NoError(t, err)
			require.Equal(t, used+1, n, "placeholders must be numbered in order")
			lit, err := r.literal(args[n-1])
			require.NoError(t, err)
			b.WriteString(lit)
			used++
			i = j - 1
		default:
			b.WriteByte(c)
		}
	}
	require.Equal(t, len(args), used, "every binding has a placeholder")
	return b.String()
}

// statements returns a set of statements exercising every binding position.
func statements() []Statement {
	return []Statement{
		Select("id", "name").From("users").Where("status").Equals("active"),
		Select().From("users").Where("age").Between(18, 65).Or("name").In([]string{"a", "b's"}),
		Select("id").
			SelectSubquery(Select("COUNT(*)").From("posts").Where("score").Greater(5), "n").
			From("users").
			Where("id").In(Select("user_id").From("bans").Where("until").Greater(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))).
			GroupBy("id").
			Having("COUNT(*)").Greater(2),
		Select("id").From("recent").
			With("recent", Select("id").From("posts").Where("title").Like("%go%")).
			Union(Select("id").From("archive").Where("year").Equals(2020)).
			Limit(10),
		Select().From("users").WhereJSON("meta").Extract("$.age").Greater(30).AndJSON("tags").Contains("admin"),
		Insert("users").Columns("name", "age", "active").Values("a8m", 30, true).Values("o'neil", nil, false),
		Update("users").Set("name", "x").Set("logins", Raw("logins + 1")).Where("id").Equals(1).And("role").NotIn([]string{"owner"}),
		Delete("sessions").Where("user_id").In(Select("id").From("users").Where("deleted").Equals(true)).Or("token").IsNull(),
	}
}

func TestPlaceholderAlignment(t *testing.T) {
	for i, stmt := range statements() {
		for _, d := range []string{dialect.MySQL, dialect.Postgres, dialect.SQLite} {
			t.Run(fmt.Sprintf("%d/%s", i, d), func(t *testing.T) {
				q, err := Render(stmt, d)
				require.NoError(t, err)
				raw, err := Interpolate(stmt, d)
				require.NoError(t, err)
				assert.Equal(t, raw, substitute(t, q))
			})
		}
	}
}

func TestConcurrentRender(t *testing.T) {
	stmts := statements()
	want := make(map[string]string)
	for i, stmt := range stmts {
		for _, d := range []string{dialect.MySQL, dialect.Postgres, dialect.SQLite} {
			q, err := Render(stmt, d)
			require.NoError(t, err)
			want[fmt.Sprintf("%d/%s", i, d)] = q.SQL()
		}
	}
	var g errgroup.Group
	for n := 0; n < 8; n++ {
		for i, stmt := range stmts {
			for _, d := range []string{dialect.MySQL, dialect.Postgres, dialect.SQLite} {
				g.Go(func() error {
					q, err := Render(stmt, d)
					if err != nil {
						return err
					}
					if key := fmt.Sprintf("%d/%s", i, d); q.SQL() != want[key] {
						return fmt.Errorf("%s: got %q, want %q", key, q.SQL(), want[key])
					}
					_, err = Interpolate(stmt, d)
					return err
				})
			}
		}
	}
	require.NoError(t, g.Wait())
}
