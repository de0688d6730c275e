package sql

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlfluent"
	"github.com/syssam/sqlfluent/dialect"
)

func newMock(t *testing.T, name string) (*Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return OpenDB(dialect.Flavor{Name: name}, db), mock
}

func TestRunWithVars(t *testing.T) {
	drv, mock := newMock(t, dialect.Postgres)
	ctx := context.Background()
	active := Select("id").From("users").Where("active").Equals(true)

	mock.ExpectExec(regexp.QuoteMeta("SET tenant = 'acme'")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE active = $1")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("RESET tenant")).WillReturnResult(sqlmock.NewResult(0, 0))
	rows := &Rows{}
	require.NoError(t, drv.Run(WithVar(ctx, "tenant", "acme"), active, rows))
	require.NoError(t, rows.Close(), "rows should be closed to release the connection")
	require.NoError(t, mock.ExpectationsWereMet())

	// A variable set twice is reset once.
	mock.ExpectExec(regexp.QuoteMeta("SET tenant = 'acme'")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SET tenant = 'globex'")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE active = $1")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta("RESET tenant")).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, drv.Run(WithVar(WithVar(ctx, "tenant", "acme"), "tenant", "globex"), active, rows))
	require.NoError(t, rows.Close())
	require.NoError(t, mock.ExpectationsWereMet())

	// Exec releases the connection without rows to close.
	mock.ExpectExec(regexp.QuoteMeta("SET app.user = 'it''s me'")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET name = $1 WHERE id = $2")).
		WithArgs("a8m", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("RESET app.user")).WillReturnResult(sqlmock.NewResult(0, 0))
	var res Result
	require.NoError(t, drv.Run(WithVar(ctx, "app.user", "it's me"), Update("users").Set("name", "a8m").Where("id").Equals(1), &res))
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunWithVarsReset(t *testing.T) {
	tests := []struct {
		dialect string
		query   string
		reset   string
	}{
		{dialect.MySQL, "DELETE FROM users WHERE id = ?", "SET tenant = NULL"},
		{dialect.Postgres, "DELETE FROM users WHERE id = $1", "RESET tenant"},
		{dialect.SQLite, "DELETE FROM users WHERE id = ?", ""},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			drv, mock := newMock(t, tt.dialect)
			mock.ExpectExec(regexp.QuoteMeta("SET tenant = '7'")).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec(regexp.QuoteMeta(tt.query)).WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
			if tt.reset != "" {
				mock.ExpectExec(regexp.QuoteMeta(tt.reset)).WillReturnResult(sqlmock.NewResult(0, 0))
			}
			ctx := WithIntVar(context.Background(), "tenant", 7)
			require.NoError(t, drv.Run(ctx, Delete("users").Where("id").Equals(1), nil))
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTxRunWithVars(t *testing.T) {
	drv, mock := newMock(t, dialect.Postgres)
	ctx := WithVar(context.Background(), "tenant", "acme")

	t.Run("rollback", func(t *testing.T) {
		// Variables are scoped to the transaction and are not reset.
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("SET tenant = 'acme'")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET balance = balance - 10 WHERE id = $1")).
			WithArgs(1).
			WillReturnError(errors.New("insufficient funds"))
		mock.ExpectRollback()
		tx, err := drv.Tx(ctx)
		require.NoError(t, err)
		err = tx.(*Tx).Run(ctx, Update("users").Set("balance", Raw("balance - 10")).Where("id").Equals(1), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insufficient funds")
		require.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("SET tenant = 'acme'")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (name) VALUES ($1) RETURNING id")).
			WithArgs("a8m").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
		mock.ExpectCommit()
		tx, err := drv.Tx(ctx)
		require.NoError(t, err)
		q, err := Insert("users").Set("name", "a8m").Returning("id").Prepare(dialect.Postgres)
		require.NoError(t, err)
		rows := &Rows{}
		require.NoError(t, tx.(*Tx).ExecPrepared(ctx, q, rows))
		require.True(t, rows.Next())
		var id int
		require.NoError(t, rows.Scan(&id))
		assert.Equal(t, 3, id)
		require.NoError(t, rows.Close())
		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRunInvalidVarName(t *testing.T) {
	drv, mock := newMock(t, dialect.Postgres)
	ctx := WithVar(context.Background(), "tenant; DROP TABLE users; --", "acme")
	err := drv.Run(ctx, Select("id").From("users"), &Rows{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid session variable name")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenDB(t *testing.T) {
	for _, name := range []string{dialect.Postgres, dialect.MySQL, dialect.SQLite} {
		t.Run(name, func(t *testing.T) {
			drv, _ := newMock(t, name)
			assert.Equal(t, name, drv.Dialect())
			assert.Equal(t, name, drv.Flavor().Name)
		})
	}
}

func TestTxFlavor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	f, err := dialect.Parse("mysql:5.7")
	require.NoError(t, err)
	drv := OpenDB(f, db)
	assert.Equal(t, dialect.MySQL, drv.Dialect())
	assert.Equal(t, "mysql:5.7.0", drv.Flavor().String())

	mock.ExpectBegin()
	mock.ExpectRollback()
	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f, tx.(*Tx).Flavor())
	// Statements are rendered for the transaction flavor and rejected
	// before reaching the database.
	stmt := Select("id").From("recent").With("recent", Select("id").From("posts"))
	err = tx.(*Tx).Run(context.Background(), stmt, &Rows{})
	assert.True(t, sqlfluent.IsUnsupportedFeature(err))
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunNullValues(t *testing.T) {
	drv, mock := newMock(t, dialect.SQLite)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name, email FROM users ORDER BY id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"name", "email"}).
			AddRow("a8m", nil).
			AddRow(nil, "nati@example.com"))
	rows := &Rows{}
	require.NoError(t, drv.Run(context.Background(), Select("name", "email").From("users").OrderBy("id", Asc), rows))
	var got [][2]NullString
	for rows.Next() {
		var name, email NullString
		require.NoError(t, rows.Scan(&name, &email))
		got = append(got, [2]NullString{name, email})
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())
	require.Len(t, got, 2)
	assert.Equal(t, NullString{String: "a8m", Valid: true}, got[0][0])
	assert.False(t, got[0][1].Valid)
	assert.False(t, got[1][0].Valid)
	assert.Equal(t, "nati@example.com", got[1][1].String)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunDatabaseErrors(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	ctx := context.Background()

	lost := errors.New("connection lost")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE name LIKE ?")).
		WithArgs("a%").
		WillReturnError(lost)
	err := drv.Run(ctx, Select("id").From("users").Where("name").Like("a%"), &Rows{})
	require.ErrorIs(t, err, lost)
	assert.Contains(t, err.Error(), "dialect/sql: query")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (name) VALUES (?)")).
		WithArgs("a8m").
		WillReturnError(lost)
	err = drv.Run(ctx, Insert("users").Set("name", "a8m"), nil)
	require.ErrorIs(t, err, lost)
	assert.Contains(t, err.Error(), "dialect/sql: exec")
	require.NoError(t, mock.ExpectationsWereMet())

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	err = drv.Run(canceled, Select("id").From("users"), &Rows{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSessionVarHelpers(t *testing.T) {
	names := []struct {
		name  string
		valid bool
	}{
		{"tenant", true},
		{"app.user_id", true},
		{"_private", true},
		{"", false},
		{"1tenant", false},
		{"app user", false},
		{"app-user", false},
		{"x'; DROP", false},
		{string(make([]byte, 129)), false},
	}
	for _, tt := range names {
		assert.Equal(t, tt.valid, isValidIdentifier(tt.name), tt.name)
	}
	values := []struct{ in, want string }{
		{"acme", "acme"},
		{"it's", "it''s"},
		{`C:\tmp`, `C:\\tmp`},
		{`'\`, `''\\`},
		{"", ""},
	}
	for _, tt := range values {
		assert.Equal(t, tt.want, escapeStringValue(tt.in), tt.in)
	}

	ctx := WithVar(context.Background(), "tenant", "acme")
	v, ok := VarFromContext(ctx, "tenant")
	assert.True(t, ok)
	assert.Equal(t, "acme", v)
	_, ok = VarFromContext(ctx, "user")
	assert.False(t, ok)
}

func BenchmarkDriverRun(b *testing.B) {
	db, mock, err := sqlmock.New()
	if err != nil {
		b.Fatal(err)
	}
	defer db.Close()
	drv := OpenDB(dialect.Flavor{Name: dialect.Postgres}, db)
	ctx := context.Background()

	b.Run("Select", func(b *testing.B) {
		stmt := Select("id").From("users").Where("id").Equals(1)
		for i := 0; i < b.N; i++ {
			mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
			rows := &Rows{}
			_ = drv.Run(ctx, stmt, rows)
			rows.Close()
		}
	})

	b.Run("Update", func(b *testing.B) {
		stmt := Update("users").Set("active", false).Where("id").Equals(1)
		for i := 0; i < b.N; i++ {
			mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 1))
			_ = drv.Run(ctx, stmt, nil)
		}
	})
}
