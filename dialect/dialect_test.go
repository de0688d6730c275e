package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlfluent"
	"github.com/syssam/sqlfluent/dialect"
)

func TestParse(t *testing.T) {
	tests := []struct {
		id      string
		name    string
		version string
		str     string
	}{
		{"mysql", dialect.MySQL, "", "mysql"},
		{"MySQL", dialect.MySQL, "", "mysql"},
		{"mariadb", dialect.MySQL, "", "mysql"},
		{"pgsql", dialect.Postgres, "", "postgres"},
		{"postgresql", dialect.Postgres, "", "postgres"},
		{"postgres:13", dialect.Postgres, "v13.0.0", "postgres:13.0.0"},
		{"sqlite3", dialect.SQLite, "", "sqlite"},
		{"sqlite:3.35.0", dialect.SQLite, "v3.35.0", "sqlite:3.35.0"},
		{"mysql:5.7", dialect.MySQL, "v5.7.0", "mysql:5.7.0"},
		{"mysql:v8.0.31", dialect.MySQL, "v8.0.31", "mysql:8.0.31"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			f, err := dialect.Parse(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.name, f.Name)
			assert.Equal(t, tt.version, f.Version)
			assert.Equal(t, tt.str, f.String())
			assert.Equal(t, tt.name, f.DriverName())
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, id := range []string{"", "oracle", "mssql:2019", "mysql:five", "sqlite:3.x"} {
		t.Run(id, func(t *testing.T) {
			_, err := dialect.Parse(id)
			require.Error(t, err)
			assert.True(t, sqlfluent.IsUnsupportedDialect(err))
		})
	}
}

func TestFlavorSupports(t *testing.T) {
	tests := []struct {
		id      string
		feature dialect.Feature
		want    bool
	}{
		{"mysql", dialect.FeatureRecursiveCTE, true},
		{"mysql:5.7", dialect.FeatureRecursiveCTE, false},
		{"mysql:5.7", dialect.FeatureCTE, false},
		{"mysql:8.0", dialect.FeatureRecursiveCTE, true},
		{"mysql", dialect.FeatureFullJoin, false},
		{"mysql", dialect.FeatureReturning, false},
		{"mysql", dialect.FeatureUpdateLimit, true},
		{"mysql", dialect.FeatureUpdateJoin, true},
		{"mysql:5.7.7", dialect.FeatureJSON, false},
		{"mysql:5.7.8", dialect.FeatureJSON, true},
		{"postgres", dialect.FeatureFullJoin, true},
		{"postgres", dialect.FeatureUpdateLimit, false},
		{"postgres:9.3", dialect.FeatureJSON, false},
		{"sqlite", dialect.FeatureFullJoin, true},
		{"sqlite:3.38.0", dialect.FeatureFullJoin, false},
		{"sqlite:3.38.0", dialect.FeatureRightJoin, false},
		{"sqlite:3.39.0", dialect.FeatureRightJoin, true},
		{"sqlite:3.8.2", dialect.FeatureCTE, false},
		{"sqlite:3.34.0", dialect.FeatureReturning, false},
		{"sqlite:3.35.0", dialect.FeatureReturning, true},
		{"sqlite", dialect.FeatureUpdateJoin, false},
	}
	for _, tt := range tests {
		t.Run(tt.id+"/"+tt.feature.String(), func(t *testing.T) {
			f, err := dialect.Parse(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Supports(tt.feature))
		})
	}
}

func TestFeatureString(t *testing.T) {
	assert.Equal(t, "WITH RECURSIVE", dialect.FeatureRecursiveCTE.String())
	assert.Equal(t, "FULL JOIN", dialect.FeatureFullJoin.String())
	assert.Equal(t, "unknown feature", dialect.Feature(0).String())
	assert.Equal(t, "unknown feature", dialect.Feature(200).String())
}
