package sql

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"gopkg.in/yaml.v3"

	"github.com/syssam/sqlfluent/dialect"
)

// Config describes a database connection.
//
//	dialect: mysql:8.0
//	dsn: user:pass@tcp(localhost:3306)/app?parseTime=true
//	slow_threshold: 200ms
type Config struct {
	// Dialect is the flavor identifier, e.g. "pgsql" or "sqlite:3.35".
	Dialect string `yaml:"dialect"`
	// DSN is the data source name passed to the database/sql driver.
	DSN string `yaml:"dsn"`
	// SlowThreshold enables statistics collection and logs statements
	// running longer than the threshold.
	SlowThreshold time.Duration `yaml:"slow_threshold,omitempty"`
	// Debug logs every statement.
	Debug bool `yaml:"debug,omitempty"`
}

// LoadConfig decodes a YAML configuration and validates it.
func LoadConfig(r io.Reader) (*Config, error) {
	c := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("dialect/sql: decoding config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the flavor identifier and the DSN syntax of the dialect.
func (c *Config) Validate() error {
	f, err := dialect.Parse(c.Dialect)
	if err != nil {
		return err
	}
	switch {
	case c.DSN == "":
		return errors.New("dialect/sql: config: missing dsn")
	case c.SlowThreshold < 0:
		return fmt.Errorf("dialect/sql: config: negative slow_threshold %s", c.SlowThreshold)
	case c.SlowThreshold > 0 && c.Debug:
		return errors.New("dialect/sql: config: debug and slow_threshold are exclusive")
	}
	switch f.Name {
	case dialect.MySQL:
		if _, err := mysql.ParseDSN(c.DSN); err != nil {
			return fmt.Errorf("dialect/sql: config: invalid mysql dsn: %w", err)
		}
	case dialect.Postgres:
		if isURL(c.DSN) {
			if _, err := pq.ParseURL(c.DSN); err != nil {
				return fmt.Errorf("dialect/sql: config: invalid postgres url: %w", err)
			}
		} else if _, err := pq.NewConnector(c.DSN); err != nil {
			return fmt.Errorf("dialect/sql: config: invalid postgres dsn: %w", err)
		}
	}
	return nil
}

// DatabaseName returns the database name encoded in the DSN, if any. It
// does not connect to the database.
func (c *Config) DatabaseName() string {
	f, err := dialect.Parse(c.Dialect)
	if err != nil {
		return ""
	}
	switch f.Name {
	case dialect.MySQL:
		if cfg, err := mysql.ParseDSN(c.DSN); err == nil {
			return cfg.DBName
		}
	case dialect.Postgres:
		if isURL(c.DSN) {
			if u, err := url.Parse(c.DSN); err == nil {
				return strings.TrimPrefix(u.Path, "/")
			}
			return ""
		}
		for _, kv := range strings.Fields(c.DSN) {
			if k, v, ok := strings.Cut(kv, "="); ok && k == "dbname" {
				return strings.Trim(v, "'")
			}
		}
	case dialect.SQLite:
		name, _, _ := strings.Cut(strings.TrimPrefix(c.DSN, "file:"), "?")
		return name
	}
	return ""
}

func isURL(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Runner is a driver able to render and execute statements.
type Runner interface {
	dialect.Driver
	ExecPrepared(ctx context.Context, q *PreparedQuery, v any) error
	Run(ctx context.Context, stmt Statement, v any) error
}

var (
	_ Runner = (*Driver)(nil)
	_ Runner = (*StatsDriver)(nil)
	_ Runner = (*DebugDriver)(nil)
)

// OpenConfig validates c and opens a driver, wrapped with statistics
// collection or debug logging as configured.
func OpenConfig(c *Config) (Runner, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	drv, err := Open(c.Dialect, c.DSN)
	if err != nil {
		return nil, err
	}
	switch {
	case c.SlowThreshold > 0:
		return NewStatsDriver(drv, WithSlowThreshold(c.SlowThreshold), WithSlowQueryLog()), nil
	case c.Debug:
		return NewDebugDriver(drv), nil
	default:
		return drv, nil
	}
}
