// Package storage owns the durable ledger store: a relational database
// reachable through a connection string. A postgres:// URL selects
// PostgreSQL via lib/pq; anything else is treated as a SQLite file path
// (optionally prefixed with sqlite://). The schema is managed by embedded
// golang-migrate migrations, one set per dialect.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Store is the shared database handle. It is constructed once at startup
// and passed down explicitly; nothing in the repo holds it as a global.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to the database named by databaseURL, runs migrations, and
// returns a ready Store. The caller owns Close.
func Open(databaseURL string) (*Store, error) {
	dialect, dsn := parseDatabaseURL(databaseURL)

	if dialect == DialectSQLite {
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
		}
	}

	db, err := sql.Open(driverName(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	switch dialect {
	case DialectSQLite:
		// modernc sqlite serializes writers; a single connection avoids
		// SQLITE_BUSY under concurrent requests.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	case DialectPostgres:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, dialect: dialect}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying handle for queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Ping reports store reachability, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Rebind rewrites ? placeholders to the dialect's form. Queries in the repo
// are written with ? and rebound at the call site, so the same SQL serves
// both backends.
func (s *Store) Rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// WithTx runs fn inside a database transaction, committing on nil and
// rolling back otherwise. Every mutating ledger operation goes through here
// so a row write and its balance update commit as one unit.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func driverName(d Dialect) string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// parseDatabaseURL classifies a connection string and strips any sqlite
// scheme prefix down to a plain file path.
func parseDatabaseURL(databaseURL string) (Dialect, string) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DialectPostgres, databaseURL
	case strings.HasPrefix(databaseURL, "sqlite:///"):
		return DialectSQLite, strings.TrimPrefix(databaseURL, "sqlite:///")
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return DialectSQLite, strings.TrimPrefix(databaseURL, "sqlite://")
	default:
		return DialectSQLite, databaseURL
	}
}
