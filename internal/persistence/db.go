// Package persistence stores savegames and their logs in SQLite or
// PostgreSQL. DB implements engine.Store.
package persistence

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/GitRon/norimberga-sub001/internal/config"
	"github.com/GitRon/norimberga-sub001/internal/engine"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

// DB wraps a sqlx connection pool for one dialect.
type DB struct {
	conn    *sqlx.DB
	dialect string
}

var _ engine.Store = (*DB)(nil)

// Open connects to the database for dialect and applies pending
// migrations. For SQLite, dsn is a file path whose directory is created on
// demand.
func Open(ctx context.Context, dialect, dsn string) (*DB, error) {
	var driver string
	switch dialect {
	case config.DialectSQLite:
		driver = "sqlite"
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	case config.DialectPostgres:
		driver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", dialect, err)
	}
	if dialect == config.DialectSQLite {
		conn.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s db: %w", dialect, err)
	}

	db := &DB{conn: conn, dialect: dialect}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("database ready", "dialect", dialect)
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) migrate(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var versions []string
	if err := db.conn.SelectContext(ctx, &versions, "SELECT version FROM schema_migrations"); err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	applied := make(map[string]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}

	files, err := fs.Glob(migrationFS, path.Join("migrations", db.dialect, "*.sql"))
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		version := path.Base(file)
		if applied[version] {
			continue
		}
		schema, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", version, err)
		}
		err = db.inTx(ctx, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, string(schema)); err != nil {
				return fmt.Errorf("apply migration %s: %w", version, err)
			}
			_, err := tx.ExecContext(ctx,
				tx.Rebind("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)"),
				version, time.Now().UTC().Format(time.RFC3339),
			)
			return err
		})
		if err != nil {
			return err
		}
		slog.Debug("migration applied", "version", version, "dialect", db.dialect)
	}
	return nil
}

// inTx runs fn in a transaction, committing when it returns nil.
func (db *DB) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// notFound maps a missing row onto engine.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return engine.ErrNotFound
	}
	return err
}

// mustAffect reports engine.ErrNotFound when an update touched no row.
func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engine.ErrNotFound
	}
	return nil
}
