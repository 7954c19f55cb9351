// Package database provides the SQLite storage layer for license records and
// the append-only validation log.
//
// Write concurrency model: a single writer connection (SetMaxOpenConns(1))
// serializes all mutations, while a read-only reader pool serves concurrent
// reads. WAL journal mode lets readers proceed during writes. Serializing
// writes through one connection makes every read-modify-write on a license
// row atomic without SQLITE_BUSY retry loops.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// connectionPragmas are applied to every new connection. Read-only
// connections skip the pragmas that require write access.
var connectionPragmas = []struct {
	stmt          string
	allowReadOnly bool
}{
	{stmt: "PRAGMA journal_mode = WAL", allowReadOnly: false},
	{stmt: "PRAGMA synchronous = NORMAL", allowReadOnly: false},
	{stmt: "PRAGMA foreign_keys = ON", allowReadOnly: true},
	{stmt: "PRAGMA busy_timeout = 5000", allowReadOnly: true},
}

const connectionSetupTimeout = 10 * time.Second

// DB owns the writer connection and reader pool for one SQLite database.
type DB struct {
	writer *sql.DB
	reader *sql.DB
	logger *slog.Logger
}

// New opens (creating if necessary) the database at path, applies pragmas,
// and runs any pending migrations.
func New(path string, logger *slog.Logger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("database: create directory for %s: %w", path, err)
	}

	writer, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("database: open writer at %s: %w", path, err)
	}
	writer.SetMaxOpenConns(1)
	writer.SetMaxIdleConns(1)
	writer.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), connectionSetupTimeout)
	defer cancel()
	if err := applyPragmas(ctx, writer, false); err != nil {
		writer.Close()
		return nil, err
	}

	db := &DB{
		writer: writer,
		logger: logger.With(slog.String("component", "database")),
	}
	if err := db.migrate(ctx); err != nil {
		writer.Close()
		return nil, fmt.Errorf("database: migrate: %w", err)
	}

	reader, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("database: open reader pool at %s: %w", path, err)
	}
	reader.SetMaxIdleConns(4)
	reader.SetConnMaxLifetime(0)
	if err := applyPragmas(ctx, reader, true); err != nil {
		writer.Close()
		reader.Close()
		return nil, err
	}
	db.reader = reader

	db.logger.Info("database initialized", slog.String("path", path))
	return db, nil
}

func applyPragmas(ctx context.Context, conn *sql.DB, readOnly bool) error {
	for _, p := range connectionPragmas {
		if readOnly && !p.allowReadOnly {
			continue
		}
		if _, err := conn.ExecContext(ctx, p.stmt); err != nil {
			return fmt.Errorf("database: apply pragma %q: %w", p.stmt, err)
		}
	}
	return nil
}

// migrate applies embedded migrations in lexical order, tracking progress in
// the user_version pragma. Each migration runs in its own transaction.
func (db *DB) migrate(ctx context.Context) error {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	var version int
	if err := db.writer.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	for i, name := range names {
		migration := i + 1
		if migration <= version {
			continue
		}
		script, err := migrationsFS.ReadFile(name)
		if err != nil {
			return err
		}

		tx, err := db.writer.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, string(script)); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", migration)); err != nil {
			tx.Rollback()
			return fmt.Errorf("set user_version for %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
		db.logger.Info("migration applied", slog.String("name", filepath.Base(name)))
	}
	return nil
}

// Ping verifies both connections.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.writer.PingContext(ctx); err != nil {
		return fmt.Errorf("database: writer ping: %w", err)
	}
	if err := db.reader.PingContext(ctx); err != nil {
		return fmt.Errorf("database: reader ping: %w", err)
	}
	return nil
}

// Close releases both connection pools.
func (db *DB) Close() error {
	var firstErr error
	if db.reader != nil {
		if err := db.reader.Close(); err != nil {
			firstErr = err
		}
	}
	if err := db.writer.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
