package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// Options configures the database
type Options struct {
	Path     string
	Compress bool
}

// Observer receives the outcome of every store operation
type Observer interface {
	ObserveStoreOp(table, op string, elapsed time.Duration, err error)
}

// DB is the SQLite database shared by every store
type DB struct {
	sql      *sql.DB
	codec    *Codec
	log      *zap.Logger
	observer Observer
}

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{1, "bundles", `CREATE TABLE IF NOT EXISTS bundles (
		bundle_name TEXT NOT NULL,
		device_id   TEXT NOT NULL,
		payload     BLOB NOT NULL,
		digest      TEXT NOT NULL,
		updated_at  INTEGER NOT NULL,
		PRIMARY KEY (bundle_name, device_id)
	)`},
	{2, "preinstall", `CREATE TABLE IF NOT EXISTS preinstall (
		bundle_name TEXT PRIMARY KEY,
		payload     BLOB NOT NULL,
		digest      TEXT NOT NULL,
		updated_at  INTEGER NOT NULL
	)`},
	{3, "module_usage", `CREATE TABLE IF NOT EXISTS module_usage (
		usage_key   TEXT PRIMARY KEY,
		bundle_name TEXT NOT NULL,
		payload     BLOB NOT NULL,
		digest      TEXT NOT NULL,
		updated_at  INTEGER NOT NULL
	)`},
	{4, "module_usage_bundle_idx", `CREATE INDEX IF NOT EXISTS module_usage_bundle ON module_usage (bundle_name)`},
}

// Open opens the database at opts.Path and applies pending migrations
func Open(ctx context.Context, opts Options, log *zap.Logger) (*DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	path := opts.Path
	if path == "" {
		path = MemoryPath
	}

	dsn := path
	if path != MemoryPath {
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)"
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// sqlite serializes writers; a single connection also keeps :memory: shared
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}

	codec, err := NewCodec(opts.Compress)
	if err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{sql: conn, codec: codec, log: log}
	if err := db.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.Info("Storage opened", zap.String("path", path), zap.Bool("compress", opts.Compress))
	return db, nil
}

func (db *DB) migrate(ctx context.Context) error {
	if _, err := db.sql.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := db.sql.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan migration: %w", err)
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		tx, err := db.sql.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("migration %d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
			m.version, m.name, time.Now().Unix()); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
		db.log.Debug("Applied migration", zap.Int("version", m.version), zap.String("name", m.name))
	}
	return nil
}

// SetObserver installs an operation observer. Call before first use.
func (db *DB) SetObserver(o Observer) {
	db.observer = o
}

func (db *DB) observe(table, op string, started time.Time, err error) {
	if db.observer != nil {
		db.observer.ObserveStoreOp(table, op, time.Since(started), err)
	}
}

// Ping checks the connection
func (db *DB) Ping(ctx context.Context) error {
	return db.sql.PingContext(ctx)
}

// Close closes the database
func (db *DB) Close() error {
	db.codec.Close()
	return db.sql.Close()
}
