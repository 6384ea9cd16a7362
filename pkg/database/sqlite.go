package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteConfig holds settings for an on-device SQLite database file.
type SQLiteConfig struct {
	Path        string
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns defaults for a database next to the binary.
func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		Path:        "gomarketplace.db",
		BusyTimeout: 5 * time.Second,
	}
}

// dsn builds a modernc DSN enabling WAL and a busy timeout.
func (c SQLiteConfig) dsn() string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		c.Path, c.BusyTimeout.Milliseconds())
}

// NewSQLite opens (creating if needed) the database file and verifies it.
// The pool is capped at one connection: SQLite serializes writers anyway.
func NewSQLite(ctx context.Context, cfg SQLiteConfig) (*sql.DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", cfg.Path, err)
	}
	return db, nil
}
