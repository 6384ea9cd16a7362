// Package postgres keeps cart values in a PostgreSQL kv_entries table.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/eduhaag/GoMarketplace/internal/kvstore"
	"github.com/eduhaag/GoMarketplace/pkg/database"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const (
	selectValue = `SELECT value FROM kv_entries WHERE key = $1`
	upsertValue = `INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
)

// Pool is the connection pool the store runs on. Both *pgxpool.Pool and
// pgxmock pools satisfy it.
type Pool interface {
	database.DBTX
	Close()
}

// Store implements kvstore.Store over PostgreSQL.
type Store struct {
	pool Pool
}

// New wraps pool. Call Migrate first on a fresh database.
func New(pool Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db database.DBTX, logger *slog.Logger) error {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	return database.RunMigrations(ctx, db, sub, logger)
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (_ string, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "SELECT", selectValue)
	defer func() { end(err) }()

	var value string
	err = s.pool.QueryRow(ctx, selectValue, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", kvstore.Absent(key)
	}
	if err != nil {
		return "", fmt.Errorf("postgres get %s: %w", key, err)
	}
	return value, nil
}

// Set overwrites the value stored under key.
func (s *Store) Set(ctx context.Context, key, value string) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "UPSERT", upsertValue)
	defer func() { end(err) }()

	if _, err = s.pool.Exec(ctx, upsertValue, key, value); err != nil {
		return fmt.Errorf("postgres set %s: %w", key, err)
	}
	return nil
}

// Ping checks pool connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
