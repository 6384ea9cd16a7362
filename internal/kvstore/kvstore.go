// Package kvstore defines the durable string key-value store the cart is
// mirrored to, plus the backends that implement it.
package kvstore

import (
	"context"
	"errors"

	apperrors "github.com/eduhaag/GoMarketplace/pkg/errors"
)

// Store is an opaque get/set string store.
type Store interface {
	// Get returns the value stored under key. An absent key is reported as
	// an error matching apperrors.ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set overwrites the value stored under key.
	Set(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
	Close() error
}

// Backend names accepted by configuration.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("kvstore: closed")

// Absent builds the error every backend returns for a missing key.
func Absent(key string) error {
	return apperrors.NotFound("key", key)
}

// IsAbsent reports whether err means the key has no value.
func IsAbsent(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
