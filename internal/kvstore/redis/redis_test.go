package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduhaag/GoMarketplace/internal/kvstore"
	"github.com/eduhaag/GoMarketplace/internal/kvstore/kvstoretest"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	s := New(client, ttl)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestStore_Contract(t *testing.T) {
	kvstoretest.Run(t, func(t *testing.T) kvstore.Store {
		s, _ := setupTestRedis(t, 0)
		return s
	})
}

func TestStore_SetWritesPlainValue(t *testing.T) {
	s, mr := setupTestRedis(t, 0)

	require.NoError(t, s.Set(context.Background(), "@GoMarketplace:products", "[]"))

	got, err := mr.Get("@GoMarketplace:products")
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
	assert.Zero(t, mr.TTL("@GoMarketplace:products"))
}

func TestStore_TTL(t *testing.T) {
	s, mr := setupTestRedis(t, time.Hour)
	require.NoError(t, s.Set(context.Background(), "k", "v"))

	assert.Equal(t, time.Hour, mr.TTL("k"))

	mr.FastForward(2 * time.Hour)
	_, err := s.Get(context.Background(), "k")
	assert.True(t, kvstore.IsAbsent(err))
}

func TestStore_ServerDown(t *testing.T) {
	s, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := s.Get(context.Background(), "k")
	require.Error(t, err)
	assert.False(t, kvstore.IsAbsent(err))
	assert.Contains(t, err.Error(), "redis get k")

	assert.Error(t, s.Set(context.Background(), "k", "v"))
	assert.Error(t, s.Ping(context.Background()))
}
