package kvstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eduhaag/GoMarketplace/internal/kvstore"
	"github.com/eduhaag/GoMarketplace/internal/kvstore/memory"
	apperrors "github.com/eduhaag/GoMarketplace/pkg/errors"
	"github.com/eduhaag/GoMarketplace/pkg/logger"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockStore) Set(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

func testBreakerConfig(name string) kvstore.BreakerConfig {
	cfg := kvstore.DefaultBreakerConfig(name)
	cfg.Timeout = time.Hour
	return cfg
}

func TestBreakerStore_PassThrough(t *testing.T) {
	ctx := context.Background()
	b := kvstore.NewBreakerStore(memory.New(), testBreakerConfig("pass"), logger.Discard())

	require.NoError(t, b.Set(ctx, "k", "v"))
	got, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerStore_AbsentDoesNotTrip(t *testing.T) {
	b := kvstore.NewBreakerStore(memory.New(), testBreakerConfig("absent"), logger.Discard())

	for i := 0; i < 5; i++ {
		_, err := b.Get(context.Background(), "missing")
		assert.True(t, kvstore.IsAbsent(err))
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerStore_TripsAndFailsFast(t *testing.T) {
	ctx := context.Background()
	m := &mockStore{}
	m.On("Set", mock.Anything, "k", "v").Return(errors.New("disk full")).Times(3)

	b := kvstore.NewBreakerStore(m, testBreakerConfig("trip"), logger.Discard())

	for i := 0; i < 3; i++ {
		err := b.Set(ctx, "k", "v")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())
	assert.Equal(t, 2.0, testutil.ToFloat64(kvstore.BreakerGauge(t, "trip")))

	err := b.Set(ctx, "k", "v")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
	assert.Equal(t, 503, apperrors.HTTPStatus(err))

	m.AssertExpectations(t)
}

func TestBreakerStore_PingAndCloseBypass(t *testing.T) {
	m := &mockStore{}
	m.On("Ping", mock.Anything).Return(nil)
	m.On("Close").Return(nil)

	b := kvstore.NewBreakerStore(m, testBreakerConfig("bypass"), logger.Discard())
	assert.NoError(t, b.Ping(context.Background()))
	assert.NoError(t, b.Close())
	m.AssertExpectations(t)
}
