package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eduhaag/GoMarketplace/internal/cart"
	"github.com/eduhaag/GoMarketplace/internal/domain"
	"github.com/eduhaag/GoMarketplace/internal/kvstore/memory"
	pkgkafka "github.com/eduhaag/GoMarketplace/pkg/kafka"
	"github.com/eduhaag/GoMarketplace/pkg/logger"
)

type mockPublisher struct {
	mock.Mock
	mu     sync.Mutex
	events []*pkgkafka.Event
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	return m.Called(ctx, topic, event).Error(0)
}

func (m *mockPublisher) published() []*pkgkafka.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*pkgkafka.Event(nil), m.events...)
}

func sampleSnapshot() cart.Snapshot {
	return cart.Snapshot{
		Version: 3,
		Products: domain.Collection{
			{ID: "x", Title: "Shoe", ImageURL: "img", Price: 50, Quantity: 2},
			{ID: "y", Title: "Sock", ImageURL: "sock", Price: 5, Quantity: 1},
		},
	}
}

func TestPublishCartUpdated(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, TopicCartUpdated, mock.Anything).Return(nil)
	p := NewProducer(pub, "device-1", 8, logger.Discard())

	require.NoError(t, p.PublishCartUpdated(context.Background(), sampleSnapshot(), "corr-1"))

	events := pub.published()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, TopicCartUpdated, ev.EventType)
	assert.Equal(t, "device-1", ev.AggregateID)
	assert.Equal(t, AggregateTypeCart, ev.AggregateType)
	assert.Equal(t, uint64(3), ev.Version)
	assert.Equal(t, "corr-1", ev.CorrelationID)

	var data CartUpdatedData
	require.NoError(t, ev.UnmarshalData(&data))
	assert.Equal(t, 3, data.ItemCount)
	assert.Equal(t, uint64(3), data.Version)
	require.Len(t, data.Items, 2)
	assert.Equal(t, CartItemData{ID: "x", Title: "Shoe", ImageURL: "img", Price: 50, Quantity: 2}, data.Items[0])
	pub.AssertExpectations(t)
}

func TestPublishCartUpdated_Error(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, TopicCartUpdated, mock.Anything).Return(errors.New("broker down"))
	p := NewProducer(pub, "device-1", 8, logger.Discard())

	err := p.PublishCartUpdated(context.Background(), sampleSnapshot(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestProducer_ListenRunStop(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, TopicCartUpdated, mock.Anything).Return(nil)
	p := NewProducer(pub, "device-1", 16, logger.Discard())

	store := cart.New(memory.New(), cart.DefaultStorageKey)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	store.Subscribe(p.Listen)

	ctx := context.Background()
	_, err := store.AddToCart(ctx, domain.Product{ID: "x", Title: "Shoe"})
	require.NoError(t, err)
	_, err = store.Increment(ctx, "x")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	p.Stop()
	p.Stop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}

	events := pub.published()
	require.Len(t, events, 2)
	assert.Equal(t, uint64(1), events[0].Version)
	assert.Equal(t, uint64(2), events[1].Version)
}

func TestProducer_ListenDropsWhenFull(t *testing.T) {
	pub := &mockPublisher{}
	p := NewProducer(pub, "device-1", 1, logger.Discard())

	p.Listen(context.Background(), cart.Snapshot{Version: 1})
	p.Listen(context.Background(), cart.Snapshot{Version: 2})

	assert.Len(t, p.queue, 1)
}

func TestProducer_RunStopsOnContext(t *testing.T) {
	p := NewProducer(&mockPublisher{}, "device-1", 1, logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, p.Run(ctx))
}
