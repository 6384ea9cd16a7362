// Package event publishes cart change events to Kafka.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/eduhaag/GoMarketplace/internal/cart"
	"github.com/eduhaag/GoMarketplace/internal/domain"
	pkgkafka "github.com/eduhaag/GoMarketplace/pkg/kafka"
	"github.com/eduhaag/GoMarketplace/pkg/logger"
)

// Topic for cart snapshot events.
var TopicCartUpdated = pkgkafka.Topic("cart", "updated")

// Aggregate type constant.
const AggregateTypeCart = "cart"

// SourceCartService identifies events originating from this service.
const SourceCartService = "cart-service"

// CartUpdatedData is the payload for a cart.updated event. It carries the
// whole cart so consumers never need to replay deltas.
type CartUpdatedData struct {
	DeviceID  string         `json:"device_id"`
	Version   uint64         `json:"version"`
	ItemCount int            `json:"item_count"`
	Items     []CartItemData `json:"items"`
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Publisher is the subset of pkg/kafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

type pending struct {
	snap          cart.Snapshot
	correlationID string
}

// Producer turns cart snapshots into Kafka events. Snapshots are queued by
// Listen and published by Run, so a slow broker never stalls a mutation.
type Producer struct {
	kafka    Publisher
	deviceID string
	logger   *slog.Logger

	queue     chan pending
	closeOnce sync.Once
}

// NewProducer creates a producer that queues up to queueSize snapshots.
func NewProducer(kafka Publisher, deviceID string, queueSize int, logger *slog.Logger) *Producer {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Producer{
		kafka:    kafka,
		deviceID: deviceID,
		logger:   logger,
		queue:    make(chan pending, queueSize),
	}
}

// Listen is a cart.Listener. When the queue is full the snapshot is dropped;
// the next one supersedes it anyway.
func (p *Producer) Listen(ctx context.Context, snap cart.Snapshot) {
	item := pending{snap: snap, correlationID: logger.CorrelationIDFromContext(ctx)}
	select {
	case p.queue <- item:
	default:
		p.logger.WarnContext(ctx, "cart event queue full, dropping snapshot",
			slog.Uint64("version", snap.Version),
		)
	}
}

// Run publishes queued snapshots until Stop is called and the queue is
// drained, or ctx is cancelled.
func (p *Producer) Run(ctx context.Context) error {
	for {
		select {
		case item, ok := <-p.queue:
			if !ok {
				return nil
			}
			if err := p.PublishCartUpdated(ctx, item.snap, item.correlationID); err != nil {
				p.logger.ErrorContext(ctx, "failed to publish cart event",
					slog.Uint64("version", item.snap.Version),
					slog.String("error", err.Error()),
				)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// Stop closes the queue. Run returns once the remaining snapshots are sent.
func (p *Producer) Stop() {
	p.closeOnce.Do(func() { close(p.queue) })
}

// PublishCartUpdated publishes a cart.updated event for snap.
func (p *Producer) PublishCartUpdated(ctx context.Context, snap cart.Snapshot, correlationID string) error {
	data := CartUpdatedData{
		DeviceID:  p.deviceID,
		Version:   snap.Version,
		ItemCount: snap.ItemCount(),
		Items:     itemsData(snap.Products),
	}

	event, err := pkgkafka.NewEvent(TopicCartUpdated, p.deviceID, AggregateTypeCart, SourceCartService, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}
	event.WithVersion(snap.Version)
	if correlationID != "" {
		event.WithCorrelationID(correlationID)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("device_id", p.deviceID),
		slog.Uint64("version", snap.Version),
		slog.Int("item_count", data.ItemCount),
	)
	return nil
}

func itemsData(c domain.Collection) []CartItemData {
	items := make([]CartItemData, len(c))
	for i, item := range c {
		items[i] = CartItemData{
			ID:       item.ID,
			Title:    item.Title,
			ImageURL: item.ImageURL,
			Price:    item.Price,
			Quantity: item.Quantity,
		}
	}
	return items
}
