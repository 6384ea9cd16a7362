// Package cart holds the shopping cart state of one device: an ordered
// collection of line items kept in memory and mirrored to a durable
// key-value store under a single key.
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/eduhaag/GoMarketplace/internal/domain"
	"github.com/eduhaag/GoMarketplace/internal/kvstore"
	"github.com/eduhaag/GoMarketplace/pkg/logger"
)

// DefaultStorageKey is the key the cart is persisted under.
const DefaultStorageKey = "@GoMarketplace:products"

const (
	defaultPersistTimeout = 5 * time.Second
	defaultHydrateTimeout = 5 * time.Second
	defaultQueueSize      = 64
)

// Mutation names used in logs and metrics.
const (
	OpAddToCart = "add_to_cart"
	OpIncrement = "increment"
	OpDecrement = "decrement"
)

// Snapshot is an immutable view of the cart. Version grows by one with every
// change, so a consumer holding several snapshots keeps the highest.
type Snapshot struct {
	Version  uint64            `json:"version"`
	Products domain.Collection `json:"products"`
}

// ItemCount returns the total units in the snapshot.
func (s Snapshot) ItemCount() int {
	return s.Products.ItemCount()
}

// Listener receives every new snapshot. Listeners run on the goroutine that
// made the change, after the store lock is released, and must not block.
type Listener func(ctx context.Context, snap Snapshot)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithPersistTimeout bounds each durable write.
func WithPersistTimeout(d time.Duration) Option {
	return func(s *Store) { s.persistTimeout = d }
}

// WithHydrateTimeout bounds the read done when a mutation arrives before
// Hydrate was called.
func WithHydrateTimeout(d time.Duration) Option {
	return func(s *Store) { s.hydrateTimeout = d }
}

// WithQueueSize sets how many writes may wait for the writer before
// mutations block.
func WithQueueSize(n int) Option {
	return func(s *Store) { s.queueSize = n }
}

type writeRequest struct {
	seq     uint64
	version uint64
	value   string
}

// Store owns the cart collection. All mutations and hydration run under one
// mutex; durable writes go through a FIFO queue drained by a single writer
// goroutine, so the backend always ends up holding the last issued snapshot.
type Store struct {
	backend        kvstore.Store
	key            string
	logger         *slog.Logger
	persistTimeout time.Duration
	hydrateTimeout time.Duration
	queueSize      int

	mu           sync.Mutex
	products     domain.Collection
	version      uint64
	hydrated     bool
	closed       bool
	issued       uint64
	listeners    map[uint64]Listener
	nextListener uint64

	writes chan writeRequest
	done   chan struct{}

	progressMu sync.Mutex
	persisted  uint64
	progress   chan struct{}
}

// New creates an empty store mirrored to backend under key and starts its
// writer. The caller owns backend and closes it after Close.
func New(backend kvstore.Store, key string, opts ...Option) *Store {
	s := &Store{
		backend:        backend,
		key:            key,
		logger:         logger.Discard(),
		persistTimeout: defaultPersistTimeout,
		hydrateTimeout: defaultHydrateTimeout,
		queueSize:      defaultQueueSize,
		products:       domain.Collection{},
		listeners:      make(map[uint64]Listener),
		done:           make(chan struct{}),
		progress:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.key == "" {
		s.key = DefaultStorageKey
	}
	if s.queueSize < 1 {
		s.queueSize = 1
	}
	s.writes = make(chan writeRequest, s.queueSize)

	go s.runWriter()
	return s
}

// Key returns the storage key.
func (s *Store) Key() string {
	return s.key
}

// Hydrate loads the persisted cart. It runs once; later calls return the
// current snapshot. Absent, unreadable, and malformed values all leave the
// cart empty.
func (s *Store) Hydrate(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Snapshot{}, errClosed()
	}
	loaded := false
	if !s.hydrated {
		loaded = s.hydrateLocked(ctx)
	}
	snap := s.snapshotLocked()
	listeners := s.listenersLocked(loaded)
	s.mu.Unlock()

	s.notify(ctx, listeners, snap)
	return snap, nil
}

// hydrateLocked reads and installs the persisted collection. It reports
// whether a non-empty collection was installed.
func (s *Store) hydrateLocked(ctx context.Context) bool {
	s.hydrated = true
	l := logger.WithContext(ctx, s.logger).With(slog.String("key", s.key))

	raw, err := s.backend.Get(ctx, s.key)
	switch {
	case kvstore.IsAbsent(err):
		hydrationTotal.WithLabelValues(hydrateAbsent).Inc()
		l.Debug("no persisted cart, starting empty")
		return false
	case err != nil:
		hydrationTotal.WithLabelValues(hydrateError).Inc()
		l.Warn("failed to read persisted cart, starting empty", slog.String("error", err.Error()))
		return false
	}

	products, err := domain.Decode(raw)
	if err != nil {
		hydrationTotal.WithLabelValues(hydrateMalformed).Inc()
		l.Warn("persisted cart is malformed, starting empty", slog.String("error", err.Error()))
		return false
	}

	hydrationTotal.WithLabelValues(hydrateLoaded).Inc()
	if len(products) == 0 {
		return false
	}
	s.products = products
	s.version++
	lineItems.Set(float64(len(products)))
	l.Info("cart hydrated",
		slog.Int("line_items", len(products)),
		slog.Int("item_count", products.ItemCount()),
	)
	return true
}

// Products returns the current snapshot. Before hydration it is empty.
func (s *Store) Products() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Snapshot{}, errClosed()
	}
	return s.snapshotLocked(), nil
}

// AddToCart puts p in the cart. An existing id behaves as Increment; a new
// one is appended with quantity 1.
func (s *Store) AddToCart(ctx context.Context, p domain.Product) (Snapshot, error) {
	if err := p.Validate(); err != nil {
		mutationsTotal.WithLabelValues(OpAddToCart, resultInvalid).Inc()
		return Snapshot{}, err
	}
	return s.mutate(ctx, OpAddToCart, p.ID, func(c domain.Collection) (domain.Collection, bool) {
		return c.Add(p)
	})
}

// Increment raises the quantity of id by one. An id not in the cart is a
// no-op: nothing is written and no error is returned.
func (s *Store) Increment(ctx context.Context, id string) (Snapshot, error) {
	return s.mutate(ctx, OpIncrement, id, func(c domain.Collection) (domain.Collection, bool) {
		return c.Increment(id)
	})
}

// Decrement lowers the quantity of id by one and removes the item at zero.
// An id not in the cart is a no-op, like Increment.
func (s *Store) Decrement(ctx context.Context, id string) (Snapshot, error) {
	return s.mutate(ctx, OpDecrement, id, func(c domain.Collection) (domain.Collection, bool) {
		return c.Decrement(id)
	})
}

func (s *Store) mutate(
	ctx context.Context,
	op, id string,
	apply func(domain.Collection) (domain.Collection, bool),
) (Snapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		mutationsTotal.WithLabelValues(op, resultMisuse).Inc()
		return Snapshot{}, errClosed()
	}

	loaded := false
	if !s.hydrated {
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.hydrateTimeout)
		loaded = s.hydrateLocked(hctx)
		cancel()
	}

	next, changed := apply(s.products)
	if changed {
		s.products = next
		s.version++
		lineItems.Set(float64(len(next)))
	}
	snap := s.snapshotLocked()
	if changed {
		if err := s.enqueueLocked(snap); err != nil {
			// Encoding a validated collection cannot fail; keep memory authoritative.
			logger.WithContext(ctx, s.logger).Error("failed to encode cart", slog.String("error", err.Error()))
		}
	}
	listeners := s.listenersLocked(changed || loaded)
	s.mu.Unlock()

	l := logger.WithContext(ctx, s.logger)
	if !changed {
		mutationsTotal.WithLabelValues(op, resultNoop).Inc()
		l.Debug("no matching line item, cart unchanged", slog.String("operation", op), slog.String("id", id))
	} else {
		mutationsTotal.WithLabelValues(op, resultApplied).Inc()
		l.Debug("cart updated",
			slog.String("operation", op),
			slog.String("id", id),
			slog.Uint64("version", snap.Version),
		)
	}

	s.notify(ctx, listeners, snap)
	return snap, nil
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Version: s.version, Products: s.products.Clone()}
}

// enqueueLocked hands a full-collection write to the writer. It blocks when
// the queue is full, which also holds back further mutations.
func (s *Store) enqueueLocked(snap Snapshot) error {
	value, err := domain.Encode(snap.Products)
	if err != nil {
		return err
	}
	s.issued++
	s.writes <- writeRequest{seq: s.issued, version: snap.Version, value: value}
	persistQueueDepth.Set(float64(len(s.writes)))
	return nil
}

func (s *Store) runWriter() {
	defer close(s.done)
	for req := range s.writes {
		persistQueueDepth.Set(float64(len(s.writes)))
		s.persist(req)
		s.markPersisted(req.seq)
	}
}

func (s *Store) persist(req writeRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	defer cancel()

	start := time.Now()
	err := s.backend.Set(ctx, s.key, req.value)
	persistDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		persistWritesTotal.WithLabelValues("error").Inc()
		s.logger.Error("failed to persist cart",
			slog.String("key", s.key),
			slog.Uint64("version", req.version),
			slog.String("error", err.Error()),
		)
		return
	}
	persistWritesTotal.WithLabelValues("ok").Inc()
}

func (s *Store) markPersisted(seq uint64) {
	s.progressMu.Lock()
	defer s.progressMu.Unlock()
	s.persisted = seq
	close(s.progress)
	s.progress = make(chan struct{})
}

// Flush waits until every write issued before the call has been attempted.
// Failed writes count as attempted; Flush does not report them.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	target := s.issued
	s.mu.Unlock()

	for {
		s.progressMu.Lock()
		if s.persisted >= target {
			s.progressMu.Unlock()
			return nil
		}
		ch := s.progress
		s.progressMu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return fmt.Errorf("flush cart writes: %w", ctx.Err())
		}
	}
}

// Close ends the store's lifetime. Queued writes are drained before Close
// returns unless ctx expires first. Later operations fail with a misuse
// error. Close is idempotent and does not close the backend.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.writes)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain cart writes: %w", ctx.Err())
	}
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Subscribe registers l for every future snapshot and returns a function
// that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	s.nextListener++
	id := s.nextListener
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) listenersLocked(changed bool) []Listener {
	if !changed || len(s.listeners) == 0 {
		return nil
	}
	out := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		out = append(out, l)
	}
	return out
}

func (s *Store) notify(ctx context.Context, listeners []Listener, snap Snapshot) {
	for _, l := range listeners {
		s.callListener(ctx, l, snap)
	}
}

func (s *Store) callListener(ctx context.Context, l Listener, snap Snapshot) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.WithContext(ctx, s.logger).Error("cart listener panicked",
				slog.Uint64("version", snap.Version),
				slog.Any("panic", rec),
			)
		}
	}()
	// Each listener gets its own copy so one cannot alter what the next sees.
	l(ctx, Snapshot{Version: snap.Version, Products: snap.Products.Clone()})
}
