package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/eduhaag/GoMarketplace/internal/cart"
	"github.com/eduhaag/GoMarketplace/internal/config"
	"github.com/eduhaag/GoMarketplace/internal/event"
	handler "github.com/eduhaag/GoMarketplace/internal/handler/http"
	"github.com/eduhaag/GoMarketplace/internal/kvstore"
	"github.com/eduhaag/GoMarketplace/pkg/database"
	"github.com/eduhaag/GoMarketplace/pkg/health"
	pkgkafka "github.com/eduhaag/GoMarketplace/pkg/kafka"
	"github.com/eduhaag/GoMarketplace/pkg/tracing"
)

const (
	serviceName     = "cart"
	shutdownTimeout = 10 * time.Second
)

// App wires together all dependencies and runs the cart service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	backend        kvstore.Store
	store          *cart.Store
	kafka          *pkgkafka.Producer
	events         *event.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error

	stopOnce    sync.Once
	releaseOnce sync.Once
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	return newApp(cfg, logger, prometheus.DefaultRegisterer)
}

func newApp(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Tracing.
	tracingCfg := tracing.DefaultConfig(serviceName + "-service")
	tracingCfg.Environment = cfg.Environment
	tracingCfg.Enabled = cfg.OTELEnabled
	tracingCfg.OTLPEndpoint = cfg.OTELEndpoint
	tracingCfg.SampleRate = cfg.OTELSampleRate
	tracerShutdown, err := tracing.InitTracer(ctx, tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	database.SetSlowQueryLogging(cfg.SlowQuery, logger)

	// Durable store.
	backend, err := openBackend(ctx, cfg, reg, logger)
	if err != nil {
		_ = tracerShutdown(ctx)
		return nil, err
	}

	// Cart store, hydrated before the first request is served.
	opts := append(cfg.StoreOptions(), cart.WithLogger(logger))
	store := cart.New(backend, cfg.StorageKey, opts...)

	hctx, hcancel := context.WithTimeout(ctx, cfg.HydrateTimeout)
	snap, err := store.Hydrate(hctx)
	hcancel()
	if err != nil {
		_ = store.Close(ctx)
		_ = backend.Close()
		_ = tracerShutdown(ctx)
		return nil, fmt.Errorf("hydrate cart: %w", err)
	}
	logger.Info("cart store ready",
		slog.String("backend", cfg.StoreBackend),
		slog.String("key", store.Key()),
		slog.Uint64("version", snap.Version),
		slog.Int("item_count", snap.ItemCount()),
	)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("store", backend.Ping)

	a := &App{
		cfg:            cfg,
		logger:         logger,
		backend:        backend,
		store:          store,
		tracerShutdown: tracerShutdown,
	}

	// Kafka event publishing.
	if cfg.KafkaEnabled {
		a.kafka = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		a.events = event.NewProducer(a.kafka, cfg.DeviceID, cfg.EventQueueSize, logger)
		store.Subscribe(a.events.Listen)
		healthHandler.Register("kafka", a.kafka.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      handler.NewRouter(store, healthHandler, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// Handler returns the HTTP handler serving the cart API.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Store returns the application's cart store.
func (a *App) Store() *cart.Store {
	return a.store
}

// Run starts the HTTP server and event publisher and blocks until ctx is
// canceled or a component fails, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.events != nil {
		// Publishing outlives gctx so snapshots queued during shutdown still go out.
		g.Go(func() error {
			return a.events.Run(context.WithoutCancel(gctx))
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutdown signal received")
		a.stopServing()
		return nil
	})

	err := g.Wait()
	a.release()
	return err
}

// Shutdown gracefully stops all components. Run calls it implicitly; it is
// safe to call more than once.
func (a *App) Shutdown() error {
	a.stopServing()
	a.release()
	return nil
}

// stopServing stops accepting requests, drains queued cart writes and closes
// the event queue.
func (a *App) stopServing() {
	a.stopOnce.Do(func() {
		a.logger.Info("shutting down application...")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		}

		if err := a.store.Close(ctx); err != nil {
			a.logger.Error("cart store close error", slog.String("error", err.Error()))
		}

		if a.events != nil {
			a.events.Stop()
		}
	})
}

// release closes external connections. It runs after the event publisher
// has drained.
func (a *App) release() {
	a.releaseOnce.Do(func() {
		if a.kafka != nil {
			if err := a.kafka.Close(); err != nil {
				a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			}
		}

		if err := a.backend.Close(); err != nil {
			a.logger.Error("cart backend close error", slog.String("error", err.Error()))
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}

		a.logger.Info("application shutdown complete")
	})
}
