package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eduhaag/GoMarketplace/internal/config"
	"github.com/eduhaag/GoMarketplace/internal/kvstore"
	"github.com/eduhaag/GoMarketplace/internal/kvstore/memory"
	pgstore "github.com/eduhaag/GoMarketplace/internal/kvstore/postgres"
	redisstore "github.com/eduhaag/GoMarketplace/internal/kvstore/redis"
	sqlitestore "github.com/eduhaag/GoMarketplace/internal/kvstore/sqlite"
	"github.com/eduhaag/GoMarketplace/pkg/database"
)

// openBackend connects the durable store named by cfg.StoreBackend and,
// when enabled, wraps it in a circuit breaker.
func openBackend(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) (kvstore.Store, error) {
	backend, err := connectBackend(ctx, cfg, reg, logger)
	if err != nil {
		return nil, err
	}
	if !cfg.BreakerEnabled {
		return backend, nil
	}
	return kvstore.NewBreakerStore(backend, kvstore.DefaultBreakerConfig(cfg.StoreBackend), logger), nil
}

func connectBackend(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) (kvstore.Store, error) {
	switch cfg.StoreBackend {
	case kvstore.BackendMemory:
		logger.Warn("using in-memory cart store, contents are lost on restart")
		return memory.New(), nil

	case kvstore.BackendRedis:
		redisCfg := database.DefaultRedisConfig()
		redisCfg.Addr = cfg.RedisAddr
		redisCfg.Password = cfg.RedisPass
		redisCfg.DB = cfg.RedisDB
		client, err := database.NewRedisClient(ctx, redisCfg)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		return redisstore.New(client, cfg.RedisKeyTTL), nil

	case kvstore.BackendSQLite:
		sqliteCfg := database.DefaultSQLiteConfig()
		sqliteCfg.Path = cfg.SQLitePath
		db, err := database.NewSQLite(ctx, sqliteCfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		store, err := sqlitestore.New(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		if err := database.RegisterPoolMetrics(reg, serviceName, kvstore.BackendSQLite, database.SQLDBStats(db)); err != nil {
			logger.Warn("failed to register sqlite pool metrics", slog.String("error", err.Error()))
		}
		logger.Info("opened SQLite cart store", slog.String("path", cfg.SQLitePath))
		return store, nil

	case kvstore.BackendPostgres:
		pgCfg := database.DefaultPostgresConfig()
		pgCfg.Host = cfg.PostgresHost
		pgCfg.Port = cfg.PostgresPort
		pgCfg.User = cfg.PostgresUser
		pgCfg.Password = cfg.PostgresPassword
		pgCfg.DBName = cfg.PostgresDB
		pgCfg.SSLMode = cfg.PostgresSSLMode
		pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := pgstore.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		if err := database.RegisterPoolMetrics(reg, serviceName, kvstore.BackendPostgres, database.PgxPoolStats(pool)); err != nil {
			logger.Warn("failed to register postgres pool metrics", slog.String("error", err.Error()))
		}
		return pgstore.New(pool), nil

	default:
		return nil, fmt.Errorf("unknown cart store backend %q", cfg.StoreBackend)
	}
}
