package database

import (
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats is a backend-neutral snapshot of connection pool state.
type PoolStats struct {
	InUse int64
	Idle  int64
	Total int64
	Max   int64
	// WaitCount is the cumulative number of acquires that had to wait.
	WaitCount int64
}

// PoolStatsCollector implements prometheus.Collector over any pool that can
// report PoolStats.
type PoolStatsCollector struct {
	stats   func() PoolStats
	service string
	backend string

	inUse     *prometheus.Desc
	idle      *prometheus.Desc
	total     *prometheus.Desc
	max       *prometheus.Desc
	waitCount *prometheus.Desc
}

// NewPoolStatsCollector creates a collector reading stats from fn.
func NewPoolStatsCollector(service, backend string, fn func() PoolStats) *PoolStatsCollector {
	labels := []string{"service", "backend"}
	return &PoolStatsCollector{
		stats:   fn,
		service: service,
		backend: backend,
		inUse:   prometheus.NewDesc("db_pool_in_use_connections", "Number of connections currently in use", labels, nil),
		idle:    prometheus.NewDesc("db_pool_idle_connections", "Number of idle connections", labels, nil),
		total:   prometheus.NewDesc("db_pool_total_connections", "Total number of open connections", labels, nil),
		max:     prometheus.NewDesc("db_pool_max_connections", "Maximum number of connections allowed", labels, nil),
		waitCount: prometheus.NewDesc("db_pool_wait_count_total",
			"Total number of connection acquires that had to wait", labels, nil),
	}
}

// PgxPoolStats adapts a pgx pool to PoolStats.
func PgxPoolStats(pool *pgxpool.Pool) func() PoolStats {
	return func() PoolStats {
		s := pool.Stat()
		return PoolStats{
			InUse:     int64(s.AcquiredConns()),
			Idle:      int64(s.IdleConns()),
			Total:     int64(s.TotalConns()),
			Max:       int64(s.MaxConns()),
			WaitCount: s.EmptyAcquireCount(),
		}
	}
}

// SQLDBStats adapts a database/sql pool to PoolStats.
func SQLDBStats(db *sql.DB) func() PoolStats {
	return func() PoolStats {
		s := db.Stats()
		return PoolStats{
			InUse:     int64(s.InUse),
			Idle:      int64(s.Idle),
			Total:     int64(s.OpenConnections),
			Max:       int64(s.MaxOpenConnections),
			WaitCount: s.WaitCount,
		}
	}
}

// Describe sends the descriptors of all metrics to the provided channel.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.inUse
	ch <- c.idle
	ch <- c.total
	ch <- c.max
	ch <- c.waitCount
}

// Collect reads current pool statistics and sends them as Prometheus metrics.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(s.InUse), c.service, c.backend)
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.Idle), c.service, c.backend)
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(s.Total), c.service, c.backend)
	ch <- prometheus.MustNewConstMetric(c.max, prometheus.GaugeValue, float64(s.Max), c.service, c.backend)
	ch <- prometheus.MustNewConstMetric(c.waitCount, prometheus.CounterValue, float64(s.WaitCount), c.service, c.backend)
}

// RegisterPoolMetrics registers a collector with reg. Registering the same
// backend twice returns the registry's AlreadyRegisteredError.
func RegisterPoolMetrics(reg prometheus.Registerer, service, backend string, fn func() PoolStats) error {
	return reg.Register(NewPoolStatsCollector(service, backend, fn))
}
