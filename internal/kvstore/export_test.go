package kvstore

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// BreakerGauge exposes the state gauge of a named breaker to external tests.
func BreakerGauge(t *testing.T, name string) prometheus.Gauge {
	t.Helper()
	return breakerState.WithLabelValues(name)
}
