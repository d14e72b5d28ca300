package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics counts cart mutations and the persistence writes that failed
// behind them.
type CartMetrics struct {
	operations      *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
}

// NewCartMetrics registers the cart counters on the provided registerer. A nil
// registerer yields a no-op recorder.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart mutations applied, by operation.",
	}, []string{"op"})
	persistFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_persist_failures_total",
		Help: "Cart snapshot writes or deletes that failed, by operation.",
	}, []string{"op"})
	reg.MustRegister(operations, persistFailures)
	return &CartMetrics{
		operations:      operations,
		persistFailures: persistFailures,
	}
}

func (c *CartMetrics) IncOperation(op string) {
	if c == nil || c.operations == nil {
		return
	}
	c.operations.WithLabelValues(normalizeLabel(op)).Inc()
}

func (c *CartMetrics) IncPersistFailure(op string) {
	if c == nil || c.persistFailures == nil {
		return
	}
	c.persistFailures.WithLabelValues(normalizeLabel(op)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
