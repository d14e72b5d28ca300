package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics tracks the order-event relay.
type OutboxMetrics struct {
	cycle     *prometheus.HistogramVec
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	backlog   *prometheus.GaugeVec
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	cycle := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_publish_cycle_seconds",
		Help:    "Duration of one outbox publish batch in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events published to Pub/Sub.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_failed_total",
		Help: "Outbox publish attempts that failed.",
	}, []string{"event_type"})
	backlog := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "outbox_backlog_rows",
		Help: "Unpublished outbox rows by state (pending or parked).",
	}, []string{"state"})
	reg.MustRegister(cycle, published, failed, backlog)
	return &OutboxMetrics{cycle: cycle, published: published, failed: failed, backlog: backlog}
}

func (o *OutboxMetrics) ObserveCycle(topic string, d time.Duration) {
	if o == nil || o.cycle == nil {
		return
	}
	o.cycle.WithLabelValues(normalizeLabel(topic)).Observe(d.Seconds())
}

func (o *OutboxMetrics) IncPublished(eventType string) {
	if o == nil || o.published == nil {
		return
	}
	o.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (o *OutboxMetrics) IncFailed(eventType string) {
	if o == nil || o.failed == nil {
		return
	}
	o.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// SetBacklog records the unpublished row counts seen on the last idle poll.
func (o *OutboxMetrics) SetBacklog(pending, parked int64) {
	if o == nil || o.backlog == nil {
		return
	}
	o.backlog.WithLabelValues("pending").Set(float64(pending))
	o.backlog.WithLabelValues("parked").Set(float64(parked))
}
