package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "icebreaker"

// Collector holds every Prometheus metric of the service. It satisfies the
// metrics interfaces of the draw, records and events packages.
type Collector struct {
	DrawsTotal        *prometheus.CounterVec
	ResetsTotal       *prometheus.CounterVec
	RejectedTotal     *prometheus.CounterVec
	StaleTotal        *prometheus.CounterVec
	StoreCallsTotal   *prometheus.CounterVec
	StoreCallDuration *prometheus.HistogramVec
	EventsTotal       *prometheus.CounterVec
	EventDuration     *prometheus.HistogramVec

	registerer prometheus.Registerer
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		DrawsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draws_total",
			Help:      "Revealed draws by question tier and whether it was the participant's first draw",
		}, []string{"tier", "first_draw"}),
		ResetsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_resets_total",
			Help:      "Session resets by reason",
		}, []string{"reason"}),
		RejectedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draws_rejected_total",
			Help:      "Draw requests rejected before starting, by reason",
		}, []string{"reason"}),
		StaleTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_completions_total",
			Help:      "Asynchronous completions dropped because the session had moved on",
		}, []string{"kind"}),
		StoreCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_store_calls_total",
			Help:      "Record store calls by backend, operation and status",
		}, []string{"backend", "op", "status"}),
		StoreCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "record_store_call_duration_seconds",
			Help:      "Latency of record store calls",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"backend", "op"}),
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Published events by type and status",
		}, []string{"event_type", "status"}),
		EventDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_publish_duration_seconds",
			Help:      "Latency of event publishing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),
		registerer: reg,
	}
}

// RegisterGauge exposes a value read on every scrape, e.g. pending callback
// registrations.
func (c *Collector) RegisterGauge(name, help string, fn func() float64) {
	promauto.With(c.registerer).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn)
}

func (c *Collector) RecordDraw(tier string, firstDraw bool) {
	c.DrawsTotal.WithLabelValues(tier, boolLabel(firstDraw)).Inc()
}

func (c *Collector) RecordReset(reason string) {
	c.ResetsTotal.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordRejected(reason string) {
	c.RejectedTotal.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordStaleCompletion(kind string) {
	c.StaleTotal.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordStoreCall(backend, op string, success bool, duration time.Duration) {
	c.StoreCallsTotal.WithLabelValues(backend, op, status(success)).Inc()
	c.StoreCallDuration.WithLabelValues(backend, op).Observe(duration.Seconds())
}

func (c *Collector) RecordEventPublished(eventType string, success bool, duration time.Duration) {
	c.EventsTotal.WithLabelValues(eventType, status(success)).Inc()
	c.EventDuration.WithLabelValues(eventType).Observe(duration.Seconds())
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
