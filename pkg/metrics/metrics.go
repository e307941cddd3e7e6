package metrics

import (
	"net/http"
	"time"

	"github.com/clatterlab/clatter/internal/common/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the chat server's prometheus instruments. A nil
// *Metrics is valid and turns every method into a no-op.
type Metrics struct {
	registry *prometheus.Registry

	connActive   prometheus.Gauge
	connTotal    prometheus.Counter
	eventCnt     *prometheus.CounterVec
	eventDur     *prometheus.HistogramVec
	broadcastCnt prometheus.Counter
	deliveryErr  prometheus.Counter
}

// New builds a registry with process, Go, and chat collectors.
func New(cfg config.MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	ns := cfg.Namespace
	buckets := cfg.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	r := prometheus.NewRegistry()
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	connActive := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: ns, Name: "connections_active"})
	connTotal := prometheus.NewCounter(prometheus.CounterOpts{Namespace: ns, Name: "connections_total"})
	eventCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "events_total"}, []string{"event", "status"})
	eventDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "event_duration_seconds", Buckets: buckets}, []string{"event"})
	broadcastCnt := prometheus.NewCounter(prometheus.CounterOpts{Namespace: ns, Name: "broadcast_deliveries_total"})
	deliveryErr := prometheus.NewCounter(prometheus.CounterOpts{Namespace: ns, Name: "broadcast_failures_total"})
	r.MustRegister(connActive, connTotal, eventCnt, eventDur, broadcastCnt, deliveryErr)

	return &Metrics{
		registry:     r,
		connActive:   connActive,
		connTotal:    connTotal,
		eventCnt:     eventCnt,
		eventDur:     eventDur,
		broadcastCnt: broadcastCnt,
		deliveryErr:  deliveryErr,
	}
}

// ConnOpened records an accepted connection.
func (m *Metrics) ConnOpened() {
	if m == nil {
		return
	}
	m.connActive.Inc()
	m.connTotal.Inc()
}

// ConnClosed records a finished connection.
func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}
	m.connActive.Dec()
}

// EventDone records one dispatched event and its outcome.
func (m *Metrics) EventDone(event, status string, since time.Time) {
	if m == nil {
		return
	}
	m.eventCnt.WithLabelValues(event, status).Inc()
	m.eventDur.WithLabelValues(event).Observe(time.Since(since).Seconds())
}

// Delivered records n successful broadcast deliveries.
func (m *Metrics) Delivered(n int) {
	if m == nil {
		return
	}
	m.broadcastCnt.Add(float64(n))
}

// DeliveryFailed records one failed broadcast delivery.
func (m *Metrics) DeliveryFailed() {
	if m == nil {
		return
	}
	m.deliveryErr.Inc()
}

// Handler exposes the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
