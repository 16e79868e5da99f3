// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry    *prometheus.Registry
	bookings    *prometheus.CounterVec
	deliveries  *prometheus.CounterVec
	connections prometheus.Gauge
}

// New creates collectors registered on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventbooking",
			Name:      "booking_operations_total",
			Help:      "Reservation lifecycle operations by outcome.",
		}, []string{"op", "outcome"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventbooking",
			Name:      "realtime_deliveries_total",
			Help:      "Real-time messages queued or dropped per subscriber.",
		}, []string{"result"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventbooking",
			Name:      "realtime_connections",
			Help:      "Open real-time subscriptions.",
		}),
	}
	m.registry.MustRegister(
		m.bookings, m.deliveries, m.connections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// BookingOp counts one lifecycle operation.
func (m *Metrics) BookingOp(op, outcome string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(op, outcome).Inc()
}

// Delivered counts messages queued for subscribers.
func (m *Metrics) Delivered(n int) {
	if m == nil || n == 0 {
		return
	}
	m.deliveries.WithLabelValues("queued").Add(float64(n))
}

// Dropped counts a message dropped for a slow subscriber.
func (m *Metrics) Dropped() {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues("dropped").Inc()
}

// Connected adjusts the open subscription gauge by delta.
func (m *Metrics) Connected(delta int) {
	if m == nil {
		return
	}
	m.connections.Add(float64(delta))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
