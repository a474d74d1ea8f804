/*
Package metrics registers the application's Prometheus collectors and exposes
small helpers so callers never touch the prometheus API directly.
*/
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	storeMode = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parley_store_durable",
		Help: "Active store backend selection: 1 durable, 0 volatile.",
	})

	messagesSaved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_messages_saved_total",
		Help: "Messages persisted, labeled by store backend.",
	}, []string{"backend"})

	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parley_ws_connections",
		Help: "Currently open websocket connections.",
	})

	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parley_events_dropped_total",
		Help: "Outbound events dropped because a client send queue was full.",
	})
)

// SetStoreMode records the current backend selection.
func SetStoreMode(durable bool) {
	if durable {
		storeMode.Set(1)
	} else {
		storeMode.Set(0)
	}
}

// MessageSaved counts one persisted message against the named backend.
func MessageSaved(backend string) {
	messagesSaved.WithLabelValues(backend).Inc()
}

// ConnOpened and ConnClosed track the live websocket connection gauge.
func ConnOpened() { activeConnections.Inc() }
func ConnClosed() { activeConnections.Dec() }

// EventDropped counts an outbound event lost to a saturated send queue.
func EventDropped() { eventsDropped.Inc() }

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
