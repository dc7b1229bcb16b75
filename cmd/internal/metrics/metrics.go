// Package metrics defines the server's Prometheus instruments.
//
// Instruments live here, away from the HTTP wiring, so API packages can
// increment them without importing the app package.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttempts counts login attempts by result:
	// success, invalid_credentials, rate_limited, error.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "friendlines_login_attempts_total",
		Help: "Login attempts by result.",
	}, []string{"result"})

	// RefreshAttempts counts refresh rotations by result:
	// success, not_active, error. Reuse incidents are counted separately.
	RefreshAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "friendlines_refresh_attempts_total",
		Help: "Refresh token rotations by result.",
	}, []string{"result"})

	// RefreshReuseIncidents counts detected refresh-token reuse incidents.
	RefreshReuseIncidents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "friendlines_refresh_reuse_incidents_total",
		Help: "Refresh token reuse incidents (family revocations).",
	})

	// SilentRefreshes counts middleware-driven silent refreshes by result:
	// success, failed.
	SilentRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "friendlines_silent_refreshes_total",
		Help: "Auth-gate silent refresh attempts by result.",
	}, []string{"result"})

	// PushDeliveries counts push fan-out deliveries by result: success, failed.
	PushDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "friendlines_push_deliveries_total",
		Help: "Push notification deliveries by result.",
	}, []string{"result"})

	// FeedEventsDropped counts websocket feed events dropped on backpressure.
	FeedEventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "friendlines_feed_events_dropped_total",
		Help: "Feed events dropped because a client send buffer was full.",
	})

	// FeedConnections tracks currently open websocket feed connections.
	FeedConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "friendlines_feed_connections",
		Help: "Open websocket feed connections.",
	})

	// HTTPRequests counts served HTTP requests by method and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "friendlines_http_requests_total",
		Help: "HTTP requests by method and status class.",
	}, []string{"method", "status"})
)
