// Package metrics exposes the server's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var TapsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tapper_taps_total",
	Help: "Tap commands processed across all sessions.",
})

var SavesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tapper_saves_total",
	Help: "Progression writes flushed to the player store.",
})

var SaveFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tapper_save_failures_total",
	Help: "Progression flushes that returned a store error.",
})

var ClaimsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tapper_quest_claims_total",
	Help: "Quest rewards claimed.",
})

var SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "tapper_sessions_active",
	Help: "Game sessions currently resident in memory.",
})

var MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tapper_chat_messages_total",
	Help: "Chat messages accepted.",
})

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
