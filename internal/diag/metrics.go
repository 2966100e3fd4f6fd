// Package diag exposes the dungeon's operational surface: prometheus
// counters fed by the world server and a small HTTP API for health,
// status, and room census.
package diag

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the game counters. Labels are bounded: the only vector
// is keyed by event kind, which is a closed set.
type Metrics struct {
	registry *prometheus.Registry

	players prometheus.Gauge
	events  *prometheus.CounterVec
	combats prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		players: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dungeon_players",
			Help: "Current number of connected sessions",
		}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dungeon_events_total",
			Help: "Events dispatched to the world server",
		}, []string{"kind"}),
		combats: factory.NewCounter(prometheus.CounterOpts{
			Name: "dungeon_combats_total",
			Help: "Combat exchanges resolved",
		}),
	}
}

func (m *Metrics) SetPlayers(n int) {
	m.players.Set(float64(n))
}

func (m *Metrics) CountEvent(kind string) {
	m.events.WithLabelValues(kind).Inc()
}

func (m *Metrics) CountCombat() {
	m.combats.Inc()
}

// Registry exposes the underlying registry for the metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
