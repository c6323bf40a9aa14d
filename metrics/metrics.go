// Package metrics defines the Prometheus metrics of the service. Metrics are registered on the
// default registry through promauto and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hockey"

// GuardDecisionsTotal counts navigation decisions.
// Labels:
//   - outcome: "proceed" or "redirect"
//   - reason: short reason code (e.g. "public", "unauthenticated", "not_admin", "fail_open")
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of navigation guard decisions.",
	},
	[]string{"outcome", "reason"},
)

// GuardWaitDuration measures how long the guard waited for a loading session.
// Label:
//   - result: "settled", "timeout" or "canceled"
var GuardWaitDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "guard_wait_duration_seconds",
		Help:      "Time the navigation guard spent waiting for session initialization.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2, 4, 8, 16},
	},
	[]string{"result"},
)

// SessionInitTotal counts settled session initializations.
// Label:
//   - outcome: "authenticated", "anonymous", "provider_error" or "timeout"
var SessionInitTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_init_total",
		Help:      "Total number of session initializations, by outcome.",
	},
	[]string{"outcome"},
)

// SessionsActive tracks the number of live per-client session managers.
var SessionsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Current number of client session managers held in memory.",
	},
)

// ProfileFallbackTotal counts profile loads that fell back to the default user role.
var ProfileFallbackTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_fallback_total",
		Help:      "Total number of profile loads that defaulted to the user role.",
	},
)

// SessionExpiredTotal counts sessions cleared because their access token lapsed.
var SessionExpiredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_expired_total",
		Help:      "Total number of client sessions cleared on access token expiry.",
	},
)

// EventsDroppedTotal counts bus payloads dropped because a subscriber fell behind.
// Label:
//   - topic: bus topic of the dropped payload
var EventsDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Total number of event payloads dropped for slow subscribers.",
	},
	[]string{"topic"},
)

// MatchEventsTotal counts timeline events recorded by match control.
// Label:
//   - type: timeline event type (e.g. "goal", "card_issued")
var MatchEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "match_events_total",
		Help:      "Total number of match timeline events recorded.",
	},
	[]string{"type"},
)

// ScoreboardClients tracks websocket clients connected to scoreboard rooms.
var ScoreboardClients = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scoreboard_clients",
		Help:      "Current number of websocket clients subscribed to scoreboards.",
	},
)
