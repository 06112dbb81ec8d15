// Package metrics exposes Prometheus collectors for the progression service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Progression ────────────────────────────────────────────────────────────

// Reflections counts submitted reflections by outcome (counted, duplicate).
var Reflections = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "thyknow",
	Name:      "reflections_total",
	Help:      "Submitted reflections by outcome.",
}, []string{"outcome"})

// StreakEvents counts streak transitions (extended, restarted, started).
var StreakEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "thyknow",
	Name:      "streak_events_total",
	Help:      "Streak transitions caused by reflections.",
}, []string{"kind"})

// LevelUps counts level increases.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "thyknow",
	Name:      "level_ups_total",
	Help:      "Total level increases.",
})

// PointsAwarded and PointsSpent track the point economy.
var PointsAwarded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "thyknow",
	Name:      "points_awarded_total",
	Help:      "Total points awarded.",
})

var PointsSpent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "thyknow",
	Name:      "points_spent_total",
	Help:      "Total points spent, by kind (care, accessory).",
}, []string{"kind"})

// ─── Pet ────────────────────────────────────────────────────────────────────

// CareActions counts care attempts by action and result code ("ok" on success).
var CareActions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "thyknow",
	Name:      "care_actions_total",
	Help:      "Care action attempts by action and result.",
}, []string{"action", "result"})

// AccessoryOps counts purchase/equip/unequip attempts by result code.
var AccessoryOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "thyknow",
	Name:      "accessory_ops_total",
	Help:      "Accessory operations by op and result.",
}, []string{"op", "result"})

// AchievementsUnlocked counts first-time unlocks per achievement id.
var AchievementsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "thyknow",
	Name:      "achievements_unlocked_total",
	Help:      "Achievement unlocks by id.",
}, []string{"id"})

// ─── Infrastructure ─────────────────────────────────────────────────────────

// RemindersDispatched counts reminder deliveries by result (sent, failed).
var RemindersDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "thyknow",
	Name:      "reminders_dispatched_total",
	Help:      "Weekly reminder deliveries by result.",
}, []string{"result"})

// RateLimited counts requests rejected by the per-user limiter.
var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "thyknow",
	Name:      "rate_limited_total",
	Help:      "Requests rejected by the rate limiter.",
})

// HTTPDuration tracks handler latency.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "thyknow",
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})
