package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_registrations_total",
		Help: "Total number of successful user registrations.",
	})

	refreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_token_refreshes_total",
		Help: "Total number of successful token refreshes.",
	})

	logEntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_log_entries_total",
		Help: "Total number of recorded choice-log entries.",
	})

	sceneWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_scene_writes_total",
			Help: "Total number of admin scene writes by operation.",
		},
		[]string{"operation"},
	)

	tokenVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_token_verifications_total",
			Help: "Total number of token verification attempts by status.",
		},
		[]string{"status"},
	)
)
