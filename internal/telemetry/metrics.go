package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_sessions_started_total",
		Help: "Number of quiz sessions created.",
	})

	SessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_sessions_completed_total",
		Help: "Number of quiz sessions that reached a perfect round.",
	})

	RoundsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_rounds_submitted_total",
		Help: "Number of session rounds submitted.",
	})

	AttemptsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_attempts_recorded_total",
		Help: "Number of question attempts recorded.",
	})

	SelectionShortfalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_selection_shortfalls_total",
		Help: "Number of quizzes created with fewer questions than requested.",
	})

	MasteryFlips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_mastery_flips_total",
		Help: "Number of (user, question) pairs that reached mastery.",
	})
)
