package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// sessionsWritten counts answer sessions by category kind and write mode
	// (append/replace).
	sessionsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livestock_answer_sessions_total",
			Help: "Answer sessions written, by category kind and mode.",
		},
		[]string{"kind", "mode"},
	)

	// yieldRows counts yield history mutations by operation
	// (append, delete, merge, backfill).
	yieldRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livestock_yield_history_rows_total",
			Help: "Yield history rows changed, by operation.",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(sessionsWritten, yieldRows)
}
