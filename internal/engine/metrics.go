package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeScored            = "scored"
	outcomeAllowlistFallback = "allowlist_fallback"
	outcomeNoAllowlist       = "no_allowlist"
	outcomeError             = "error"
)

var (
	// suggestTotal counts served suggestions by outcome
	// (scored, allowlist_fallback, no_allowlist, error).
	suggestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "autofiler",
		Subsystem: "engine",
		Name:      "suggest_total",
		Help:      "Suggestions served, by outcome.",
	}, []string{"outcome"})

	// feedbackTotal counts feedback acknowledgements by status.
	feedbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "autofiler",
		Subsystem: "engine",
		Name:      "feedback_total",
		Help:      "Feedback acknowledgements, by status.",
	}, []string{"status"})

	// suggestDuration measures end-to-end suggestion latency, content peek
	// and embedding lookups included.
	suggestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "autofiler",
		Subsystem: "engine",
		Name:      "suggest_duration_seconds",
		Help:      "Latency of suggestion computation.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})
)
