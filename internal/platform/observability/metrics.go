package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VideosDiscovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkbot_videos_discovered_total",
		Help: "The total number of newly discovered videos",
	})

	VideosScanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkbot_videos_scanned_total",
		Help: "The total number of video comment scans by bucket",
	}, []string{"bucket"})

	CommentsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkbot_comments_ingested_total",
		Help: "The total number of stored mention comments",
	})

	RequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkbot_request_transitions_total",
		Help: "The total number of request state transitions by outcome",
	}, []string{"outcome"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkbot_llm_request_duration_seconds",
		Help:    "Duration of LLM requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	PublishAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkbot_publish_attempts_total",
		Help: "The total number of reply publish attempts by status",
	}, []string{"status"})

	TierRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkbot_tier_runs_total",
		Help: "The total number of tier executions by tier and status",
	}, []string{"tier", "status"})

	QuotaUnits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkbot_youtube_quota_units_total",
		Help: "Estimated YouTube Data API quota units consumed",
	})
)

// Transition outcome label values.
const (
	OutcomeApproved = "approved"
	OutcomeRejected = "rejected"
	OutcomeAnswered = "answered"
	OutcomeRemoved  = "removed"
)

// Tier run status label values.
const (
	TierStatusOK      = "ok"
	TierStatusSkipped = "skipped"
	TierStatusError   = "error"
)

// Publish attempt status label values.
const (
	PublishStatusOK    = "ok"
	PublishStatusError = "error"
)
