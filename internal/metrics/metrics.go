// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connect_http_requests_total",
			Help: "HTTP requests served, by route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "connect_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connect_embedding_requests_total",
			Help: "Embedding requests by outcome (ok, error, rejected)",
		},
		[]string{"outcome"},
	)

	NormalizerMatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connect_normalizer_matches_total",
			Help: "Vocabulary resolutions by kind and method",
		},
		[]string{"kind", "method"},
	)

	SimilarityRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connect_similarity_runs_total",
			Help: "Similarity refresh runs by trigger and outcome",
		},
		[]string{"trigger", "outcome"},
	)

	SimilarityDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "connect_similarity_refresh_duration_seconds",
			Help:    "Duration of a full similarity refresh",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connect_recommendations_served_total",
			Help: "Recommendation lists served by category",
		},
		[]string{"category"},
	)

	ProfileUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connect_profile_updates_total",
			Help: "Profile updates applied by outcome",
		},
		[]string{"outcome"},
	)

	TranscriptsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connect_transcripts_processed_total",
			Help: "Transcripts processed by extractor and outcome",
		},
		[]string{"extractor", "outcome"},
	)
)
