// Package metrics provides Prometheus metrics for the feed service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wikifeeds"

var (
	// UpstreamRequests counts outbound API calls by service and outcome
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of upstream API requests",
		},
		[]string{"service", "status"},
	)

	// UpstreamDuration measures outbound API call latency
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of upstream API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	// DroppedCandidates counts most-read candidates removed from a feed, by reason
	DroppedCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mostread_dropped_candidates_total",
			Help:      "Most-read candidates dropped before rendering",
		},
		[]string{"reason"},
	)

	// FeedBuilds counts most-read builds by outcome
	FeedBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mostread_builds_total",
			Help:      "Most-read feed builds",
		},
		[]string{"outcome"},
	)

	// SiteInfoCache counts site metadata cache lookups
	SiteInfoCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "siteinfo_cache_lookups_total",
			Help:      "Site metadata cache lookups by result",
		},
		[]string{"result"},
	)
)

// Drop reasons
const (
	ReasonInvalidTitle = "invalid_title"
	ReasonBot          = "bot_traffic"
	ReasonNamespace    = "namespace"
	ReasonMainPage     = "main_page"
	ReasonDenylist     = "denylist"
	ReasonEnrichment   = "enrichment_failed"
	ReasonDuplicate    = "duplicate"
)
