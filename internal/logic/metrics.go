package logic

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	filteredStatsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fnstats_filtered_stats_duration_seconds",
		Help:    "Duration of filtered stats computations",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	filteredStatsRows = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fnstats_filtered_stats_rows",
		Help:    "Number of player rows returned per filtered stats request",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	unresolvedKeys = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fnstats_unresolved_raw_keys_total",
		Help: "Raw actor keys dropped because no player identity was found",
	})

	identityCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fnstats_identity_cache_lookups_total",
		Help: "Identity cache lookups by result (hit, miss, error)",
	}, []string{"result"})
)
