package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "disaster_cache_hits_total",
		Help: "Total cache hits across all lookup kinds",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "disaster_cache_misses_total",
		Help: "Total cache misses across all lookup kinds",
	})
	LookupRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "disaster_lookup_requests_total",
		Help: "Total external lookup requests by kind",
	}, []string{"kind"})
	LookupFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "disaster_lookup_failures_total",
		Help: "Total external lookup failures by kind",
	}, []string{"kind"})
	LookupDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "disaster_lookup_duration_ms",
		Help:    "External lookup duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	}, []string{"kind"})
	EventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "disaster_events_published_total",
		Help: "Total broadcast events published by kind",
	}, []string{"kind"})
	EventsDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "disaster_events_dropped_total",
		Help: "Total events dropped due to slow observers",
	})
	SubscribersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "disaster_stream_subscribers",
		Help: "Currently connected broadcast observers",
	})
	RecordMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "disaster_record_mutations_total",
		Help: "Total record mutations by action",
	}, []string{"action"})
)

func init() {
	prometheus.MustRegister(
		CacheHitsTotal,
		CacheMissesTotal,
		LookupRequestsTotal,
		LookupFailuresTotal,
		LookupDurationMs,
		EventsPublishedTotal,
		EventsDroppedTotal,
		SubscribersGauge,
		RecordMutationsTotal,
	)
}

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
