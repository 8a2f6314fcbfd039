// Package observability provides Prometheus metrics and logger construction.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Cache metrics
	CacheHits    *prometheus.CounterVec
	CacheMisses  *prometheus.CounterVec
	CacheEntries *prometheus.GaugeVec
	CacheUpserts *prometheus.CounterVec
	CoalescedIDs *prometheus.CounterVec
	MissingData  *prometheus.CounterVec

	// Fetch metrics
	FetchesTotal  *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec

	// Refresh metrics
	RefreshRunsTotal *prometheus.CounterVec

	// API metrics
	HTTPRequests      *prometheus.CounterVec
	WSClients         prometheus.Gauge
	WSMessagesDropped prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulFetch *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg registers with the default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "jediswap_analytics"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Cache metrics
		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Ids requested that were already tracked",
		}, []string{"kind"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Ids requested that were untracked",
		}, []string{"kind"}),
		CacheEntries: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Number of tracked ids",
		}, []string{"kind"}),
		CacheUpserts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "upserts_total",
			Help:      "Records written to the cache",
		}, []string{"kind"}),
		CoalescedIDs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "coalesced_ids_total",
			Help:      "Ids that joined an in-flight fetch instead of issuing their own",
		}, []string{"kind"}),
		MissingData: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "missing_data_total",
			Help:      "Ids the source returned no current snapshot for",
		}, []string{"kind"}),

		// Fetch metrics
		FetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "requests_total",
			Help:      "Snapshot fetches by status",
		}, []string{"kind", "status"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Help:      "Snapshot fetch duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),

		// Refresh metrics
		RefreshRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "runs_total",
			Help:      "Scheduled refresh runs by status",
		}, []string{"kind", "status"}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		WSClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "ws_clients",
			Help:      "Connected WebSocket clients",
		}),
		WSMessagesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "ws_messages_dropped_total",
			Help:      "Upsert events dropped for slow WebSocket clients",
		}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulFetch: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_fetch_timestamp",
			Help:      "Unix timestamp of last successful snapshot fetch",
		}, []string{"kind"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordCacheLookup records tracked and untracked ids for one ensure call.
func RecordCacheLookup(kind string, hits, misses int) {
	DefaultMetrics.CacheHits.WithLabelValues(kind).Add(float64(hits))
	DefaultMetrics.CacheMisses.WithLabelValues(kind).Add(float64(misses))
}

// RecordCoalesced records ids that waited on another fetch.
func RecordCoalesced(kind string, n int) {
	DefaultMetrics.CoalescedIDs.WithLabelValues(kind).Add(float64(n))
}

// RecordUpserts records records written and the resulting cache size.
func RecordUpserts(kind string, n, entries int) {
	DefaultMetrics.CacheUpserts.WithLabelValues(kind).Add(float64(n))
	DefaultMetrics.CacheEntries.WithLabelValues(kind).Set(float64(entries))
}

// RecordMissingData records ids returned without usable data.
func RecordMissingData(kind string, n int) {
	DefaultMetrics.MissingData.WithLabelValues(kind).Add(float64(n))
}

// RecordFetch records a snapshot fetch.
func RecordFetch(kind string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	} else {
		DefaultMetrics.LastSuccessfulFetch.WithLabelValues(kind).SetToCurrentTime()
	}
	DefaultMetrics.FetchesTotal.WithLabelValues(kind, status).Inc()
	DefaultMetrics.FetchDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordRefreshRun records a scheduled refresh.
func RecordRefreshRun(kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.RefreshRunsTotal.WithLabelValues(kind, status).Inc()
}

// RecordHTTPRequest records an API request.
func RecordHTTPRequest(route, code string) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, code).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
