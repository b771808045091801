package httpapi

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of the API client.
// A nil *Metrics records nothing.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RetriesTotal    prometheus.Counter
	NoticesTotal    *prometheus.CounterVec
	CacheLookups    *prometheus.CounterVec
	CacheEntries    prometheus.Gauge
	CacheEvictions  prometheus.Counter
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "brotherhood",
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Total number of API requests dispatched",
			},
			[]string{"method", "status"}, // status=200/404/.../network_error
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "brotherhood",
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		RetriesTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "brotherhood",
				Subsystem: "api",
				Name:      "retries_total",
				Help:      "Total number of requests re-issued after a server error",
			},
		),
		NoticesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "brotherhood",
				Subsystem: "api",
				Name:      "error_notices_total",
				Help:      "Total user-facing error notices raised by the client",
			},
			[]string{"kind"},
		),
		CacheLookups: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "brotherhood",
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Request cache lookups",
			},
			[]string{"result"}, // result=hit/miss
		),
		CacheEntries: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "brotherhood",
				Subsystem: "cache",
				Name:      "entries",
				Help:      "Number of entries in the request cache",
			},
		),
		CacheEvictions: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "brotherhood",
				Subsystem: "cache",
				Name:      "evictions_total",
				Help:      "Request cache entries evicted to respect the size bound",
			},
		),
	}
}

// observeRequest records one dispatch. status 0 means no response.
func (m *Metrics) observeRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := "network_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.RequestsTotal.WithLabelValues(method, label).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) observeRetry() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

func (m *Metrics) observeNotice(kind Kind) {
	if m == nil {
		return
	}
	m.NoticesTotal.WithLabelValues(kind.String()).Inc()
}

// ObserveCacheLookup records a request cache hit or miss.
func (m *Metrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheSize records the cache size after a write and any evictions it caused.
func (m *Metrics) ObserveCacheSize(entries, evicted int) {
	if m == nil {
		return
	}
	m.CacheEntries.Set(float64(entries))
	if evicted > 0 {
		m.CacheEvictions.Add(float64(evicted))
	}
}
