package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mercabridge_requests_total",
			Help: "Requests handled, by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	FieldFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mercabridge_field_fallbacks_total",
			Help: "Present attributes replaced by their default after a failed coercion",
		},
		[]string{"field"},
	)

	RecordsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mercabridge_records_dropped_total",
			Help: "Supplier records left out of a normalized result",
		},
		[]string{"reason"},
	)

	SupplierDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mercabridge_supplier_request_duration_seconds",
			Help:    "Latency of calls to the supplier",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mercabridge_cache_lookups_total",
			Help: "Result cache lookups, by result",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// Register adds the collectors to the default registry. Safe to call more
// than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal, FieldFallbacks, RecordsDropped, SupplierDuration, CacheLookups)
	})
}

// Handler registers the collectors and returns the scrape handler.
func Handler() http.Handler {
	Register()
	return promhttp.Handler()
}
