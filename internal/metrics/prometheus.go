package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal tracks handled requests per route and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridation_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status"},
	)

	// HTTPRequestLatency tracks request latency per route
	HTTPRequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hybridation_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// ProviderCallsTotal tracks provider calls per stage and outcome
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridation_provider_calls_total",
			Help: "Total number of AI provider calls",
		},
		[]string{"provider", "role", "stage", "outcome", "class"},
	)

	// ProviderCallLatency tracks provider call latency
	ProviderCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hybridation_provider_call_duration_seconds",
			Help:    "AI provider call latency in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		},
		[]string{"provider", "stage"},
	)

	// ProviderFallbacksTotal tracks switches to the secondary provider
	ProviderFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridation_provider_fallbacks_total",
			Help: "Total number of switches from the primary to the secondary provider",
		},
		[]string{"stage", "from", "to"},
	)

	// GenerationsTotal tracks finished generation runs
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridation_generations_total",
			Help: "Total number of generation runs",
		},
		[]string{"variant", "provider", "success"},
	)

	// ShopProductsReturned tracks the size of /shop results
	ShopProductsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hybridation_shop_products_returned",
			Help:    "Number of products returned by visual search",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)
)
