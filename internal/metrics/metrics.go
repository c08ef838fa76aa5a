package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "petitions",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petitions",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "petitions",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	listings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petitions",
			Subsystem: "listing",
			Name:      "requests_total",
			Help:      "Petition listings served, by sort key.",
		},
		[]string{"sort_by"},
	)

	listingMatches = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "petitions",
			Subsystem: "listing",
			Name:      "matched_petitions",
			Help:      "Number of petitions matching the listing criteria before paging.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	wsClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "petitions",
			Subsystem: "ws",
			Name:      "connected_clients",
			Help:      "Current number of websocket feed subscribers.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		listings,
		listingMatches,
		wsClients,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and durations keyed by the matched route
// pattern, so path parameters do not explode label cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordListing records one served petition listing.
func RecordListing(sortBy string, matched int) {
	listings.WithLabelValues(sortBy).Inc()
	listingMatches.Observe(float64(matched))
}

// SetWebsocketClients publishes the current number of feed subscribers.
func SetWebsocketClients(n int) {
	wsClients.Set(float64(n))
}
