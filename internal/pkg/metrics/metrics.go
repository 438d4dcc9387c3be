package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "potholes",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "potholes",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "potholes",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// ReportOutcomes counts report submissions by outcome (created, merged, failed).
	ReportOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "potholes",
		Subsystem: "reports",
		Name:      "outcomes_total",
		Help:      "Pothole reports by outcome",
	}, []string{"outcome"})

	AlertChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "potholes",
		Subsystem: "alerts",
		Name:      "checks_total",
		Help:      "Alert checks by result",
	}, []string{"alert"})

	ProximityFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "potholes",
		Subsystem: "proximity",
		Name:      "failures_total",
		Help:      "Nearest-pothole lookups that failed",
	})

	ProximityDistance = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "potholes",
		Subsystem: "proximity",
		Name:      "distance_meters",
		Help:      "Distance to the closest known pothole",
		Buckets:   []float64{5, 25, 50, 100, 150, 300, 1000, 5000, 50000},
	})

	ImageOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "potholes",
		Subsystem: "images",
		Name:      "outcomes_total",
		Help:      "Image submissions by outcome",
	}, []string{"outcome"})

	GeocodeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "potholes",
		Subsystem: "geocoding",
		Name:      "requests_total",
		Help:      "Reverse geocoding calls by result",
	}, []string{"result"})

	MaintenancePurged = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "potholes",
		Subsystem: "maintenance",
		Name:      "purged_total",
		Help:      "Rows and objects removed by maintenance runs",
	}, []string{"kind"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "potholes",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "potholes",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "potholes",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "potholes",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "potholes",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "potholes",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		// Route pattern keeps label cardinality bounded (/v1/potholes/:id).
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}

// PoolStat is the subset of pgxpool.Stat read by UpdateDBPoolMetrics.
type PoolStat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
}

// UpdateDBPoolMetrics copies pool stats into the db gauges.
func UpdateDBPoolMetrics(s PoolStat) {
	DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
	DBPoolConnsIdle.Set(float64(s.IdleConns()))
	DBPoolConnsOpen.Set(float64(s.TotalConns()))
}

// RunPoolMetrics refreshes the db gauges every interval until ctx is done.
func RunPoolMetrics(ctx context.Context, interval time.Duration, stat func() PoolStat) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			UpdateDBPoolMetrics(stat())
		}
	}
}
