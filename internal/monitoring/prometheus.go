// Package monitoring provides Prometheus metrics for the DIRCORE API.
//
// Usage:
//
//  1. Setup metrics in your main function:
//     router := gin.New()
//     monitoring.SetupPrometheusMetrics(router, version)
//
//  2. Add HTTP metrics middleware:
//     router.Use(monitoring.HTTPMetricsMiddleware())
//
//  3. Record custom metrics where the work happens:
//
//     // Directory store operations
//     start := time.Now()
//     // ... store call ...
//     monitoring.RecordStoreOperation("create_principal", "tenant", time.Since(start), err == nil)
//
//     // Cache operations
//     monitoring.RecordCacheOperation("get", "hit")
//
// Available metrics:
//   - dircore_http_requests_total{method, endpoint, status_code, tenant_id}
//   - dircore_http_request_duration_seconds{method, endpoint, tenant_id}
//   - dircore_store_operations_total{operation, principal_type, status}
//   - dircore_store_operation_duration_seconds{operation, principal_type}
//   - dircore_cache_operations_total{operation, result}
//   - dircore_provision_operations_total{status}
//   - dircore_build_info{version, component, go_version}
package monitoring

import (
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dircore_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code", "tenant_id"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dircore_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "tenant_id"},
	)

	storeOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dircore_store_operations_total",
			Help: "Total number of directory store operations",
		},
		[]string{"operation", "principal_type", "status"},
	)

	storeOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dircore_store_operation_duration_seconds",
			Help:    "Directory store operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "principal_type"},
	)

	cacheOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dircore_cache_operations_total",
			Help: "Total number of cache operations",
		},
		[]string{"operation", "result"}, // result: hit, miss, success, error
	)

	provisionOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dircore_provision_operations_total",
			Help: "Total number of organization provisioning operations",
		},
		[]string{"status"}, // status: success, denied, invalid, conflict, error
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dircore_build_info",
			Help: "Build information for DIRCORE",
		},
		[]string{"version", "component", "go_version"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		storeOperationsTotal,
		storeOperationDuration,
		cacheOperationsTotal,
		provisionOperationsTotal,
		buildInfo,
	)
}

// SetupPrometheusMetrics mounts the /metrics endpoint and records build info.
func SetupPrometheusMetrics(router *gin.Engine, version string) {
	buildInfo.WithLabelValues(version, "dircore", runtime.Version()).Set(1)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// HTTPMetricsMiddleware records request counts and latencies per route.
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		tenantID := c.GetString("tenant_id")
		if tenantID == "" {
			tenantID = "none"
		}

		httpRequestsTotal.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
			tenantID,
		).Inc()
		httpRequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
			tenantID,
		).Observe(time.Since(start).Seconds())
	}
}

// RecordStoreOperation records a directory store operation outcome.
func RecordStoreOperation(operation, principalType string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	storeOperationsTotal.WithLabelValues(operation, principalType, status).Inc()
	storeOperationDuration.WithLabelValues(operation, principalType).Observe(duration.Seconds())
}

// RecordCacheOperation records a cache operation outcome.
func RecordCacheOperation(operation, result string) {
	cacheOperationsTotal.WithLabelValues(operation, result).Inc()
}

// RecordProvisionOperation records the terminal status of a provisioning request.
func RecordProvisionOperation(status string) {
	provisionOperationsTotal.WithLabelValues(status).Inc()
}
