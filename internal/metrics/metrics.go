// Package metrics exposes Prometheus collectors for the HTTP layer and the
// interview workflow.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "humaneq",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	}, []string{"method", "path", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "humaneq",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "humaneq",
		Name:      "interview_transitions_total",
		Help:      "Interview status transitions committed, by target status",
	}, []string{"to"})

	quotaAccounted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "humaneq",
		Name:      "quota_accounted_total",
		Help:      "Completions charged to an owner quota, by counter",
	}, []string{"field"})

	mediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "humaneq",
		Name:      "media_uploads_total",
		Help:      "Media files ingested, by storage outcome (dual or local-only)",
	}, []string{"storage"})
)

// Middleware records request count and latency labelled by the route
// template, so ids in the URL do not explode cardinality.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if status < http.StatusBadRequest {
					status = http.StatusInternalServerError
				}
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			labels := prometheus.Labels{
				"method": c.Request().Method,
				"path":   path,
				"status": strconv.Itoa(status),
			}
			httpRequests.With(labels).Inc()
			httpLatency.With(labels).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// Transition counts a committed status change.
func Transition(to string) { transitions.WithLabelValues(to).Inc() }

// QuotaAccounted counts a completion charged to field.
func QuotaAccounted(field string) { quotaAccounted.WithLabelValues(field).Inc() }

// MediaUpload counts an ingested media file.
func MediaUpload(storage string) { mediaUploads.WithLabelValues(storage).Inc() }
