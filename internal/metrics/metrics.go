package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agri_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agri_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	RecordsWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agri_records_written_total",
			Help: "Total number of record writes by entity and action",
		},
		[]string{"entity", "action"},
	)

	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agri_auth_attempts_total",
			Help: "Total number of login attempts by result",
		},
		[]string{"result"},
	)

	ReportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agri_report_duration_seconds",
			Help:    "Duration of dashboard report computations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"report"},
	)
)

func RecordWrite(entity, action string) {
	RecordsWrittenTotal.WithLabelValues(entity, action).Inc()
}

func RecordAuthAttempt(result string) {
	AuthAttemptsTotal.WithLabelValues(result).Inc()
}

// TrackReport returns a func observing the elapsed time of a report when called.
func TrackReport(report string) func() {
	start := time.Now()
	return func() {
		ReportDuration.WithLabelValues(report).Observe(time.Since(start).Seconds())
	}
}

// Middleware records count and latency per route. It must run outside the
// request logger so the status reflects a rendered error.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := strconv.Itoa(c.Response().StatusCode())
		HTTPRequestsTotal.WithLabelValues(c.Method(), route, status).Inc()
		HTTPRequestDuration.WithLabelValues(c.Method(), route, status).Observe(time.Since(start).Seconds())

		return err
	}
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
