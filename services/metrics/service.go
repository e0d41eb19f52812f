package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/krishimitra/api/config"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "krishimitra"

// Service owns a private registry so that parallel tests and multiple app
// instances never collide on global collectors.
type Service struct {
	registry        *prometheus.Registry
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	otpIssued       *prometheus.CounterVec
	jobRuns         *prometheus.CounterVec
	path            string
}

func NewService(cfg *config.MetricsConfig) *Service {
	s := &Service{
		registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		otpIssued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "otp_issued_total",
				Help:      "OTP codes issued, by purpose and delivery result.",
			},
			[]string{"purpose", "result"},
		),
		jobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scheduled_job_runs_total",
				Help:      "Scheduled job runs, by job and result.",
			},
			[]string{"job", "result"},
		),
		path: cfg.Path,
	}

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		s.requestCount,
		s.requestDuration,
		s.otpIssued,
		s.jobRuns,
	)
	return s
}

func (s *Service) Registry() *prometheus.Registry {
	return s.registry
}

func (s *Service) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Middleware records count and latency per route template. It must sit
// outside the middleware that renders errors so the final status is known.
func (s *Service) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if s == nil || c.Request().URL.Path == s.path {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			status := strconv.Itoa(finalStatus(c, err))
			method := c.Request().Method

			s.requestCount.WithLabelValues(method, path, status).Inc()
			s.requestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func finalStatus(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return http.StatusInternalServerError
}

func (s *Service) ObserveOTP(purpose string, err error) {
	if s == nil {
		return
	}
	s.otpIssued.WithLabelValues(purpose, result(err)).Inc()
}

func (s *Service) ObserveJob(job string, err error) {
	if s == nil {
		return
	}
	s.jobRuns.WithLabelValues(job, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
