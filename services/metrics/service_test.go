package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/krishimitra/api/config"
	"github.com/krishimitra/api/internal/apperror"
	"github.com/krishimitra/api/testutils"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService(&config.MetricsConfig{Enabled: true, Path: "/metrics"})
}

func TestMiddleware(t *testing.T) {
	svc := newTestService()
	e := echo.New()
	e.Use(svc.Middleware())
	e.GET("/api/advisory/plantation-guide/:cropId", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"id": c.Param("cropId")})
	})
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})
	e.GET("/metrics", echo.WrapHandler(svc.Handler()))

	for _, path := range []string{"/api/advisory/plantation-guide/1", "/api/advisory/plantation-guide/2", "/boom", "/metrics"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(svc.requestCount.WithLabelValues(http.MethodGet, "/api/advisory/plantation-guide/:cropId", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.requestCount.WithLabelValues(http.MethodGet, "/boom", "418")))
	assert.Equal(t, 2, testutil.CollectAndCount(svc.requestCount), "metrics scrapes are not counted")
	assert.Equal(t, 2, testutil.CollectAndCount(svc.requestDuration))
}

func TestHandler(t *testing.T) {
	svc := newTestService()
	svc.ObserveJob("otp_sweep", nil)

	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `krishimitra_scheduled_job_runs_total{job="otp_sweep",result="ok"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestObservers(t *testing.T) {
	svc := newTestService()

	svc.ObserveOTP("password_reset", nil)
	svc.ObserveOTP("password_reset", apperror.New(apperror.Delivery, "smtp down"))
	svc.ObserveJob("keepalive", errors.New("timeout"))

	assert.Equal(t, 1.0, testutil.ToFloat64(svc.otpIssued.WithLabelValues("password_reset", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.otpIssued.WithLabelValues("password_reset", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.jobRuns.WithLabelValues("keepalive", "error")))
}

func TestNilService(t *testing.T) {
	var svc *Service

	assert.NotPanics(t, func() {
		svc.ObserveOTP("email_verification", nil)
		svc.ObserveJob("otp_sweep", nil)
	})

	e := echo.New()
	e.Use(svc.Middleware())
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProvideMetrics(t *testing.T) {
	cfg := testutils.GetTestConfig()
	assert.NotNil(t, ProvideMetrics(cfg))

	cfg.Metrics.Enabled = false
	assert.Nil(t, ProvideMetrics(cfg))
}

func TestSeparateRegistries(t *testing.T) {
	a, b := newTestService(), newTestService()
	a.ObserveJob("otp_sweep", nil)

	families, err := b.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		assert.False(t, strings.HasPrefix(f.GetName(), "krishimitra_scheduled") && len(f.GetMetric()) > 0)
	}
}
