package scheduler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/krishimitra/api/config"
	"github.com/krishimitra/api/models"
	"github.com/krishimitra/api/services/metrics"
	"github.com/krishimitra/api/services/otp"
	"github.com/krishimitra/api/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

type stubSweeper struct {
	calls   atomic.Int32
	cleared int64
	err     error
}

func (s *stubSweeper) SweepExpired(context.Context) (int64, error) {
	s.calls.Add(1)
	return s.cleared, s.err
}

type recordingObserver struct {
	runs []string
}

func (r *recordingObserver) ObserveJob(job string, err error) {
	if err != nil {
		job += ":error"
	}
	r.runs = append(r.runs, job)
}

func schedulerConfig() *config.SchedulerConfig {
	return &config.SchedulerConfig{
		Enabled:       true,
		OTPSweepSpec:  "@every 5m",
		KeepAliveSpec: "@every 14m",
	}
}

func TestNewService(t *testing.T) {
	t.Run("sweep only", func(t *testing.T) {
		svc, err := NewService(schedulerConfig(), &stubSweeper{}, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, svc.Entries())
	})

	t.Run("with keep-alive", func(t *testing.T) {
		cfg := schedulerConfig()
		cfg.KeepAliveURL = "http://localhost:5001/"

		svc, err := NewService(cfg, &stubSweeper{}, nil)

		require.NoError(t, err)
		assert.Equal(t, 2, svc.Entries())
	})

	t.Run("bad sweep schedule", func(t *testing.T) {
		cfg := schedulerConfig()
		cfg.OTPSweepSpec = "every now and then"

		_, err := NewService(cfg, &stubSweeper{}, nil)

		assert.ErrorContains(t, err, "invalid otp sweep schedule")
	})

	t.Run("bad keep-alive schedule", func(t *testing.T) {
		cfg := schedulerConfig()
		cfg.KeepAliveURL = "http://localhost:5001/"
		cfg.KeepAliveSpec = "*/14 * *"

		_, err := NewService(cfg, &stubSweeper{}, nil)

		assert.ErrorContains(t, err, "invalid keep-alive schedule")
	})
}

func TestSweepOTPs(t *testing.T) {
	t.Run("delegates to the sweeper", func(t *testing.T) {
		sweeper := &stubSweeper{cleared: 3}
		svc, err := NewService(schedulerConfig(), sweeper, nil)
		require.NoError(t, err)

		require.NoError(t, svc.SweepOTPs(context.Background()))
		assert.Equal(t, int32(1), sweeper.calls.Load())
	})

	t.Run("reports failure", func(t *testing.T) {
		svc, err := NewService(schedulerConfig(), &stubSweeper{err: errors.New("locked")}, nil)
		require.NoError(t, err)

		assert.Error(t, svc.SweepOTPs(context.Background()))
	})

	t.Run("clears expired slots in the database", func(t *testing.T) {
		db := testutils.SetupTestDB(t, models.All()...)
		otpSvc := otp.NewService(testutils.GetTestConfig(), db, &testutils.RecordingMailer{}, nil)
		past := time.Now().UTC().Add(-time.Hour)
		code, purpose := "123456", models.OTPEmailVerification
		require.NoError(t, db.Create(&models.Account{
			Name: "Ram", Email: "ram@example.com", PasswordHash: "x",
			OTPCode: &code, OTPPurpose: &purpose, OTPExpiresAt: &past,
		}).Error)

		svc, err := NewService(schedulerConfig(), otpSvc, nil)
		require.NoError(t, err)
		require.NoError(t, svc.SweepOTPs(context.Background()))

		var account models.Account
		require.NoError(t, db.First(&account).Error)
		assert.Nil(t, account.OTPCode)
		assert.Nil(t, account.OTPPurpose)
		assert.Nil(t, account.OTPExpiresAt)
	})
}

func TestKeepAlive(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			_, _ = w.Write([]byte("API is running...."))
		}))
		defer srv.Close()

		cfg := schedulerConfig()
		cfg.KeepAliveURL = srv.URL
		svc, err := NewService(cfg, &stubSweeper{}, nil)
		require.NoError(t, err)

		require.NoError(t, svc.KeepAlive(context.Background()))
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("unexpected status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		cfg := schedulerConfig()
		cfg.KeepAliveURL = srv.URL
		svc, err := NewService(cfg, &stubSweeper{}, nil)
		require.NoError(t, err)

		assert.ErrorContains(t, svc.KeepAlive(context.Background()), "502")
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		cfg := schedulerConfig()
		cfg.KeepAliveURL = url
		svc, err := NewService(cfg, &stubSweeper{}, nil)
		require.NoError(t, err)

		assert.Error(t, svc.KeepAlive(context.Background()))
	})
}

func TestJobObserver(t *testing.T) {
	svc, err := NewService(schedulerConfig(), &stubSweeper{err: errors.New("locked")}, nil)
	require.NoError(t, err)
	observer := &recordingObserver{}
	svc.SetObserver(observer)

	svc.job(JobOTPSweep, svc.SweepOTPs)()
	svc.job(JobKeepAlive, func(context.Context) error { return nil })()

	assert.Equal(t, []string{"otp_sweep:error", "keepalive"}, observer.runs)
}

func TestLifecycle(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		cfg.Scheduler.Enabled = true
		svc, err := ProvideScheduler(cfg, otp.NewService(cfg, testutils.SetupTestDB(t, models.All()...), nil, nil), metrics.NewService(&cfg.Metrics), nil)
		require.NoError(t, err)

		lc := fxtest.NewLifecycle(t)
		registerLifecycle(lc, cfg, svc)

		lc.RequireStart()
		lc.RequireStop()
	})

	t.Run("disabled registers nothing", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		svc, err := ProvideScheduler(cfg, otp.NewService(cfg, nil, nil, nil), nil, nil)
		require.NoError(t, err)

		lc := fxtest.NewLifecycle(t)
		registerLifecycle(lc, cfg, svc)

		lc.RequireStart()
		lc.RequireStop()
	})
}
