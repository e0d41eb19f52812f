package scheduler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/krishimitra/api/config"
	"github.com/krishimitra/api/services/logging"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	JobOTPSweep  = "otp_sweep"
	JobKeepAlive = "keepalive"
)

const keepAliveTimeout = 10 * time.Second

type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

type JobObserver interface {
	ObserveJob(job string, err error)
}

// Service runs the periodic jobs. The OTP sweep always runs; the keep-alive
// ping only when a URL is configured.
type Service struct {
	cron     *cron.Cron
	cfg      *config.SchedulerConfig
	sweeper  Sweeper
	client   *http.Client
	observer JobObserver
	logger   *logging.Service
}

func NewService(cfg *config.SchedulerConfig, sweeper Sweeper, logger *logging.Service) (*Service, error) {
	logger = logger.Named("scheduler")
	s := &Service{
		cron:    cron.New(cron.WithLogger(cronLogger{logger}), cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger}))),
		cfg:     cfg,
		sweeper: sweeper,
		client:  &http.Client{Timeout: keepAliveTimeout},
		logger:  logger,
	}

	if _, err := s.cron.AddFunc(cfg.OTPSweepSpec, s.job(JobOTPSweep, s.SweepOTPs)); err != nil {
		return nil, fmt.Errorf("invalid otp sweep schedule %q: %w", cfg.OTPSweepSpec, err)
	}

	if cfg.KeepAliveURL != "" {
		if _, err := s.cron.AddFunc(cfg.KeepAliveSpec, s.job(JobKeepAlive, s.KeepAlive)); err != nil {
			return nil, fmt.Errorf("invalid keep-alive schedule %q: %w", cfg.KeepAliveSpec, err)
		}
	}

	return s, nil
}

func (s *Service) SetObserver(o JobObserver) {
	s.observer = o
}

func (s *Service) job(name string, run func(context.Context) error) func() {
	return func() {
		err := run(context.Background())
		if s.observer != nil {
			s.observer.ObserveJob(name, err)
		}
	}
}

// SweepOTPs clears every OTP slot whose code has expired.
func (s *Service) SweepOTPs(ctx context.Context) error {
	cleared, err := s.sweeper.SweepExpired(ctx)
	if err != nil {
		s.logger.Error("otp sweep failed", zap.Error(err))
		return err
	}
	if cleared > 0 {
		s.logger.Info("expired otps cleared", zap.Int64("count", cleared))
	}
	return nil
}

func (s *Service) KeepAlive(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.KeepAliveURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build keep-alive request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("keep-alive ping failed", zap.String("url", s.cfg.KeepAliveURL), zap.Error(err))
		return fmt.Errorf("keep-alive ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("keep-alive ping returned unexpected status",
			zap.String("url", s.cfg.KeepAliveURL),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("keep-alive ping returned %d", resp.StatusCode)
	}

	s.logger.Debug("keep-alive ping ok", zap.String("url", s.cfg.KeepAliveURL))
	return nil
}

func (s *Service) Entries() int {
	return len(s.cron.Entries())
}

func (s *Service) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", s.Entries()))
}

// Stop halts scheduling and waits for running jobs until ctx is done.
func (s *Service) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type cronLogger struct {
	logger *logging.Service
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, zap.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, zap.Error(err), zap.Any("details", keysAndValues))
}
