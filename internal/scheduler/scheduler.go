// Package scheduler runs the periodic background jobs: the hazard snapshot
// refresh and the realtime alert expiry sweep.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/couchcryptid/disaster-watch-service/internal/observability"
	"github.com/robfig/cron/v3"
)

// jobTimeout bounds a single job run.
const jobTimeout = 20 * time.Second

// Refresher reloads the hazard snapshot.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Expirer deactivates realtime alerts whose expiry has passed.
type Expirer interface {
	ExpireRealtimeAlerts(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler owns a cron instance with both jobs registered.
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	expirer   Expirer
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New registers the refresh job every refreshInterval and the expiry job on
// expirySpec (standard five-field cron or a descriptor such as "@every 1m").
func New(refreshInterval time.Duration, expirySpec string, refresher Refresher, expirer Expirer, logger *slog.Logger, metrics *observability.Metrics) (*Scheduler, error) {
	s := &Scheduler{
		refresher: refresher,
		expirer:   expirer,
		logger:    logger,
		metrics:   metrics,
	}
	s.cron = cron.New(cron.WithChain(
		cron.Recover(cronLogger{logger}),
		cron.SkipIfStillRunning(cronLogger{logger}),
	))

	s.cron.Schedule(cron.Every(refreshInterval), cron.FuncJob(s.refreshHazards))
	if _, err := s.cron.AddFunc(expirySpec, s.expireAlerts); err != nil {
		return nil, fmt.Errorf("schedule alert expiry %q: %w", expirySpec, err)
	}
	return s, nil
}

// Run loads the first snapshot, starts the cron loop and blocks until ctx is
// cancelled. It waits for running jobs to finish before returning.
func (s *Scheduler) Run(ctx context.Context) {
	s.refreshHazards()
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) refreshHazards() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.refresher.Refresh(ctx); err != nil {
		s.logger.Error("hazard refresh failed", "error", err)
	}
}

func (s *Scheduler) expireAlerts() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.expirer.ExpireRealtimeAlerts(ctx, domain.Now())
	if err != nil {
		s.logger.Error("realtime alert expiry failed", "error", err)
		return
	}
	if n > 0 {
		s.metrics.AlertsExpired.Add(float64(n))
		s.logger.Info("realtime alerts expired", "count", n)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
