// Package scheduler runs the periodic maintenance of the tracker: expiring
// idle board sessions and sweeping revoked tokens past their expiry.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Expirer drops sessions idle for longer than the given duration.
// kanban.Sessions satisfies it.
type Expirer interface {
	Expire(idle time.Duration) int
}

// Cleaner drops entries whose expiry has passed. auth.MemoryBlacklist
// satisfies it.
type Cleaner interface {
	CleanUpExpired() int
}

// Scheduler wraps robfig/cron and manages the maintenance loop.
type Scheduler struct {
	cron     *cron.Cron
	sessions Expirer
	idle     time.Duration
	cleaners []Cleaner
	spec     string
	logger   *zap.Logger
}

// New creates a Scheduler that fires on spec, e.g. "@every 5m".
func New(spec string, sessions Expirer, idle time.Duration, logger *zap.Logger, cleaners ...Cleaner) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		sessions: sessions,
		idle:     idle,
		cleaners: cleaners,
		spec:     spec,
		logger:   logger,
	}
}

// Start registers the job and starts the scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RunOnce); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	s.logger.Info("maintenance scheduler started", zap.String("spec", s.spec))
	return nil
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("maintenance scheduler stopped")
}

// RunOnce performs one maintenance cycle.
func (s *Scheduler) RunOnce() {
	expired := 0
	if s.sessions != nil {
		expired = s.sessions.Expire(s.idle)
	}
	cleaned := 0
	for _, c := range s.cleaners {
		cleaned += c.CleanUpExpired()
	}
	if expired > 0 || cleaned > 0 {
		s.logger.Info("maintenance cycle complete",
			zap.Int("expiredSessions", expired),
			zap.Int("revokedTokensDropped", cleaned))
	}
}
