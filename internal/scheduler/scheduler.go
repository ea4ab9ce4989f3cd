// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ExpiredCloser closes campaigns whose window has ended.
type ExpiredCloser interface {
	CloseExpired(ctx context.Context, now time.Time) (int, error)
}

type Scheduler struct {
	cron    *cron.Cron
	closer  ExpiredCloser
	timeout time.Duration
	log     *zap.Logger
	now     func() time.Time
}

func New(closer ExpiredCloser, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		closer:  closer,
		timeout: time.Minute,
		log:     log,
		now:     time.Now,
	}
}

// Start registers the jobs with spec (standard cron or @every) and starts the scheduler.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.closeExpired); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("scheduler started", zap.String("close_expired", spec))
	return nil
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) closeExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	n, err := s.closer.CloseExpired(ctx, s.now().UTC())
	if err != nil {
		s.log.Error("close expired campaigns", zap.Int("closed", n), zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("closed expired campaigns", zap.Int("closed", n))
	}
}
