package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron"
)

// Scheduler triggers a job on a cron spec with a seconds field, e.g.
// "0 5 0 * * *" for 00:05:00 every day.
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

func NewScheduler(spec string, timeout time.Duration, job func(ctx context.Context) error, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{cron: cron.New(), log: logger}

	err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		start := time.Now()
		if err := job(ctx); err != nil {
			s.log.Error("scheduled job failed", "spec", spec, "error", err)
			return
		}
		s.log.Info("scheduled job finished", "spec", spec, "duration_ms", time.Since(start).Milliseconds())
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}
