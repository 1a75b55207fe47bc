package worker

import (
	"context"
	"log/slog"
	"time"
)

// RankSignal marks a poll whose ranking may have changed.
type RankSignal struct {
	PollID int64
}

// PollRunner recomputes one poll's ranking.
type PollRunner interface {
	RunPoll(ctx context.Context, pollID int64) error
}

type RunnerFunc func(ctx context.Context, pollID int64) error

func (f RunnerFunc) RunPoll(ctx context.Context, pollID int64) error {
	return f(ctx, pollID)
}

// RankWorker collects signals from accepted ballots and periodically runs
// the runner for every poll that received one, off the submission path.
type RankWorker struct {
	ch     <-chan RankSignal
	runner PollRunner
	flush  time.Duration
	log    *slog.Logger

	dirty map[int64]struct{}
}

func NewRankWorker(ch <-chan RankSignal, runner PollRunner, flush time.Duration, logger *slog.Logger) *RankWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if flush <= 0 {
		flush = 5 * time.Minute
	}
	return &RankWorker{
		ch:     ch,
		runner: runner,
		flush:  flush,
		log:    logger,
		dirty:  make(map[int64]struct{}),
	}
}

// Enqueue never blocks; a full queue drops the signal because the next
// scheduled snapshot covers it.
func Enqueue(ch chan<- RankSignal, pollID int64) bool {
	select {
	case ch <- RankSignal{PollID: pollID}:
		return true
	default:
		return false
	}
}

func (w *RankWorker) Run(ctx context.Context) {
	w.log.Info("rank worker started", "flush", w.flush.String())
	ticker := time.NewTicker(w.flush)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("rank worker stopped")
			return
		case ev, ok := <-w.ch:
			if !ok {
				w.flushDirty(ctx)
				w.log.Info("rank worker drained")
				return
			}
			w.mark(ev)
		case <-ticker.C:
			w.flushDirty(ctx)
		}
	}
}

func (w *RankWorker) mark(ev RankSignal) {
	w.dirty[ev.PollID] = struct{}{}
}

func (w *RankWorker) flushDirty(ctx context.Context) {
	for pollID := range w.dirty {
		if err := w.runner.RunPoll(ctx, pollID); err != nil {
			w.log.Error("rank job failed", "poll_id", pollID, "error", err)
		}
		delete(w.dirty, pollID)
	}
}
