package rank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tierlist-ranking/internal/daybucket"
	"tierlist-ranking/internal/domain/leaderboard"
	"tierlist-ranking/internal/domain/poll"
	"tierlist-ranking/internal/metrics"
)

type Result struct {
	PollID    int64     `json:"pollId"`
	Day       time.Time `json:"day"`
	Change    *Change   `json:"change,omitempty"`
	Message   string    `json:"message,omitempty"`
	Announced bool      `json:"announced"`
}

type Service struct {
	repo     Repository
	polls    *poll.Service
	boards   *leaderboard.Service
	bucketer *daybucket.Bucketer
	sink     Sink
	log      *slog.Logger
}

func NewService(repo Repository, polls *poll.Service, boards *leaderboard.Service, bucketer *daybucket.Bucketer, sink Sink, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		polls:    polls,
		boards:   boards,
		bucketer: bucketer,
		sink:     sink,
		log:      logger,
	}
}

// Run snapshots today's all-time ranking and announces the largest movement
// since the previous snapshot day. The first snapshot of a day is kept, so a
// rerun on the same day reproduces the same diff and posts nothing new.
func (s *Service) Run(ctx context.Context, p *poll.Poll) (*Result, error) {
	entries, err := s.boards.Leaderboard(ctx, p, leaderboard.Query{Window: leaderboard.WindowAll})
	if err != nil {
		return nil, fmt.Errorf("rank poll %d: %w", p.ID, err)
	}

	day := s.bucketer.Today(p.Timezone)
	if err := s.repo.SaveSnapshot(ctx, p.ID, day, entries); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	res := &Result{PollID: p.ID, Day: day}

	days, err := s.repo.LatestDays(ctx, p.ID, 2)
	if err != nil {
		return nil, fmt.Errorf("load snapshot days: %w", err)
	}
	if len(days) < 2 {
		return res, nil
	}

	curr, err := s.repo.Snapshot(ctx, p.ID, days[0])
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	prev, err := s.repo.Snapshot(ctx, p.ID, days[1])
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	change, ok := Top(prev, curr)
	if !ok {
		return res, nil
	}
	res.Change = &change
	res.Message = Message(p.Title, change)

	fresh, err := s.repo.RecordAnnouncement(ctx, Announcement{
		PollID:      p.ID,
		Day:         days[0],
		CandidateID: change.CandidateID,
		Message:     res.Message,
	})
	if err != nil {
		return nil, fmt.Errorf("record announcement: %w", err)
	}
	if !fresh {
		metrics.IncAnnouncement("duplicate")
		return res, nil
	}

	if s.sink == nil {
		return res, nil
	}
	if err := s.sink.Post(ctx, res.Message); err != nil {
		metrics.IncAnnouncement("failed")
		s.log.Warn("announcement failed", "poll_id", p.ID, "error", err)
		return res, nil
	}
	metrics.IncAnnouncement("posted")
	res.Announced = true
	return res, nil
}

// Preview diffs the live all-time ranking against the latest snapshot taken
// before today. Nothing is stored or announced.
func (s *Service) Preview(ctx context.Context, p *poll.Poll) (*Result, error) {
	entries, err := s.boards.Leaderboard(ctx, p, leaderboard.Query{Window: leaderboard.WindowAll})
	if err != nil {
		return nil, fmt.Errorf("rank poll %d: %w", p.ID, err)
	}

	day := s.bucketer.Today(p.Timezone)
	res := &Result{PollID: p.ID, Day: day}

	days, err := s.repo.LatestDays(ctx, p.ID, 2)
	if err != nil {
		return nil, fmt.Errorf("load snapshot days: %w", err)
	}
	var prevDay time.Time
	for _, d := range days {
		if d.Before(day) {
			prevDay = d
			break
		}
	}
	if prevDay.IsZero() {
		return res, nil
	}
	prev, err := s.repo.Snapshot(ctx, p.ID, prevDay)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	if change, ok := Top(prev, snapshots(entries)); ok {
		res.Change = &change
		res.Message = Message(p.Title, change)
	}
	return res, nil
}

func (s *Service) PreviewByID(ctx context.Context, pollID int64) (*Result, error) {
	p, err := s.polls.ByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	return s.Preview(ctx, p)
}

func snapshots(entries []leaderboard.Entry) []Snapshot {
	out := make([]Snapshot, 0, len(entries))
	for _, e := range entries {
		out = append(out, Snapshot{CandidateID: e.CandidateID, Name: e.Name, Rank: e.Rank, Votes: e.Votes, Score: e.Score})
	}
	return out
}

func (s *Service) RunByID(ctx context.Context, pollID int64) (*Result, error) {
	p, err := s.polls.ByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, p)
}

// RunAll runs every active poll and returns the joined errors of the ones
// that failed.
func (s *Service) RunAll(ctx context.Context) error {
	polls, err := s.polls.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list polls: %w", err)
	}

	var errs []error
	for i := range polls {
		res, err := s.Run(ctx, &polls[i])
		if err != nil {
			s.log.Error("rank snapshot failed", "poll_id", polls[i].ID, "error", err)
			errs = append(errs, err)
			continue
		}
		s.log.Info("rank snapshot",
			"poll_id", res.PollID,
			"day", daybucket.ISO(res.Day),
			"announced", res.Announced,
		)
	}
	return errors.Join(errs...)
}
