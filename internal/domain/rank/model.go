package rank

import (
	"context"
	"time"

	"tierlist-ranking/internal/domain/leaderboard"
)

// Snapshot is one candidate's persisted position for a day.
type Snapshot struct {
	CandidateID int64  `db:"candidate_id"`
	Name        string `db:"name"`
	Rank        int    `db:"rank"`
	Votes       int64  `db:"votes"`
	Score       int64  `db:"score"`
}

// Change is a candidate's movement between two snapshot days. Delta is
// positive when the candidate climbed.
type Change struct {
	CandidateID int64  `json:"candidateId"`
	Name        string `json:"name"`
	PrevRank    int    `json:"prevRank"`
	CurrRank    int    `json:"currRank"`
	Delta       int    `json:"delta"`
	// Passed is the candidate overtaken on a climb, or the one now directly
	// ahead after a drop. Empty when it cannot be determined.
	Passed string `json:"passed,omitempty"`
}

type Announcement struct {
	PollID      int64
	Day         time.Time
	CandidateID int64
	Message     string
}

type Repository interface {
	// SaveSnapshot stores the day's ranking for the poll. A day that already
	// has rows keeps them.
	SaveSnapshot(ctx context.Context, pollID int64, day time.Time, entries []leaderboard.Entry) error
	// LatestDays returns up to n distinct snapshot days, newest first.
	LatestDays(ctx context.Context, pollID int64, n int) ([]time.Time, error)
	Snapshot(ctx context.Context, pollID int64, day time.Time) ([]Snapshot, error)
	// RecordAnnouncement reports false when the day was already announced.
	RecordAnnouncement(ctx context.Context, a Announcement) (bool, error)
}

// Sink publishes announcement text to an external channel.
type Sink interface {
	Post(ctx context.Context, text string) error
}
