package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"tierlist-ranking/internal/domain/leaderboard"
	"tierlist-ranking/internal/domain/rank"
)

const (
	queryInsertDailyRank = `INSERT INTO daily_ranks (poll_id, candidate_id, day, rank, votes, score)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (poll_id, candidate_id, day) DO NOTHING`

	queryRankDayExists = `SELECT EXISTS (SELECT 1 FROM daily_ranks WHERE poll_id = $1 AND day = $2)`

	queryLatestRankDays = `SELECT DISTINCT day FROM daily_ranks WHERE poll_id = $1 ORDER BY day DESC LIMIT $2`

	queryRankSnapshot = `SELECT r.candidate_id, c.name, r.rank, r.votes, r.score
FROM daily_ranks r
JOIN candidates c ON c.id = r.candidate_id
WHERE r.poll_id = $1 AND r.day = $2
ORDER BY r.rank`

	queryInsertAnnouncement = `INSERT INTO rank_announcements (poll_id, day, candidate_id, message)
VALUES ($1, $2, $3, $4)
ON CONFLICT (poll_id, day) DO NOTHING`
)

type RankRepo struct {
	db *sqlx.DB
}

func NewRankRepo(db *sqlx.DB) *RankRepo {
	return &RankRepo{db: db}
}

func (r *RankRepo) SaveSnapshot(ctx context.Context, pollID int64, day time.Time, entries []leaderboard.Entry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.GetContext(ctx, &exists, queryRankDayExists, pollID, day); err != nil {
		return err
	}
	if exists {
		return nil
	}

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, queryInsertDailyRank, pollID, e.CandidateID, day, e.Rank, e.Votes, e.Score); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *RankRepo) LatestDays(ctx context.Context, pollID int64, n int) ([]time.Time, error) {
	var days []time.Time
	if err := r.db.SelectContext(ctx, &days, queryLatestRankDays, pollID, n); err != nil {
		return nil, err
	}
	return days, nil
}

func (r *RankRepo) Snapshot(ctx context.Context, pollID int64, day time.Time) ([]rank.Snapshot, error) {
	var out []rank.Snapshot
	if err := r.db.SelectContext(ctx, &out, queryRankSnapshot, pollID, day); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RankRepo) RecordAnnouncement(ctx context.Context, a rank.Announcement) (bool, error) {
	res, err := r.db.ExecContext(ctx, queryInsertAnnouncement, a.PollID, a.Day, a.CandidateID, a.Message)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
