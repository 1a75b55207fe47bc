package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"tierlist-ranking/internal/domain/leaderboard"
)

// Candidates without scores in the range still appear, with zero totals.
const queryTotals = `SELECT c.id AS candidate_id, c.name, c.sort_index,
       COALESCE(SUM(s.votes), 0) AS votes,
       COALESCE(SUM(s.score), 0) AS score
FROM candidates c
LEFT JOIN daily_scores s
       ON s.candidate_id = c.id
      AND s.poll_id = c.poll_id
      AND ($2::timestamptz IS NULL OR s.day >= $2)
      AND ($3::timestamptz IS NULL OR s.day <= $3)
WHERE c.poll_id = $1
GROUP BY c.id, c.name, c.sort_index`

type LeaderboardRepo struct {
	db *sqlx.DB
}

func NewLeaderboardRepo(db *sqlx.DB) *LeaderboardRepo {
	return &LeaderboardRepo{db: db}
}

func (r *LeaderboardRepo) Totals(ctx context.Context, pollID int64, rg leaderboard.Range) ([]leaderboard.Total, error) {
	var out []leaderboard.Total
	if err := r.db.SelectContext(ctx, &out, queryTotals, pollID, rg.From, rg.To); err != nil {
		return nil, err
	}
	return out, nil
}
