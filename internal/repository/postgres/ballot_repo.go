package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"tierlist-ranking/internal/domain/ballot"
)

const (
	queryInsertBallot = `INSERT INTO ballots (id, poll_id, vote_day, voter_key, ip_hash, user_agent)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at`

	queryInsertBallotItem = `INSERT INTO ballot_items (ballot_id, candidate_id, tier, position)
VALUES ($1, $2, $3, $4)`

	// Additive merge: concurrent ballots for the same row serialize on the
	// row lock and each adds its own delta.
	queryUpsertDailyScore = `INSERT INTO daily_scores (poll_id, candidate_id, day, votes, score)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (poll_id, candidate_id, day) DO UPDATE
SET votes = daily_scores.votes + EXCLUDED.votes,
    score = daily_scores.score + EXCLUDED.score,
    updated_at = now()`
)

type BallotRepo struct {
	db *sql.DB
}

func NewBallotRepo(db *sql.DB) *BallotRepo {
	return &BallotRepo{db: db}
}

// Record writes the ballot, its items and the score merges in one
// transaction. Deltas must be ordered by candidate id so that concurrent
// transactions take row locks in the same order.
func (r *BallotRepo) Record(ctx context.Context, b *ballot.Ballot, deltas []ballot.ScoreDelta) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ipHash := sql.NullString{String: b.IPHash, Valid: b.IPHash != ""}
	err = tx.QueryRowContext(ctx, queryInsertBallot,
		b.ID, b.PollID, b.VoteDay, b.VoterKey, ipHash, b.UserAgent,
	).Scan(&b.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ballot.ErrDuplicateVote
		}
		return err
	}

	for _, it := range b.Items {
		if _, err := tx.ExecContext(ctx, queryInsertBallotItem, b.ID, it.CandidateID, string(it.Tier), it.Position); err != nil {
			return err
		}
	}

	for _, d := range deltas {
		if _, err := tx.ExecContext(ctx, queryUpsertDailyScore, b.PollID, d.CandidateID, b.VoteDay, d.Votes, d.Score); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
