package postgres

import (
	"context"
	"database/sql"

	"tierlist-ranking/internal/domain/poll"
)

const (
	pollColumns = `id, slug, title, timezone, is_active, min_selections, created_at`

	queryPollBySlug       = `SELECT ` + pollColumns + ` FROM polls WHERE slug = $1`
	queryPollByID         = `SELECT ` + pollColumns + ` FROM polls WHERE id = $1`
	queryActivePolls      = `SELECT ` + pollColumns + ` FROM polls WHERE is_active ORDER BY id`
	queryCandidatesByPoll = `SELECT id, poll_id, name, title, image_url, category, sort_index FROM candidates WHERE poll_id = $1 ORDER BY sort_index, id`
)

type PollRepo struct {
	db *sql.DB
}

func NewPollRepo(db *sql.DB) *PollRepo {
	return &PollRepo{db: db}
}

func (r *PollRepo) GetBySlug(ctx context.Context, slug string) (*poll.Poll, error) {
	return scanPoll(r.db.QueryRowContext(ctx, queryPollBySlug, slug))
}

func (r *PollRepo) GetByID(ctx context.Context, id int64) (*poll.Poll, error) {
	return scanPoll(r.db.QueryRowContext(ctx, queryPollByID, id))
}

func (r *PollRepo) ListActive(ctx context.Context) ([]poll.Poll, error) {
	rows, err := r.db.QueryContext(ctx, queryActivePolls)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []poll.Poll
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *p)
	}
	return res, rows.Err()
}

func (r *PollRepo) Candidates(ctx context.Context, pollID int64) ([]poll.Candidate, error) {
	rows, err := r.db.QueryContext(ctx, queryCandidatesByPoll, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []poll.Candidate
	for rows.Next() {
		var c poll.Candidate
		if err := rows.Scan(&c.ID, &c.PollID, &c.Name, &c.Title, &c.ImageURL, &c.Category, &c.SortIndex); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoll(row rowScanner) (*poll.Poll, error) {
	p := &poll.Poll{}
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Timezone, &p.IsActive, &p.MinSelections, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
