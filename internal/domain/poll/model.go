package poll

import (
	"context"
	"time"
)

// DefaultMinSelections applies to the main tier list; persona polls lower it.
const DefaultMinSelections = 3

type Poll struct {
	ID            int64     `json:"id" db:"id"`
	Slug          string    `json:"slug" db:"slug"`
	Title         string    `json:"title" db:"title"`
	Timezone      string    `json:"timezone" db:"timezone"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	MinSelections int       `json:"min_selections" db:"min_selections"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// RequiredSelections is the minimum number of placed candidates per ballot.
func (p *Poll) RequiredSelections() int {
	if p.MinSelections <= 0 {
		return DefaultMinSelections
	}
	return p.MinSelections
}

type Candidate struct {
	ID        int64   `json:"id" db:"id"`
	PollID    int64   `json:"poll_id" db:"poll_id"`
	Name      string  `json:"name" db:"name"`
	Title     *string `json:"title,omitempty" db:"title"`
	ImageURL  *string `json:"image_url,omitempty" db:"image_url"`
	Category  string  `json:"category" db:"category"`
	SortIndex int     `json:"sort_index" db:"sort_index"`
}

type Repository interface {
	GetBySlug(ctx context.Context, slug string) (*Poll, error)
	GetByID(ctx context.Context, id int64) (*Poll, error)
	ListActive(ctx context.Context) ([]Poll, error)
	Candidates(ctx context.Context, pollID int64) ([]Candidate, error)
}
