package leaderboard

import (
	"context"
	"errors"
	"time"
)

type Window string

const (
	WindowDay   Window = "day"
	WindowMonth Window = "month"
	WindowAll   Window = "all"
)

type Order string

const (
	OrderBest  Order = "best"
	OrderWorst Order = "worst"
)

var (
	ErrInvalidWindow = errors.New("window must be day, month or all")
	ErrInvalidOrder  = errors.New("order must be best or worst")
)

func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case "":
		return WindowAll, nil
	case WindowDay, WindowMonth, WindowAll:
		return Window(s), nil
	}
	return "", ErrInvalidWindow
}

func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case "":
		return OrderBest, nil
	case OrderBest, OrderWorst:
		return Order(s), nil
	}
	return "", ErrInvalidOrder
}

// Range bounds day buckets inclusively. A nil bound is open.
type Range struct {
	From *time.Time
	To   *time.Time
}

// Total is a candidate's summed score over a range. Candidates without any
// votes in the range are reported with zeros.
type Total struct {
	CandidateID int64  `db:"candidate_id"`
	Name        string `db:"name"`
	SortIndex   int    `db:"sort_index"`
	Votes       int64  `db:"votes"`
	Score       int64  `db:"score"`
}

type Entry struct {
	CandidateID int64   `json:"candidateId"`
	Name        string  `json:"name"`
	Votes       int64   `json:"votes"`
	Score       int64   `json:"score"`
	Avg         float64 `json:"avg"`
	Rank        int     `json:"rank"`
}

type Repository interface {
	Totals(ctx context.Context, pollID int64, r Range) ([]Total, error)
}
