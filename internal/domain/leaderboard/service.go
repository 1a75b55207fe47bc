package leaderboard

import (
	"context"
	"sort"

	"tierlist-ranking/internal/daybucket"
	"tierlist-ranking/internal/domain/poll"
)

type Query struct {
	Window Window
	Order  Order
	Limit  int
}

type Service struct {
	repo     Repository
	bucketer *daybucket.Bucketer
}

func NewService(repo Repository, bucketer *daybucket.Bucketer) *Service {
	return &Service{repo: repo, bucketer: bucketer}
}

// Leaderboard ranks the poll's candidates over the query window. Ranks are
// always positions in best-first order; OrderWorst only reverses the listing.
func (s *Service) Leaderboard(ctx context.Context, p *poll.Poll, q Query) ([]Entry, error) {
	totals, err := s.repo.Totals(ctx, p.ID, s.RangeFor(p, q.Window))
	if err != nil {
		return nil, err
	}

	entries := Rank(totals)
	if q.Order == OrderWorst {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}
	if q.Limit > 0 && q.Limit < len(entries) {
		entries = entries[:q.Limit]
	}
	return entries, nil
}

// RangeFor resolves a window to day buckets in the poll's timezone.
func (s *Service) RangeFor(p *poll.Poll, w Window) Range {
	today := s.bucketer.Today(p.Timezone)
	switch w {
	case WindowDay:
		return Range{From: &today, To: &today}
	case WindowMonth:
		from := s.bucketer.MonthStart(p.Timezone)
		return Range{From: &from, To: &today}
	default:
		return Range{}
	}
}

func Average(score, votes int64) float64 {
	if votes == 0 {
		return 0
	}
	return float64(score) / float64(votes)
}

// Rank orders totals by average, then score, then votes, all descending.
// Full ties fall back to the candidate's sort index and id so repeated
// queries over equal data return the same order.
func Rank(totals []Total) []Entry {
	sorted := make([]Total, len(totals))
	copy(sorted, totals)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		avgA, avgB := Average(a.Score, a.Votes), Average(b.Score, b.Votes)
		if avgA != avgB {
			return avgA > avgB
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Votes != b.Votes {
			return a.Votes > b.Votes
		}
		if a.SortIndex != b.SortIndex {
			return a.SortIndex < b.SortIndex
		}
		return a.CandidateID < b.CandidateID
	})

	entries := make([]Entry, len(sorted))
	for i, t := range sorted {
		entries[i] = Entry{
			CandidateID: t.CandidateID,
			Name:        t.Name,
			Votes:       t.Votes,
			Score:       t.Score,
			Avg:         Average(t.Score, t.Votes),
			Rank:        i + 1,
		}
	}
	return entries
}
