// Package memory is an in-process implementation of every repository, used
// for local runs without Postgres and for handler tests.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"tierlist-ranking/internal/domain/ballot"
	"tierlist-ranking/internal/domain/leaderboard"
	"tierlist-ranking/internal/domain/poll"
	"tierlist-ranking/internal/domain/rank"
)

type scoreKey struct {
	pollID      int64
	candidateID int64
	day         time.Time
}

type voterKey struct {
	pollID   int64
	voterKey string
	day      time.Time
}

type dayKey struct {
	pollID int64
	day    time.Time
}

type Score struct {
	Votes int64
	Score int64
}

type Store struct {
	mu sync.Mutex

	polls      map[int64]*poll.Poll
	candidates map[int64][]poll.Candidate
	nextPoll   int64
	nextCand   int64

	ballots   map[voterKey]*ballot.Ballot
	scores    map[scoreKey]Score
	ranks     map[dayKey][]rank.Snapshot
	announced map[dayKey]rank.Announcement
}

func NewStore() *Store {
	return &Store{
		polls:      make(map[int64]*poll.Poll),
		candidates: make(map[int64][]poll.Candidate),
		nextPoll:   1,
		nextCand:   1,
		ballots:    make(map[voterKey]*ballot.Ballot),
		scores:     make(map[scoreKey]Score),
		ranks:      make(map[dayKey][]rank.Snapshot),
		announced:  make(map[dayKey]rank.Announcement),
	}
}

func (s *Store) PingContext(context.Context) error {
	return nil
}

// AddPoll stores p with a fresh id and returns it.
func (s *Store) AddPoll(p poll.Poll) *poll.Poll {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextPoll
	s.nextPoll++
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.polls[p.ID] = &p
	cp := p
	return &cp
}

func (s *Store) AddCandidate(pollID int64, name string) poll.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := poll.Candidate{
		ID:        s.nextCand,
		PollID:    pollID,
		Name:      name,
		SortIndex: len(s.candidates[pollID]),
	}
	s.nextCand++
	s.candidates[pollID] = append(s.candidates[pollID], c)
	return c
}

func (s *Store) GetBySlug(ctx context.Context, slug string) (*poll.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.polls {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *Store) GetByID(ctx context.Context, id int64) (*poll.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.polls[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ListActive(ctx context.Context) ([]poll.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []poll.Poll
	for _, p := range s.polls {
		if p.IsActive {
			res = append(res, *p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *Store) Candidates(ctx context.Context, pollID int64) ([]poll.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]poll.Candidate(nil), s.candidates[pollID]...), nil
}

func (s *Store) Record(ctx context.Context, b *ballot.Ballot, deltas []ballot.ScoreDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vk := voterKey{pollID: b.PollID, voterKey: b.VoterKey, day: b.VoteDay}
	if _, dup := s.ballots[vk]; dup {
		return ballot.ErrDuplicateVote
	}
	b.CreatedAt = time.Now()
	cp := *b
	s.ballots[vk] = &cp

	for _, d := range deltas {
		k := scoreKey{pollID: b.PollID, candidateID: d.CandidateID, day: b.VoteDay}
		cur := s.scores[k]
		cur.Votes += d.Votes
		cur.Score += d.Score
		s.scores[k] = cur
	}
	return nil
}

// DailyScore returns the stored totals for one candidate and day.
func (s *Store) DailyScore(pollID, candidateID int64, day time.Time) Score {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores[scoreKey{pollID: pollID, candidateID: candidateID, day: day}]
}

func (s *Store) BallotCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ballots)
}

func (s *Store) Totals(ctx context.Context, pollID int64, rg leaderboard.Range) ([]leaderboard.Total, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byCandidate := make(map[int64]*leaderboard.Total)
	var out []leaderboard.Total
	for _, c := range s.candidates[pollID] {
		out = append(out, leaderboard.Total{CandidateID: c.ID, Name: c.Name, SortIndex: c.SortIndex})
	}
	for i := range out {
		byCandidate[out[i].CandidateID] = &out[i]
	}

	for k, v := range s.scores {
		if k.pollID != pollID {
			continue
		}
		if rg.From != nil && k.day.Before(*rg.From) {
			continue
		}
		if rg.To != nil && k.day.After(*rg.To) {
			continue
		}
		if t, ok := byCandidate[k.candidateID]; ok {
			t.Votes += v.Votes
			t.Score += v.Score
		}
	}
	return out, nil
}

func (s *Store) SaveSnapshot(ctx context.Context, pollID int64, day time.Time, entries []leaderboard.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := dayKey{pollID: pollID, day: day}
	if _, ok := s.ranks[k]; ok {
		return nil
	}
	snap := make([]rank.Snapshot, 0, len(entries))
	for _, e := range entries {
		snap = append(snap, rank.Snapshot{
			CandidateID: e.CandidateID,
			Name:        e.Name,
			Rank:        e.Rank,
			Votes:       e.Votes,
			Score:       e.Score,
		})
	}
	s.ranks[k] = snap
	return nil
}

func (s *Store) LatestDays(ctx context.Context, pollID int64, n int) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var days []time.Time
	for k := range s.ranks {
		if k.pollID == pollID {
			days = append(days, k.day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	if len(days) > n {
		days = days[:n]
	}
	return days, nil
}

func (s *Store) Snapshot(ctx context.Context, pollID int64, day time.Time) ([]rank.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]rank.Snapshot(nil), s.ranks[dayKey{pollID: pollID, day: day}]...), nil
}

func (s *Store) RecordAnnouncement(ctx context.Context, a rank.Announcement) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := dayKey{pollID: a.PollID, day: a.Day}
	if _, ok := s.announced[k]; ok {
		return false, nil
	}
	s.announced[k] = a
	return true, nil
}

// SeedDemo installs a small active poll for local runs.
func (s *Store) SeedDemo() *poll.Poll {
	p := s.AddPoll(poll.Poll{
		Slug:          "demo",
		Title:         "Demo Tier List",
		Timezone:      "Europe/Amsterdam",
		IsActive:      true,
		MinSelections: poll.DefaultMinSelections,
	})
	for _, name := range []string{"Ada", "Bo", "Cy", "Di", "Ed"} {
		s.AddCandidate(p.ID, name)
	}
	return p
}
