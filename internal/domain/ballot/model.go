package ballot

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Tier string

const (
	TierS Tier = "S"
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
	TierF Tier = "F"
)

// Tiers lists every tier from best to worst.
var Tiers = []Tier{TierS, TierA, TierB, TierC, TierD, TierF}

func (t Tier) Valid() bool {
	switch t {
	case TierS, TierA, TierB, TierC, TierD, TierF:
		return true
	}
	return false
}

// Placement puts one candidate at a zero-based position inside a tier.
type Placement struct {
	CandidateID int64 `json:"candidateId"`
	Position    int   `json:"position"`
}

type Placements map[Tier][]Placement

type Item struct {
	CandidateID int64
	Tier        Tier
	Position    int
}

type Ballot struct {
	ID        uuid.UUID
	PollID    int64
	VoteDay   time.Time
	VoterKey  string
	IPHash    string
	UserAgent string
	CreatedAt time.Time
	Items     []Item
}

// ScoreDelta is the contribution of one ballot to one candidate's daily total.
type ScoreDelta struct {
	CandidateID int64 `json:"candidateId"`
	Votes       int64 `json:"votes"`
	Score       int64 `json:"score"`
}

type Repository interface {
	// Record stores the ballot with its items and merges deltas into the
	// daily totals atomically. Nothing is merged if the ballot is rejected.
	Record(ctx context.Context, b *Ballot, deltas []ScoreDelta) error
}

// Publisher fans accepted deltas out to live viewers.
type Publisher interface {
	PublishDeltas(pollID int64, day time.Time, deltas []ScoreDelta) error
}
