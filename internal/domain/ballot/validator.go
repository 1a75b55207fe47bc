package ballot

import (
	"fmt"

	"tierlist-ranking/internal/domain/poll"
)

// Validate checks a ballot against the poll's live candidate set and returns
// its items in tier order. Checks run in a fixed order and the first failure
// rejects the whole ballot.
func Validate(tiers Placements, candidates []poll.Candidate, minSelections int) ([]Item, error) {
	for t, placements := range tiers {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTier, t)
		}
		seen := make(map[int]struct{}, len(placements))
		for _, p := range placements {
			if p.Position < 0 {
				return nil, fmt.Errorf("%w: negative position in tier %s", ErrInvalidPosition, t)
			}
			if _, dup := seen[p.Position]; dup {
				return nil, fmt.Errorf("%w: position %d repeated in tier %s", ErrInvalidPosition, p.Position, t)
			}
			seen[p.Position] = struct{}{}
		}
	}

	known := make(map[int64]struct{}, len(candidates))
	for _, c := range candidates {
		known[c.ID] = struct{}{}
	}

	items := make([]Item, 0)
	for _, t := range Tiers {
		for _, p := range tiers[t] {
			if _, ok := known[p.CandidateID]; !ok {
				return nil, fmt.Errorf("%w: %d", ErrUnknownCandidate, p.CandidateID)
			}
			items = append(items, Item{CandidateID: p.CandidateID, Tier: t, Position: p.Position})
		}
	}

	if len(items) < minSelections {
		return nil, fmt.Errorf("%w: placed %d, need %d", ErrInsufficientSelections, len(items), minSelections)
	}

	placed := make(map[int64]Tier, len(items))
	for _, it := range items {
		if prev, dup := placed[it.CandidateID]; dup {
			return nil, fmt.Errorf("%w: candidate %d in %s and %s", ErrDuplicateCandidate, it.CandidateID, prev, it.Tier)
		}
		placed[it.CandidateID] = it.Tier
	}

	return items, nil
}
