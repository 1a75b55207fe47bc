package ballot

import "sort"

var tierBase = map[Tier]int64{
	TierS: 50,
	TierA: 40,
	TierB: 30,
	TierC: 20,
	TierD: 10,
	TierF: 0,
}

// positionBonus is indexed by position; positions past the table earn nothing.
var positionBonus = map[Tier][3]int64{
	TierS: {5, 3, 1},
	TierA: {4, 2, 1},
	TierB: {3, 2, 1},
	TierC: {2, 1, 0},
	TierD: {1, 0, 0},
	TierF: {0, 0, 0},
}

// Score is the points one placement contributes.
func Score(t Tier, position int) int64 {
	s := tierBase[t]
	if position >= 0 && position < 3 {
		bonus := positionBonus[t]
		s += bonus[position]
	}
	return s
}

// Deltas folds validated items into one delta per candidate, ordered by
// candidate id.
func Deltas(items []Item) []ScoreDelta {
	byCandidate := make(map[int64]*ScoreDelta, len(items))
	for _, it := range items {
		d, ok := byCandidate[it.CandidateID]
		if !ok {
			d = &ScoreDelta{CandidateID: it.CandidateID, Votes: 1}
			byCandidate[it.CandidateID] = d
		}
		d.Score += Score(it.Tier, it.Position)
	}

	out := make([]ScoreDelta, 0, len(byCandidate))
	for _, d := range byCandidate {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CandidateID < out[j].CandidateID })
	return out
}
