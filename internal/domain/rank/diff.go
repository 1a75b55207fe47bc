package rank

import (
	"fmt"
	"sort"
)

// Diff lists every candidate present in both snapshots whose rank moved,
// most significant first: larger absolute delta, then better current rank,
// then lower candidate id.
func Diff(prev, curr []Snapshot) []Change {
	prevRank := make(map[int64]int, len(prev))
	for _, s := range prev {
		prevRank[s.CandidateID] = s.Rank
	}
	byRank := make(map[int]Snapshot, len(curr))
	for _, s := range curr {
		byRank[s.Rank] = s
	}

	var changes []Change
	for _, s := range curr {
		pr, ok := prevRank[s.CandidateID]
		if !ok || pr == s.Rank {
			continue
		}
		c := Change{
			CandidateID: s.CandidateID,
			Name:        s.Name,
			PrevRank:    pr,
			CurrRank:    s.Rank,
			Delta:       pr - s.Rank,
		}

		if c.Delta > 0 {
			// climbed: the one now right behind used to be ahead
			if below, ok := byRank[s.Rank+1]; ok {
				if r, seen := prevRank[below.CandidateID]; seen && r < pr {
					c.Passed = below.Name
				}
			}
		} else {
			// dropped: the one now right ahead used to be behind
			if above, ok := byRank[s.Rank-1]; ok {
				if r, seen := prevRank[above.CandidateID]; seen && r > pr {
					c.Passed = above.Name
				}
			}
		}
		changes = append(changes, c)
	}

	sort.SliceStable(changes, func(i, j int) bool {
		a, b := changes[i], changes[j]
		if abs(a.Delta) != abs(b.Delta) {
			return abs(a.Delta) > abs(b.Delta)
		}
		if a.CurrRank != b.CurrRank {
			return a.CurrRank < b.CurrRank
		}
		return a.CandidateID < b.CandidateID
	})
	return changes
}

// Top returns the most significant change, if any.
func Top(prev, curr []Snapshot) (Change, bool) {
	changes := Diff(prev, curr)
	if len(changes) == 0 {
		return Change{}, false
	}
	return changes[0], true
}

func Message(pollTitle string, c Change) string {
	places := "places"
	if abs(c.Delta) == 1 {
		places = "place"
	}

	var msg string
	if c.Delta > 0 {
		msg = fmt.Sprintf("%s climbed %d %s to #%d", c.Name, c.Delta, places, c.CurrRank)
		if c.Passed != "" {
			msg += fmt.Sprintf(", overtaking %s", c.Passed)
		}
	} else {
		msg = fmt.Sprintf("%s dropped %d %s to #%d", c.Name, -c.Delta, places, c.CurrRank)
		if c.Passed != "" {
			msg += fmt.Sprintf(" and fell behind %s", c.Passed)
		}
	}
	if pollTitle != "" {
		msg += " in " + pollTitle
	}
	return msg + "."
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
