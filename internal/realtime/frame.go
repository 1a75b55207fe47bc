package realtime

import (
	"encoding/json"
	"fmt"

	"tierlist-ranking/internal/domain/ballot"
)

const FrameTypeBallot = "ballot"

type Counts struct {
	Votes int64 `json:"votes"`
	Score int64 `json:"score"`
}

// Delta is encoded as a two-element array: [candidateId, {votes, score}].
type Delta struct {
	CandidateID int64
	Counts      Counts
}

func (d Delta) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{d.CandidateID, d.Counts})
}

func (d *Delta) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("delta: expected 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &d.CandidateID); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &d.Counts)
}

type Frame struct {
	Type   string  `json:"type"`
	Deltas []Delta `json:"deltas"`
}

func NewBallotFrame(deltas []ballot.ScoreDelta) Frame {
	f := Frame{Type: FrameTypeBallot, Deltas: make([]Delta, 0, len(deltas))}
	for _, d := range deltas {
		f.Deltas = append(f.Deltas, Delta{
			CandidateID: d.CandidateID,
			Counts:      Counts{Votes: d.Votes, Score: d.Score},
		})
	}
	return f
}
