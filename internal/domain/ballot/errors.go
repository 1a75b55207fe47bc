package ballot

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownCandidate       = errors.New("unknown candidate")
	ErrInsufficientSelections = errors.New("not enough candidates placed")
	ErrDuplicateCandidate     = errors.New("candidate placed more than once")
	ErrInvalidTier            = errors.New("invalid tier")
	ErrInvalidPosition        = errors.New("invalid position")
	ErrMissingDevice          = errors.New("device id is required")
	ErrDuplicateVote          = errors.New("ballot already submitted for this day")
	ErrBotCheckFailed         = errors.New("bot check failed")
	ErrRateLimited            = errors.New("too many submissions")
	ErrBackfillForbidden      = errors.New("backfilling a past day requires an admin token")
)

// RateLimitError reports how long the caller should wait. It matches
// ErrRateLimited with errors.Is.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s, retry after %s", ErrRateLimited, e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}
