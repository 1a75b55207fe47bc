package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"tierlist-ranking/internal/daybucket"
	"tierlist-ranking/internal/domain/ballot"
	"tierlist-ranking/internal/domain/leaderboard"
	"tierlist-ranking/internal/domain/poll"
	"tierlist-ranking/internal/platform/apperr"
)

// errorBody is the failure envelope shared by every endpoint.
type errorBody struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func errorResponse(w http.ResponseWriter, err error) {
	appErr := mapError(err)
	if appErr.StatusCode() >= http.StatusInternalServerError {
		slogLogger.Error("request failed", "code", appErr.Code, "error", err)
	}
	if appErr.RetryAfter > 0 {
		secs := int(math.Ceil(appErr.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	writeJSON(w, appErr.StatusCode(), errorBody{
		Error:   appErr.Code,
		Message: appErr.Message,
	})
}

func mapError(err error) *apperr.AppError {
	if err == nil {
		return apperr.Internal("internal_error", "internal server error", nil)
	}

	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var rl *ballot.RateLimitError
	if errors.As(err, &rl) {
		return apperr.TooManyRequests("rate_limited", "too many submissions, slow down", rl.RetryAfter, err)
	}

	switch {
	case errors.Is(err, poll.ErrPollNotFound):
		return apperr.NotFound("poll_not_found", "poll not found", err)
	case errors.Is(err, poll.ErrPollInactive):
		return apperr.NotFound("poll_inactive", "poll is not accepting ballots", err)
	case errors.Is(err, ballot.ErrUnknownCandidate):
		return apperr.BadRequest("unknown_candidate", "ballot references a candidate outside this poll", err)
	case errors.Is(err, ballot.ErrInsufficientSelections):
		return apperr.BadRequest("insufficient_selections", "place more candidates before submitting", err)
	case errors.Is(err, ballot.ErrDuplicateCandidate):
		return apperr.BadRequest("duplicate_candidate", "each candidate may be placed only once", err)
	case errors.Is(err, ballot.ErrInvalidTier):
		return apperr.BadRequest("invalid_tier", "tier must be one of S, A, B, C, D, F", err)
	case errors.Is(err, ballot.ErrInvalidPosition):
		return apperr.BadRequest("invalid_position", "position must be zero or greater", err)
	case errors.Is(err, ballot.ErrMissingDevice):
		return apperr.BadRequest("missing_device", "deviceId is required", err)
	case errors.Is(err, daybucket.ErrInvalidDate):
		return apperr.BadRequest("invalid_date", "date must be formatted as YYYY-MM-DD", err)
	case errors.Is(err, leaderboard.ErrInvalidWindow):
		return apperr.BadRequest("invalid_window", "window must be day, month or all", err)
	case errors.Is(err, leaderboard.ErrInvalidOrder):
		return apperr.BadRequest("invalid_order", "order must be best or worst", err)
	case errors.Is(err, ballot.ErrBotCheckFailed):
		return apperr.Forbidden("bot_check_failed", "bot check failed", err)
	case errors.Is(err, ballot.ErrBackfillForbidden):
		return apperr.Forbidden("backfill_forbidden", "backfilling a past day requires an admin token", err)
	case errors.Is(err, ballot.ErrDuplicateVote):
		return apperr.Conflict("duplicate_vote", "you already voted today", err)
	default:
		return apperr.FromError(err)
	}
}
