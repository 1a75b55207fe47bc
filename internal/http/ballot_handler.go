package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"tierlist-ranking/internal/domain/ballot"
	"tierlist-ranking/internal/metrics"
	"tierlist-ranking/internal/platform/apperr"
	"tierlist-ranking/internal/worker"
)

const maxBallotBody = 64 << 10

type ballotRequest struct {
	PollSlug      string            `json:"pollSlug"`
	Tiers         ballot.Placements `json:"tiers"`
	DeviceID      string            `json:"deviceId"`
	BotCheckToken string            `json:"botCheckToken,omitempty"`
	// Date backfills a YYYY-MM-DD day and needs an admin token.
	Date string `json:"date,omitempty"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// @Summary     Submit a tier-list ballot
// @Tags        ballots
// @Accept      json
// @Produce     json
// @Param       request  body      ballotRequest  true  "Ballot"
// @Success     200      {object}  okResponse
// @Failure     400      {object}  errorBody  "invalid ballot"
// @Failure     403      {object}  errorBody  "bot check failed or backfill not allowed"
// @Failure     404      {object}  errorBody  "unknown poll"
// @Failure     409      {object}  errorBody  "already voted today"
// @Failure     429      {object}  errorBody  "rate limited"
// @Failure     500      {object}  errorBody  "server error"
// @Router      /api/v1/ballots [post]
func (h *Handler) handleSubmitBallot(w http.ResponseWriter, r *http.Request) {
	var req ballotRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBallotBody)).Decode(&req); err != nil {
		h.rejectBallot(w, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}
	req.PollSlug = strings.TrimSpace(req.PollSlug)
	if req.PollSlug == "" {
		h.rejectBallot(w, apperr.BadRequest("invalid_input", "pollSlug is required", nil))
		return
	}
	if req.Date != "" && !claimsFromCtx(r).IsAdmin() {
		h.rejectBallot(w, ballot.ErrBackfillForbidden)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.submitTimeout)
	defer cancel()

	receipt, err := h.ballotSvc.Submit(ctx, ballot.Submission{
		PollSlug:      req.PollSlug,
		Tiers:         req.Tiers,
		DeviceID:      strings.TrimSpace(req.DeviceID),
		IP:            clientIP(r),
		UserAgent:     r.UserAgent(),
		BotCheckToken: req.BotCheckToken,
		Date:          req.Date,
	})
	if err != nil {
		h.rejectBallot(w, err)
		return
	}

	metrics.IncBallot("accepted")
	if h.rankCh != nil && !worker.Enqueue(h.rankCh, receipt.PollID) {
		slogLogger.Warn("rank signal dropped", "poll_id", receipt.PollID)
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *Handler) rejectBallot(w http.ResponseWriter, err error) {
	metrics.IncBallot(mapError(err).Code)
	errorResponse(w, err)
}
