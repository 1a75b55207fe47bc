package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tierlist-ranking/internal/daybucket"
	"tierlist-ranking/internal/domain/rank"
)

type snapshotResponse struct {
	PollID    int64        `json:"pollId"`
	Day       string       `json:"day"`
	Announced bool         `json:"announced"`
	Change    *rank.Change `json:"change,omitempty"`
	Message   string       `json:"message,omitempty"`
}

// @Summary     Snapshot ranks now
// @Description Stores today's ranking unless the day already has one, and announces the biggest mover if the day has not been announced yet.
// @Tags        admin
// @Security    BearerAuth
// @Produce     json
// @Param       slug  path      string  true  "Poll slug"
// @Success     200   {object}  snapshotResponse
// @Failure     401   {object}  errorBody  "unauthorized"
// @Failure     403   {object}  errorBody  "forbidden"
// @Failure     404   {object}  errorBody  "unknown poll"
// @Failure     500   {object}  errorBody  "server error"
// @Router      /api/v1/admin/polls/{slug}/snapshot [post]
func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	p, err := h.pollSvc.BySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		errorResponse(w, err)
		return
	}

	res, err := h.rankSvc.Run(r.Context(), p)
	if err != nil {
		errorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshotResponse{
		PollID:    res.PollID,
		Day:       daybucket.ISO(res.Day),
		Announced: res.Announced,
		Change:    res.Change,
		Message:   res.Message,
	})
}
