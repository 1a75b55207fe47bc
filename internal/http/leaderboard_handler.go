package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tierlist-ranking/internal/domain/leaderboard"
	"tierlist-ranking/internal/platform/apperr"
)

const maxLeaderboardLimit = 500

type leaderboardResponse struct {
	PollID  int64               `json:"pollId"`
	Window  leaderboard.Window  `json:"window"`
	Order   leaderboard.Order   `json:"order"`
	Entries []leaderboard.Entry `json:"entries"`
}

// @Summary     Poll leaderboard
// @Tags        leaderboard
// @Produce     json
// @Param       slug    path      string  true   "Poll slug"
// @Param       window  query     string  false  "day, month or all"  default(all)
// @Param       order   query     string  false  "best or worst"      default(best)
// @Param       limit   query     int     false  "Maximum entries"
// @Success     200     {object}  leaderboardResponse
// @Failure     400     {object}  errorBody  "invalid query"
// @Failure     404     {object}  errorBody  "unknown poll"
// @Failure     500     {object}  errorBody  "server error"
// @Router      /api/v1/polls/{slug}/leaderboard [get]
func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	window, err := leaderboard.ParseWindow(q.Get("window"))
	if err != nil {
		errorResponse(w, err)
		return
	}
	order, err := leaderboard.ParseOrder(q.Get("order"))
	if err != nil {
		errorResponse(w, err)
		return
	}
	limit := 0
	if s := q.Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit < 0 || limit > maxLeaderboardLimit {
			errorResponse(w, apperr.BadRequest("invalid_limit", "limit must be between 0 and 500", err))
			return
		}
	}

	p, err := h.pollSvc.BySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		errorResponse(w, err)
		return
	}

	entries, err := h.boardSvc.Leaderboard(r.Context(), p, leaderboard.Query{Window: window, Order: order, Limit: limit})
	if err != nil {
		errorResponse(w, err)
		return
	}
	if entries == nil {
		entries = []leaderboard.Entry{}
	}

	writeJSON(w, http.StatusOK, leaderboardResponse{
		PollID:  p.ID,
		Window:  window,
		Order:   order,
		Entries: entries,
	})
}
