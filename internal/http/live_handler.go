package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tierlist-ranking/internal/realtime"
)

// @Summary     Live score deltas
// @Description Upgrades to a WebSocket that streams {"type":"ballot","deltas":[[candidateId,{"votes":1,"score":55}]]}
// @Description frames for one poll and day. Defaults to today in the poll's timezone.
// @Tags        live
// @Param       slug  path   string  true   "Poll slug"
// @Param       day   query  string  false  "YYYY-MM-DD"
// @Success     101
// @Failure     400   {object}  errorBody  "invalid day"
// @Failure     404   {object}  errorBody  "unknown poll"
// @Router      /api/v1/polls/{slug}/live [get]
func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	p, err := h.pollSvc.BySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		errorResponse(w, err)
		return
	}

	day := h.bucketer.Today(p.Timezone)
	if s := r.URL.Query().Get("day"); s != "" {
		day, err = h.bucketer.ParseDay(p.Timezone, s)
		if err != nil {
			errorResponse(w, err)
			return
		}
	}

	h.broker.ServeWS(w, r, realtime.Channel(p.ID, day))
}
