package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"tierlist-ranking/internal/daybucket"
	"tierlist-ranking/internal/domain/ballot"
	"tierlist-ranking/internal/domain/leaderboard"
	"tierlist-ranking/internal/domain/poll"
	"tierlist-ranking/internal/domain/rank"
	"tierlist-ranking/internal/platform/apperr"
	jwtpkg "tierlist-ranking/internal/platform/jwt"
	"tierlist-ranking/internal/realtime"
	"tierlist-ranking/internal/worker"
)

// Pinger reports storage readiness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Polls    *poll.Service
	Ballots  *ballot.Service
	Boards   *leaderboard.Service
	Ranks    *rank.Service
	Broker   *realtime.Broker
	Bucketer *daybucket.Bucketer
	JWT      *jwtpkg.Manager
	// RankSignals receives a poll id after each accepted ballot. May be nil.
	RankSignals   chan<- worker.RankSignal
	DB            Pinger
	SubmitTimeout time.Duration
}

type Handler struct {
	pollSvc       *poll.Service
	ballotSvc     *ballot.Service
	boardSvc      *leaderboard.Service
	rankSvc       *rank.Service
	broker        *realtime.Broker
	bucketer      *daybucket.Bucketer
	rankCh        chan<- worker.RankSignal
	db            Pinger
	submitTimeout time.Duration
}

func NewRouter(d Deps) http.Handler {
	h := &Handler{
		pollSvc:       d.Polls,
		ballotSvc:     d.Ballots,
		boardSvc:      d.Boards,
		rankSvc:       d.Ranks,
		broker:        d.Broker,
		bucketer:      d.Bucketer,
		rankCh:        d.RankSignals,
		db:            d.DB,
		submitTimeout: d.SubmitTimeout,
	}
	if h.submitTimeout <= 0 {
		h.submitTimeout = 10 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(RequestLogger)
	r.Use(CORSMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", h.handleReady)
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		// The live feed holds its connection open, so it sits outside the
		// request timeout.
		r.Get("/polls/{slug}/live", h.handleLive)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(60 * time.Second))

			r.With(OptionalAuth(d.JWT)).Post("/ballots", h.handleSubmitBallot)
			r.Get("/polls/{slug}/leaderboard", h.handleLeaderboard)

			r.Group(func(r chi.Router) {
				r.Use(AuthMiddleware(d.JWT))
				r.Use(RequireRole(jwtpkg.RoleAdmin))
				r.Post("/admin/polls/{slug}/snapshot", h.handleSnapshot)
			})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// @Summary     Readiness check
// @Tags        health
// @Produce     json
// @Success     200  {object}  map[string]string
// @Failure     503  {object}  errorBody
// @Router      /ready [get]
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		errorResponse(w, apperr.ServiceUnavailable("db_unavailable", "database not configured", nil))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		errorResponse(w, apperr.ServiceUnavailable("db_unavailable", "database not ready", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
