package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"tierlist-ranking/internal/metrics"
	"tierlist-ranking/internal/platform/apperr"
	jwtpkg "tierlist-ranking/internal/platform/jwt"
)

type ctxKey string

const ctxKeyClaims ctxKey = "claims"

var slogLogger = slog.Default()

func SetLogger(l *slog.Logger) {
	if l != nil {
		slogLogger = l
	}
}

func AuthMiddleware(jm *jwtpkg.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if h == "" {
				errorResponse(w, apperr.Unauthorized("missing_token", "missing authorization header", nil))
				return
			}
			claims, appErr := parseBearer(jm, h)
			if appErr != nil {
				errorResponse(w, appErr)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyClaims, claims)))
		})
	}
}

// OptionalAuth attaches claims when a bearer token is present. Requests
// without one pass through anonymously; a malformed token is still rejected.
func OptionalAuth(jm *jwtpkg.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if h == "" || jm == nil {
				next.ServeHTTP(w, r)
				return
			}
			claims, appErr := parseBearer(jm, h)
			if appErr != nil {
				errorResponse(w, appErr)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyClaims, claims)))
		})
	}
}

func parseBearer(jm *jwtpkg.Manager, header string) (*jwtpkg.Claims, *apperr.AppError) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, apperr.Unauthorized("invalid_token", "invalid authorization header", nil)
	}
	if jm == nil {
		return nil, apperr.Unauthorized("invalid_token", "token auth not configured", nil)
	}
	claims, err := jm.Parse(parts[1])
	if err != nil {
		return nil, apperr.Unauthorized("invalid_token", "invalid token", err)
	}
	return claims, nil
}

func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFromCtx(r)
			if claims == nil || claims.Role != role {
				errorResponse(w, apperr.Forbidden("forbidden", "insufficient permissions", nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func claimsFromCtx(r *http.Request) *jwtpkg.Claims {
	c, _ := r.Context().Value(ctxKeyClaims).(*jwtpkg.Claims)
	return c
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Expose-Headers", "Retry-After")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(rw, r)

		status := rw.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		metrics.IncRequest(r.Method, route, status)

		slogLogger.Info("request",
			"method", r.Method,
			"path", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

// clientIP reads the socket address. chimw.RealIP runs first and rewrites it
// from True-Client-IP, X-Real-IP or X-Forwarded-For, so those headers must
// only be set by a trusted proxy in front of the service.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
