package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"momo-proxy-backend/internal/config"
	"momo-proxy-backend/internal/logger"
	"momo-proxy-backend/internal/metrics"
	"momo-proxy-backend/internal/security"
)

const (
	headerRequestID   = "X-Request-ID"
	headerIngestToken = "X-Ingest-Token"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil && route.GetName() != "" {
		return route.GetName()
	}
	return "unmatched"
}

// requestMiddleware tags the request with an id, then logs and measures it.
func requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))

		name := routeName(r)
		timer := prometheus.NewTimer(metrics.HTTPRequestDuration.WithLabelValues(r.Method, name))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		timer.ObserveDuration()
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, name, strconv.Itoa(rec.status)).Inc()
		if name != "metrics" && name != "healthz" {
			logger.Info("HTTP request",
				"request_id", id, "method", r.Method, "route", name,
				"status", rec.status, "duration_ms", time.Since(start).Milliseconds())
		}
	})
}

type authMiddleware struct {
	tokenManager security.TokenManager
	ingest       *security.IngestVerifier
}

func (a *authMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		level := config.GetSecurityLevel(routeName(r))

		switch level {
		case config.SecurityPublic:
			next.ServeHTTP(w, r)
			return
		case config.SecurityIngest:
			if err := a.ingest.Verify(r.Header.Get(headerIngestToken)); err != nil {
				respondError(w, http.StatusUnauthorized, "invalid ingest token")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "authorization token is not provided")
			return
		}
		claims, err := a.tokenManager.ValidateToken(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if level == config.SecurityOperator && !claims.HasRole(security.RoleOperator) {
			respondError(w, http.StatusForbidden, "operator role required")
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
