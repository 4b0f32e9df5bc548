package http

import (
	"context"

	"momo-proxy-backend/internal/security"
)

type contextKey int

const (
	claimsKey contextKey = iota
	requestIDKey
)

func withClaims(ctx context.Context, claims *security.PartnerClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the validated token claims of the caller, or nil
// on public and ingest routes.
func ClaimsFromContext(ctx context.Context) *security.PartnerClaims {
	claims, _ := ctx.Value(claimsKey).(*security.PartnerClaims)
	return claims
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
