package auth

import (
	"context"

	"github.com/abacus-app/abacus/internal/model"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
	tokenContextKey     contextKey = "session_token"
)

// ContextWithPrincipal attaches the signed-in principal and its session token.
func ContextWithPrincipal(ctx context.Context, p *model.Principal, token string) context.Context {
	ctx = context.WithValue(ctx, principalContextKey, p)
	return context.WithValue(ctx, tokenContextKey, token)
}

// PrincipalFromContext returns the signed-in principal, or nil.
func PrincipalFromContext(ctx context.Context) *model.Principal {
	p, ok := ctx.Value(principalContextKey).(*model.Principal)
	if !ok {
		return nil
	}
	return p
}

// UserIDFromContext returns the signed-in user id, or "" when signed out.
func UserIDFromContext(ctx context.Context) string {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.UserID
	}
	return ""
}

// TokenFromContext returns the session token of the request, or "".
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}
