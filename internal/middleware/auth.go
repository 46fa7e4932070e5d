package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/abacus-app/abacus/internal/auth"
	"github.com/abacus-app/abacus/internal/model"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "abacus_session"

// Authenticator resolves a session token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Session, *model.Principal, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger        *slog.Logger
	Authenticator Authenticator
}

// Authenticate resolves the session token of the request, if any, and
// attaches the principal to the context. Requests without a valid session
// continue anonymously; use RequireSession to reject them. A lookup that
// fails for any reason other than a rejected token ends the request with 503.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			_, principal, err := cfg.Authenticator.Authenticate(r.Context(), token)
			if err != nil {
				var authErr *model.AuthError
				if errors.As(err, &authErr) {
					cfg.Logger.Debug("session rejected",
						slog.String("reason", authErr.Code),
						slog.String("endpoint", r.Method+" "+r.URL.Path),
						slog.String("request_id", GetRequestID(r.Context())),
					)
					next.ServeHTTP(w, r)
					return
				}

				cfg.Logger.Error("session lookup failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusServiceUnavailable, "SESSION_BACKEND_UNAVAILABLE", "Session could not be verified, try again later")
				return
			}

			if sink := userIDSink(r.Context()); sink != nil {
				*sink = principal.UserID
			}
			ctx := auth.ContextWithPrincipal(r.Context(), principal, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests without a signed-in principal.
// Must be applied after Authenticate.
func RequireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.PrincipalFromContext(r.Context()) == nil {
				writeError(w, http.StatusUnauthorized, model.AuthCodeUnauthenticated, "Sign-in required.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionToken extracts the session token from the request.
// "Authorization: Bearer <token>" wins over the session cookie.
func SessionToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
