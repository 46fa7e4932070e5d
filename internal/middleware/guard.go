package middleware

import (
	"net/http"

	"github.com/abacus-app/abacus/internal/auth"
	"github.com/abacus-app/abacus/internal/guard"
	"github.com/abacus-app/abacus/internal/session"
)

// View gates a view route with g. The request state is resolved by the
// Authenticate middleware, so a server-side request is either signed in or
// signed out. Must be applied after Authenticate.
func View(g guard.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := g(RequestState(r))

			switch decision.Action {
			case guard.Render:
				next.ServeHTTP(w, r)
			case guard.Redirect:
				http.Redirect(w, r, decision.Location, http.StatusSeeOther)
			default:
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusServiceUnavailable, "SESSION_UNRESOLVED", "Session state is not resolved yet")
			}
		})
	}
}

// RequestState returns the session state of the request.
func RequestState(r *http.Request) session.State {
	if p := auth.PrincipalFromContext(r.Context()); p != nil {
		return session.SignedIn(p)
	}
	return session.SignedOut()
}
