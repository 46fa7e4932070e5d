package guard

import (
	"errors"

	"github.com/abacus-app/abacus/internal/session"
)

// ErrUnknownRoute is returned by Resolve for a path outside the route table.
var ErrUnknownRoute = errors.New("unknown route")

// Route is one entry of the route table.
type Route struct {
	Path  string
	Name  string
	Guard Guard
}

// Routes is the route table.
var Routes = []Route{
	{Path: "/login", Name: "login", Guard: RequireSignedOut},
	{Path: "/signup", Name: "signup", Guard: RequireSignedOut},
	{Path: "/", Name: "calculator", Guard: RequireSignedIn},
	{Path: "/history", Name: "history", Guard: RequireSignedIn},
	{Path: "/userinfo", Name: "userinfo", Guard: RequireSignedIn},
}

// Lookup returns the route registered for path.
func Lookup(path string) (Route, bool) {
	for _, r := range Routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Resolve applies the guard of path to s.
func Resolve(path string, s session.State) (Decision, error) {
	r, ok := Lookup(path)
	if !ok {
		return Decision{}, ErrUnknownRoute
	}
	return r.Guard(s), nil
}
