// Package guard decides whether a route renders, redirects or waits based
// on the authentication state.
package guard

import (
	"github.com/abacus-app/abacus/internal/session"
)

// Action is the outcome of a guard.
type Action int

// Actions.
const (
	// Defer withholds rendering until the state is resolved.
	Defer Action = iota
	Render
	Redirect
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return "defer"
	}
}

// Well-known locations.
const (
	SignInPath  = "/login"
	DefaultPath = "/"
)

// Decision is a guard verdict. Location is set only for Redirect.
type Decision struct {
	Action   Action
	Location string
}

// Guard maps a state to a decision.
type Guard func(session.State) Decision

// RequireSignedIn renders for a signed-in identity and redirects to the
// sign-in view otherwise.
func RequireSignedIn(s session.State) Decision {
	switch {
	case !s.Resolved:
		return Decision{Action: Defer}
	case s.IsSignedIn():
		return Decision{Action: Render}
	default:
		return Decision{Action: Redirect, Location: SignInPath}
	}
}

// RequireSignedOut is the inverse of RequireSignedIn: a signed-in identity is
// sent to the default view.
func RequireSignedOut(s session.State) Decision {
	switch {
	case !s.Resolved:
		return Decision{Action: Defer}
	case s.IsSignedIn():
		return Decision{Action: Redirect, Location: DefaultPath}
	default:
		return Decision{Action: Render}
	}
}
