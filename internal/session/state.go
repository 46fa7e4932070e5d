// Package session holds the process-wide authentication state of a client
// and drives the identity lifecycle against an Upstream.
package session

import "github.com/abacus-app/abacus/internal/model"

// Status is the authentication status of a State.
type Status int

// Statuses. Unresolved lasts until the first upstream notification.
const (
	StatusUnresolved Status = iota
	StatusSignedOut
	StatusSignedIn
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSignedOut:
		return "signed_out"
	case StatusSignedIn:
		return "signed_in"
	default:
		return "unresolved"
	}
}

// State is a snapshot of the authentication state.
// Identity is non-nil only when Status is StatusSignedIn.
type State struct {
	Status   Status
	Identity *model.Principal
	Resolved bool
}

// Unresolved returns the initial state.
func Unresolved() State {
	return State{Status: StatusUnresolved}
}

// SignedOut returns a resolved state with no identity.
func SignedOut() State {
	return State{Status: StatusSignedOut, Resolved: true}
}

// SignedIn returns a resolved state for identity.
func SignedIn(identity *model.Principal) State {
	return State{Status: StatusSignedIn, Identity: identity, Resolved: true}
}

// IsSignedIn reports whether an identity is signed in.
func (s State) IsSignedIn() bool {
	return s.Status == StatusSignedIn && s.Identity != nil
}

// UserID returns the signed-in user id, or "".
func (s State) UserID() string {
	if !s.IsSignedIn() {
		return ""
	}
	return s.Identity.UserID
}
