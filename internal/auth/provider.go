package auth

import "context"

// FederatedUser is the identity asserted by an external provider.
type FederatedUser struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Nonce         string
}

// OAuthProvider runs the provider side of a consent flow.
type OAuthProvider interface {
	// Name is the provider id stored with linked identities.
	Name() string
	// AuthCodeURL returns the consent URL for state and nonce.
	AuthCodeURL(state, nonce string) string
	// Exchange trades an authorization code for the asserted identity.
	Exchange(ctx context.Context, code string) (*FederatedUser, error)
}
