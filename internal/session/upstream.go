package session

import (
	"context"
	"errors"

	"github.com/abacus-app/abacus/internal/model"
)

// ErrProfileNotFound is returned by Upstream.GetProfile when the user has no
// profile record yet.
var ErrProfileNotFound = errors.New("profile not found")

// Credential identifies the account behind an upstream notification.
type Credential struct {
	UserID      string
	Email       string
	DisplayName string
}

// SignUpRequest is the payload of a credential sign-up. DisplayName is the
// joined form of FirstName and LastName.
type SignUpRequest struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	DisplayName string
}

// Upstream is the remote identity service.
//
// Watch registers notify for authentication changes. The first call of
// notify reports the restored session (nil when there is none); later
// calls follow sign-in and sign-out. notify may be called from any
// goroutine. The returned stop function unregisters it.
type Upstream interface {
	Watch(ctx context.Context, notify func(*Credential)) (stop func(), err error)
	SignUp(ctx context.Context, req SignUpRequest) (*Credential, error)
	SignIn(ctx context.Context, email, password string) error
	FederatedSignIn(ctx context.Context) (*Credential, error)
	SignOut(ctx context.Context) error
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	PutProfile(ctx context.Context, userID string, profile model.Profile) error
}
