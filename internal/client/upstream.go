package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/abacus-app/abacus/internal/handler/dto"
	"github.com/abacus-app/abacus/internal/model"
	"github.com/abacus-app/abacus/internal/session"
)

// Watch registers notify and reports the restored session right away: the
// identity behind the stored token, or nil. Later calls follow SignIn and
// SignOut on this Client.
func (c *Client) Watch(ctx context.Context, notify func(*session.Credential)) (func(), error) {
	cred, err := c.restore(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.watchers[id] = notify
	c.mu.Unlock()

	notify(cred)

	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}, nil
}

// restore resolves the stored token. A token the server no longer accepts
// is discarded.
func (c *Client) restore(ctx context.Context) (*session.Credential, error) {
	if !c.SignedIn() {
		return nil, nil
	}

	var resp dto.StateResponse
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/auth/state", nil, &resp); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if resp.Identity == nil {
		if err := c.tokens.Clear(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return credentialOf(resp.Identity), nil
}

func (c *Client) emit(cred *session.Credential) {
	c.mu.Lock()
	watchers := make([]func(*session.Credential), 0, len(c.watchers))
	for _, w := range c.watchers {
		watchers = append(watchers, w)
	}
	c.mu.Unlock()

	for _, notify := range watchers {
		notify(cred)
	}
}

// SignUp creates an account and stores its session. Watchers are not
// notified; the caller drives the transition.
func (c *Client) SignUp(ctx context.Context, req session.SignUpRequest) (*session.Credential, error) {
	var resp dto.SessionResponse
	_, err := c.do(ctx, http.MethodPost, "/api/v1/auth/signup", dto.SignUpRequest{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if err := c.tokens.Save(resp.Token); err != nil {
		return nil, err
	}
	return credentialOf(resp.Identity), nil
}

// SignIn checks credentials, stores the session and notifies watchers.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	var resp dto.SessionResponse
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{
		Email:    email,
		Password: password,
	}, &resp); err != nil {
		return err
	}
	if err := c.tokens.Save(resp.Token); err != nil {
		return err
	}

	c.emit(credentialOf(resp.Identity))
	return nil
}

// SignOut ends the session on the server, forgets the token and notifies
// watchers. The local token is dropped even when the server call fails.
func (c *Client) SignOut(ctx context.Context) error {
	var remoteErr error
	if c.SignedIn() {
		_, remoteErr = c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
		var authErr *model.AuthError
		if errors.As(remoteErr, &authErr) {
			// The server already forgot the session.
			remoteErr = nil
		}
	}

	if err := c.tokens.Clear(); err != nil {
		return err
	}
	c.emit(nil)
	return remoteErr
}

// FederatedSignIn opens the consent URL and polls until the server reports
// the outcome or the flow expires. Watchers are not notified; the caller
// drives the transition.
func (c *Client) FederatedSignIn(ctx context.Context) (*session.Credential, error) {
	var start dto.FederatedStartResponse
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/auth/google/start", nil, &start); err != nil {
		return nil, err
	}

	if err := c.openURL(start.URL); err != nil {
		c.logger.Warn("could not open browser", slog.String("error", err.Error()))
	}

	deadline := start.ExpiresAt
	if deadline.IsZero() {
		deadline = time.Now().Add(defaultFlowTTL)
	}
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	path := "/api/v1/auth/google/poll?state=" + url.QueryEscape(start.State)
	for {
		var resp dto.SessionResponse
		status, err := c.do(ctx, http.MethodGet, path, nil, &resp)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, model.NewAuthError(model.AuthCodeFederatedFailed, "Sign-in timed out.")
			}
			return nil, err
		}
		if status == http.StatusOK {
			if err := c.tokens.Save(resp.Token); err != nil {
				return nil, err
			}
			return credentialOf(resp.Identity), nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, model.NewAuthError(model.AuthCodeFederatedFailed, "Sign-in timed out.")
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// GetProfile returns the profile of the signed-in user. The server derives
// the user from the session, so userID must be the signed-in user.
func (c *Client) GetProfile(ctx context.Context, _ string) (*model.Profile, error) {
	var profile model.Profile
	_, err := c.do(ctx, http.MethodGet, "/api/v1/profile", nil, &profile)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return nil, session.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// PutProfile provisions the profile of the signed-in user if absent.
func (c *Client) PutProfile(ctx context.Context, _ string, profile model.Profile) error {
	_, err := c.do(ctx, http.MethodPut, "/api/v1/profile", dto.ProfileRequest{
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Email:     profile.Email,
	}, nil)
	return err
}

func credentialOf(p *model.Principal) *session.Credential {
	if p == nil {
		return nil
	}
	return &session.Credential{
		UserID:      p.UserID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
	}
}
