package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abacus-app/abacus/internal/cache"
	"github.com/abacus-app/abacus/internal/metrics"
	"github.com/abacus-app/abacus/internal/model"
	"github.com/abacus-app/abacus/internal/repository"
)

// ErrFederatedPending is returned by PollFederated while consent is outstanding.
var ErrFederatedPending = errors.New("federated sign-in pending")

// User-facing auth messages.
const (
	msgEmailInUse        = "The email address is already in use by another account."
	msgWeakPassword      = "Password should be at least 6 characters."
	msgInvalidEmail      = "The email address is badly formatted."
	msgInvalidCredential = "Invalid email or password."
	msgUnauthenticated   = "Sign-in required."
	msgFederatedFailed   = "Federated sign-in failed."
	msgFederatedReplay   = "This sign-in attempt was already completed."
	msgFederatedDisabled = "Federated sign-in is not configured."
)

// UserStore persists users, profiles and linked identities.
type UserStore interface {
	CreateUserWithProfile(ctx context.Context, user *model.User, profile *model.Profile, identity *model.Identity) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByIdentity(ctx context.Context, provider, subject string) (*model.User, error)
	AddIdentity(ctx context.Context, identity *model.Identity) error
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	CreateProfileIfAbsent(ctx context.Context, profile *model.Profile) (bool, error)
}

// SessionStore persists sessions keyed by token hash.
type SessionStore interface {
	SaveSession(ctx context.Context, tokenHash string, s *model.Session) error
	GetSession(ctx context.Context, tokenHash string) (*model.Session, error)
	DeleteSession(ctx context.Context, tokenHash string) error
}

// FlowStore tracks federated flows between the callback and the poller.
type FlowStore interface {
	ClaimOAuthState(ctx context.Context, stateID string, ttl time.Duration) (bool, error)
	PutFederatedResult(ctx context.Context, stateID string, result *cache.FederatedResult, ttl time.Duration) error
	TakeFederatedResult(ctx context.Context, stateID string) (*cache.FederatedResult, error)
}

// Config holds Service settings.
type Config struct {
	SessionTTL time.Duration
}

// SignUpInput defines input for a credential sign-up.
type SignUpInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// SignInResult is an issued session and the principal it belongs to.
type SignInResult struct {
	Token     string
	Session   *model.Session
	Principal *model.Principal
}

// FederatedStart is the first leg of a consent flow.
type FederatedStart struct {
	URL       string
	State     string
	ExpiresAt time.Time
}

// Service handles the identity lifecycle.
type Service struct {
	users    UserStore
	sessions SessionStore
	cfg      Config
	logger   *slog.Logger
	metrics  metrics.Recorder
	now      func() time.Time

	provider OAuthProvider
	states   *StateSigner
	flows    FlowStore
}

// Option configures a Service.
type Option func(*Service)

// WithFederated enables federated sign-in through provider.
func WithFederated(provider OAuthProvider, states *StateSigner, flows FlowStore) Option {
	return func(s *Service) {
		s.provider = provider
		s.states = states
		s.flows = flows
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(rec metrics.Recorder) Option {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service.
func NewService(users UserStore, sessions SessionStore, cfg Config, logger *slog.Logger, opts ...Option) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	s := &Service{
		users:    users,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics.NewNoop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignUp creates a password account with its profile and signs it in.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*SignInResult, error) {
	res, err := s.signUp(ctx, in)
	s.metrics.IncSignUp(outcome(err))
	return res, err
}

func (s *Service) signUp(ctx context.Context, in SignUpInput) (*SignInResult, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(in.Password) < model.MinPasswordLength {
		return nil, model.NewAuthError(model.AuthCodeWeakPassword, msgWeakPassword)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           NewID(),
		Email:        email,
		DisplayName:  model.DisplayNameFor(in.FirstName, in.LastName),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile := &model.Profile{
		UserID:    user.ID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     email,
	}
	identity := &model.Identity{
		ID:        NewID(),
		UserID:    user.ID,
		Provider:  model.ProviderPassword,
		Subject:   user.ID,
		CreatedAt: now,
	}

	if err := s.users.CreateUserWithProfile(ctx, user, profile, identity); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, model.NewAuthError(model.AuthCodeEmailInUse, msgEmailInUse)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user signed up", slog.String("user_id", user.ID))
	return s.issue(ctx, user, profile, model.ProviderPassword)
}

// SignIn verifies email and password and issues a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	res, err := s.signIn(ctx, email, password)
	s.metrics.IncSignIn(model.ProviderPassword, outcome(err))
	return res, err
}

func (s *Service) signIn(ctx context.Context, email, password string) (*SignInResult, error) {
	invalid := model.NewAuthError(model.AuthCodeInvalidCredential, msgInvalidCredential)

	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			verifyOrBurn(password, "")
			return nil, invalid
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !verifyOrBurn(password, user.PasswordHash) {
		return nil, invalid
	}

	return s.issue(ctx, user, nil, model.ProviderPassword)
}

// SignOut ends the session identified by token. Unknown tokens are ignored.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, QuickHash(token)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Authenticate resolves a session token to its principal.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.Session, *model.Principal, error) {
	unauthenticated := model.NewAuthError(model.AuthCodeUnauthenticated, msgUnauthenticated)
	if !ValidateTokenFormat(token) {
		return nil, nil, unauthenticated
	}

	key := QuickHash(token)
	sess, err := s.sessions.GetSession(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil {
		return nil, nil, unauthenticated
	}
	if !sess.ExpiresAt.IsZero() && s.now().After(sess.ExpiresAt) {
		_ = s.sessions.DeleteSession(ctx, key)
		return nil, nil, unauthenticated
	}

	principal, err := s.Principal(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, unauthenticated
		}
		return nil, nil, err
	}

	sess.Token = token
	return sess, principal, nil
}

// Principal loads the user and profile behind userID.
func (s *Service) Principal(ctx context.Context, userID string) (*model.Principal, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.users.GetProfile(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrProfileNotFound) {
		return nil, err
	}
	return principalOf(user, profile), nil
}

// GetProfile returns the profile record of userID.
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	return s.users.GetProfile(ctx, userID)
}

// ProvisionProfile writes profile for userID unless one exists, and returns
// the stored profile.
func (s *Service) ProvisionProfile(ctx context.Context, userID string, profile model.Profile) (*model.Profile, bool, error) {
	profile.UserID = userID
	created, err := s.users.CreateProfileIfAbsent(ctx, &profile)
	if err != nil {
		return nil, false, err
	}
	stored, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

// FederatedEnabled reports whether a provider is configured.
func (s *Service) FederatedEnabled() bool {
	return s.provider != nil
}

// StartFederated begins a consent flow.
func (s *Service) StartFederated(ctx context.Context) (*FederatedStart, error) {
	if !s.FederatedEnabled() {
		return nil, model.NewAuthError(model.AuthCodeFederatedDisabled, msgFederatedDisabled)
	}

	signed, fs, err := s.states.Issue()
	if err != nil {
		return nil, err
	}

	return &FederatedStart{
		URL:       s.provider.AuthCodeURL(signed, fs.Nonce),
		State:     signed,
		ExpiresAt: fs.ExpiresAt,
	}, nil
}

// CompleteFederated finishes a consent flow: it verifies the state, provisions
// the account and profile on first sign-in, and issues a session. The outcome
// is also kept for PollFederated. Failures are logged and returned.
func (s *Service) CompleteFederated(ctx context.Context, signedState, code string) (*SignInResult, error) {
	if !s.FederatedEnabled() {
		return nil, model.NewAuthError(model.AuthCodeFederatedDisabled, msgFederatedDisabled)
	}

	fs, err := s.states.Verify(signedState)
	if err != nil {
		s.metrics.IncSignIn(s.provider.Name(), metrics.StatusRejected)
		s.logger.Warn("federated sign-in rejected", slog.String("reason", err.Error()))
		return nil, &model.AuthError{Code: model.AuthCodeFederatedFailed, Message: msgFederatedFailed, Err: err}
	}
	ttl := time.Until(fs.ExpiresAt)

	claimed, err := s.flows.ClaimOAuthState(ctx, fs.ID, ttl)
	if err != nil {
		return nil, fmt.Errorf("claim state: %w", err)
	}
	if !claimed {
		s.metrics.IncSignIn(s.provider.Name(), metrics.StatusRejected)
		return nil, model.NewAuthError(model.AuthCodeFederatedFailed, msgFederatedReplay)
	}

	res, err := s.completeFederated(ctx, fs, code)
	s.metrics.IncSignIn(s.provider.Name(), outcome(err))

	result := &cache.FederatedResult{}
	if err != nil {
		s.logger.Error("federated sign-in failed",
			slog.String("provider", s.provider.Name()),
			slog.String("error", err.Error()),
		)
		authErr := asFederatedError(err)
		result.ErrorCode, result.Message = authErr.Code, authErr.Message
		err = authErr
	} else {
		result.Token, result.ExpiresAt = res.Token, res.Session.ExpiresAt
	}

	if putErr := s.flows.PutFederatedResult(ctx, fs.ID, result, ttl); putErr != nil {
		s.logger.Warn("failed to store federated result", slog.String("error", putErr.Error()))
	}

	return res, err
}

func (s *Service) completeFederated(ctx context.Context, fs *FlowState, code string) (*SignInResult, error) {
	if code == "" {
		return nil, errors.New("missing authorization code")
	}

	fu, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	if fu.Nonce != fs.Nonce {
		return nil, errors.New("nonce mismatch")
	}
	if fu.Subject == "" {
		return nil, errors.New("provider returned no subject")
	}

	user, profile, err := s.provisionFederated(ctx, fu)
	if err != nil {
		return nil, err
	}

	return s.issue(ctx, user, profile, fu.Provider)
}

// provisionFederated finds or creates the account behind a provider identity
// and makes sure it has a profile.
func (s *Service) provisionFederated(ctx context.Context, fu *FederatedUser) (*model.User, *model.Profile, error) {
	firstName, lastName := model.SplitDisplayName(fu.Name)
	profile := &model.Profile{FirstName: firstName, LastName: lastName, Email: fu.Email}

	user, err := s.users.GetUserByIdentity(ctx, fu.Provider, fu.Subject)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrUserNotFound):
		user, err = s.linkOrCreate(ctx, fu, profile)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("find identity: %w", err)
	}

	stored, _, err := s.ProvisionProfile(ctx, user.ID, *profile)
	if err != nil {
		return nil, nil, fmt.Errorf("provision profile: %w", err)
	}
	return user, stored, nil
}

func (s *Service) linkOrCreate(ctx context.Context, fu *FederatedUser, profile *model.Profile) (*model.User, error) {
	now := s.now().UTC()
	identity := &model.Identity{
		ID:        NewID(),
		Provider:  fu.Provider,
		Subject:   fu.Subject,
		CreatedAt: now,
	}

	// A verified email that already has an account gets the identity linked.
	if fu.EmailVerified && fu.Email != "" {
		existing, err := s.users.GetUserByEmail(ctx, fu.Email)
		if err == nil {
			identity.UserID = existing.ID
			if err := s.users.AddIdentity(ctx, identity); err != nil && !errors.Is(err, repository.ErrIdentityExists) {
				return nil, fmt.Errorf("link identity: %w", err)
			}
			s.logger.Info("federated identity linked",
				slog.String("user_id", existing.ID),
				slog.String("provider", fu.Provider),
			)
			return existing, nil
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("get user: %w", err)
		}
	}

	user := &model.User{
		ID:          NewID(),
		Email:       fu.Email,
		DisplayName: fu.Name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	identity.UserID = user.ID
	profile.UserID = user.ID

	if err := s.users.CreateUserWithProfile(ctx, user, profile, identity); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, model.NewAuthError(model.AuthCodeEmailInUse, msgEmailInUse)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("federated user created",
		slog.String("user_id", user.ID),
		slog.String("provider", fu.Provider),
	)
	return user, nil
}

// PollFederated returns the outcome of the flow started with signedState.
// It returns ErrFederatedPending until the callback has run. The outcome
// can be taken once.
func (s *Service) PollFederated(ctx context.Context, signedState string) (*SignInResult, error) {
	if !s.FederatedEnabled() {
		return nil, model.NewAuthError(model.AuthCodeFederatedDisabled, msgFederatedDisabled)
	}

	fs, err := s.states.Verify(signedState)
	if err != nil {
		return nil, &model.AuthError{Code: model.AuthCodeFederatedFailed, Message: msgFederatedFailed, Err: err}
	}

	result, err := s.flows.TakeFederatedResult(ctx, fs.ID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrFederatedPending
	}
	if result.ErrorCode != "" {
		return nil, model.NewAuthError(result.ErrorCode, result.Message)
	}

	sess, principal, err := s.Authenticate(ctx, result.Token)
	if err != nil {
		return nil, err
	}
	return &SignInResult{Token: result.Token, Session: sess, Principal: principal}, nil
}

func (s *Service) issue(ctx context.Context, user *model.User, profile *model.Profile, provider string) (*SignInResult, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sess := &model.Session{
		Token:     token,
		UserID:    user.ID,
		Provider:  provider,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.SaveSession(ctx, QuickHash(token), sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	if profile == nil {
		profile, err = s.users.GetProfile(ctx, user.ID)
		if err != nil && !errors.Is(err, repository.ErrProfileNotFound) {
			return nil, fmt.Errorf("get profile: %w", err)
		}
	}

	return &SignInResult{Token: token, Session: sess, Principal: principalOf(user, profile)}, nil
}

func principalOf(user *model.User, profile *model.Profile) *model.Principal {
	p := &model.Principal{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}
	if profile != nil {
		p.FirstName = profile.FirstName
		p.LastName = profile.LastName
	}
	return p
}

func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", model.NewAuthError(model.AuthCodeInvalidEmail, msgInvalidEmail)
	}
	return email, nil
}

// asFederatedError keeps AuthErrors as they are and wraps anything else.
func asFederatedError(err error) *model.AuthError {
	var authErr *model.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	return &model.AuthError{Code: model.AuthCodeFederatedFailed, Message: msgFederatedFailed, Err: err}
}

func outcome(err error) string {
	var authErr *model.AuthError
	switch {
	case err == nil:
		return metrics.StatusSuccess
	case errors.As(err, &authErr):
		return metrics.StatusRejected
	default:
		return metrics.StatusError
	}
}
