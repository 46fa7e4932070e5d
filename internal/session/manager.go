package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/abacus-app/abacus/internal/model"
)

// Manager owns the authentication state and notifies subscribers of every
// transition. The zero value is not usable; call New.
type Manager struct {
	upstream Upstream
	logger   *slog.Logger

	// deliver serializes transitions so subscribers see them in order.
	deliver sync.Mutex

	mu          sync.Mutex
	state       State
	subscribers []subscriber
	nextID      int
	resolved    chan struct{}
	stop        func()
}

type subscriber struct {
	id int
	fn func(State)
}

// New creates a Manager in the Unresolved state.
func New(upstream Upstream, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		upstream: upstream,
		logger:   logger,
		state:    Unresolved(),
		resolved: make(chan struct{}),
	}
}

// Start begins listening for upstream notifications. The context is used for
// the profile calls triggered by notifications.
func (m *Manager) Start(ctx context.Context) error {
	stop, err := m.upstream.Watch(ctx, func(cred *Credential) {
		m.handleNotification(ctx, cred)
	})
	if err != nil {
		return fmt.Errorf("watch upstream: %w", err)
	}

	m.mu.Lock()
	m.stop = stop
	m.mu.Unlock()
	return nil
}

// Close stops listening for notifications.
func (m *Manager) Close() {
	m.mu.Lock()
	stop := m.stop
	m.stop = nil
	m.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// WaitResolved blocks until the first notification has been handled.
func (m *Manager) WaitResolved(ctx context.Context) (State, error) {
	select {
	case <-m.resolved:
		return m.State(), nil
	case <-ctx.Done():
		return m.State(), ctx.Err()
	}
}

// Subscribe registers fn for state transitions. fn is called synchronously,
// once right away when the state is already resolved, and then on every
// transition. The returned function unsubscribes. fn must not start a
// transition itself.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	m.deliver.Lock()
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.subscribers = append(m.subscribers, subscriber{id: id, fn: fn})
	current := m.state
	m.mu.Unlock()

	if current.Resolved {
		fn(current)
	}
	m.deliver.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, s := range m.subscribers {
				if s.id == id {
					m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

// SignUp validates the form, creates the credential with display name
// "first last", writes the profile record and signs the new identity in.
// Validation failures are *ValidationError and happen before any remote
// call; upstream rejections are *model.AuthError. The state is unchanged on
// error. The profile write is best effort once the credential exists.
func (m *Manager) SignUp(ctx context.Context, email, password, firstName, lastName string) error {
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" ||
		strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return &ValidationError{Message: MsgFieldsRequired}
	}
	if utf8.RuneCountInString(password) < model.MinPasswordLength {
		return &ValidationError{Message: MsgPasswordLength}
	}

	cred, err := m.upstream.SignUp(ctx, SignUpRequest{
		Email:       email,
		Password:    password,
		FirstName:   firstName,
		LastName:    lastName,
		DisplayName: model.DisplayNameFor(firstName, lastName),
	})
	if err != nil {
		return err
	}

	// The credential is live from here on; a failed profile write does not
	// undo the sign-in.
	profile := model.Profile{FirstName: firstName, LastName: lastName, Email: email}
	if err := m.upstream.PutProfile(ctx, cred.UserID, profile); err != nil {
		m.logger.Warn("profile write failed after sign-up",
			slog.String("user_id", cred.UserID),
			slog.String("error", err.Error()),
		)
	}

	m.transition(SignedIn(principalOf(cred, &profile)))
	return nil
}

// SignIn checks the credentials upstream. The state changes with the
// notification that follows a successful sign-in.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	return m.upstream.SignIn(ctx, email, password)
}

// FederatedSignIn runs the consent flow and provisions a profile on first
// sign-in. Failures are logged and returned as *model.AuthError; the state
// is unchanged on error.
func (m *Manager) FederatedSignIn(ctx context.Context) error {
	cred, err := m.upstream.FederatedSignIn(ctx)
	if err == nil {
		var identity *model.Principal
		identity, err = m.ensureProfile(ctx, cred)
		if err == nil {
			m.transition(SignedIn(identity))
			return nil
		}
	}

	m.logger.Error("federated sign-in failed", slog.String("error", err.Error()))
	return asAuthError(err)
}

// SignOut requests an upstream sign-out. The state changes with the
// notification that follows.
func (m *Manager) SignOut(ctx context.Context) error {
	return m.upstream.SignOut(ctx)
}

func (m *Manager) handleNotification(ctx context.Context, cred *Credential) {
	if cred == nil {
		m.transition(SignedOut())
		return
	}

	identity, err := m.ensureProfile(ctx, cred)
	if err != nil {
		m.logger.Error("profile lookup failed",
			slog.String("user_id", cred.UserID),
			slog.String("error", err.Error()),
		)
		identity = principalOf(cred, nil)
	}
	m.transition(SignedIn(identity))
}

// ensureProfile fetches the profile of cred, provisioning it from the
// display name when absent.
func (m *Manager) ensureProfile(ctx context.Context, cred *Credential) (*model.Principal, error) {
	profile, err := m.upstream.GetProfile(ctx, cred.UserID)
	if err == nil {
		return principalOf(cred, profile), nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	first, last := model.SplitDisplayName(cred.DisplayName)
	provisioned := model.Profile{FirstName: first, LastName: last, Email: cred.Email}
	if err := m.upstream.PutProfile(ctx, cred.UserID, provisioned); err != nil {
		return nil, fmt.Errorf("provision profile: %w", err)
	}
	m.logger.Info("profile provisioned", slog.String("user_id", cred.UserID))
	return principalOf(cred, &provisioned), nil
}

func (m *Manager) transition(next State) {
	m.deliver.Lock()
	defer m.deliver.Unlock()

	m.mu.Lock()
	m.state = next
	select {
	case <-m.resolved:
	default:
		close(m.resolved)
	}
	subs := make([]subscriber, len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()

	m.logger.Debug("session state changed",
		slog.String("status", next.Status.String()),
		slog.String("user_id", next.UserID()),
	)

	for _, s := range subs {
		s.fn(next)
	}
}

func principalOf(cred *Credential, profile *model.Profile) *model.Principal {
	p := &model.Principal{
		UserID:      cred.UserID,
		Email:       cred.Email,
		DisplayName: cred.DisplayName,
	}
	if profile != nil {
		p.FirstName = profile.FirstName
		p.LastName = profile.LastName
	}
	return p
}
