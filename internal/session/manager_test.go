package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/abacus-app/abacus/internal/model"
)

type fakeUpstream struct {
	mu       sync.Mutex
	notify   func(*Credential)
	profiles map[string]model.Profile
	accounts map[string]*Credential // by email
	calls    []string

	signUpErr     error
	putProfileErr error
	federated     *Credential
	federatedErr  error
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		profiles: make(map[string]model.Profile),
		accounts: make(map[string]*Credential),
	}
}

func (f *fakeUpstream) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeUpstream) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeUpstream) emit(cred *Credential) {
	f.mu.Lock()
	notify := f.notify
	f.mu.Unlock()
	if notify != nil {
		notify(cred)
	}
}

func (f *fakeUpstream) Watch(_ context.Context, notify func(*Credential)) (func(), error) {
	f.record("watch")
	f.mu.Lock()
	f.notify = notify
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.notify = nil
		f.mu.Unlock()
	}, nil
}

func (f *fakeUpstream) SignUp(_ context.Context, req SignUpRequest) (*Credential, error) {
	f.record("signup")
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	cred := &Credential{UserID: "u-" + req.Email, Email: req.Email, DisplayName: req.DisplayName}
	f.mu.Lock()
	f.accounts[req.Email] = cred
	f.mu.Unlock()
	return cred, nil
}

func (f *fakeUpstream) SignIn(_ context.Context, email, password string) error {
	f.record("signin")
	f.mu.Lock()
	cred, ok := f.accounts[email]
	f.mu.Unlock()
	if !ok || password != "secret1" {
		return model.NewAuthError(model.AuthCodeInvalidCredential, "Invalid email or password.")
	}
	f.emit(cred)
	return nil
}

func (f *fakeUpstream) FederatedSignIn(context.Context) (*Credential, error) {
	f.record("federated")
	return f.federated, f.federatedErr
}

func (f *fakeUpstream) SignOut(context.Context) error {
	f.record("signout")
	f.emit(nil)
	return nil
}

func (f *fakeUpstream) GetProfile(_ context.Context, userID string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &p, nil
}

func (f *fakeUpstream) PutProfile(_ context.Context, userID string, profile model.Profile) error {
	f.record("putprofile")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putProfileErr != nil {
		return f.putProfileErr
	}
	if _, ok := f.profiles[userID]; !ok {
		f.profiles[userID] = profile
	}
	return nil
}

func newTestManager(t *testing.T, up *fakeUpstream) *Manager {
	t.Helper()
	m := New(up, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func TestManager_StartsUnresolved(t *testing.T) {
	m := newTestManager(t, newFakeUpstream())

	if got := m.State(); got.Status != StatusUnresolved || got.Resolved {
		t.Fatalf("expected unresolved state, got %+v", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := m.WaitResolved(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	called := false
	m.Subscribe(func(State) { called = true })
	if called {
		t.Error("subscriber should not be invoked before resolution")
	}
}

func TestManager_NotificationWithoutCredential(t *testing.T) {
	up := newFakeUpstream()
	m := newTestManager(t, up)

	var seen []State
	m.Subscribe(func(s State) { seen = append(seen, s) })

	up.emit(nil)

	state, err := m.WaitResolved(context.Background())
	if err != nil {
		t.Fatalf("WaitResolved failed: %v", err)
	}
	if diff := cmp.Diff(SignedOut(), state); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
	if len(seen) != 1 || seen[0].Status != StatusSignedOut {
		t.Errorf("expected one signed-out delivery, got %+v", seen)
	}
}

func TestManager_NotificationLoadsProfile(t *testing.T) {
	up := newFakeUpstream()
	up.profiles["u1"] = model.Profile{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	m := newTestManager(t, up)

	up.emit(&Credential{UserID: "u1", Email: "ada@example.com", DisplayName: "Ada Lovelace"})

	want := SignedIn(&model.Principal{
		UserID:      "u1",
		Email:       "ada@example.com",
		DisplayName: "Ada Lovelace",
		FirstName:   "Ada",
		LastName:    "Lovelace",
	})
	if diff := cmp.Diff(want, m.State()); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
	for _, call := range up.Calls() {
		if call == "putprofile" {
			t.Error("existing profile should not be rewritten")
		}
	}
}

func TestManager_NotificationProvisionsMissingProfile(t *testing.T) {
	up := newFakeUpstream()
	m := newTestManager(t, up)

	up.emit(&Credential{UserID: "u2", Email: "cher@example.com", DisplayName: "Cher"})

	want := model.Profile{FirstName: "Cher", LastName: "", Email: "cher@example.com"}
	if diff := cmp.Diff(want, up.profiles["u2"]); diff != "" {
		t.Errorf("provisioned profile mismatch (-want +got):\n%s", diff)
	}
	if !m.State().IsSignedIn() {
		t.Errorf("expected signed in, got %+v", m.State())
	}
}

func TestManager_SignUpValidation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		first    string
		last     string
		wantMsg  string
	}{
		{"missing_first", "a@example.com", "secret1", "", "Doe", MsgFieldsRequired},
		{"blank_last", "a@example.com", "secret1", "Jane", "   ", MsgFieldsRequired},
		{"missing_email", "", "secret1", "Jane", "Doe", MsgFieldsRequired},
		{"missing_password", "a@example.com", "", "Jane", "Doe", MsgFieldsRequired},
		{"short_password", "a@example.com", "12345", "Jane", "Doe", MsgPasswordLength},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			up := newFakeUpstream()
			m := newTestManager(t, up)

			err := m.SignUp(context.Background(), test.email, test.password, test.first, test.last)

			var vErr *ValidationError
			if !errors.As(err, &vErr) || vErr.Message != test.wantMsg {
				t.Fatalf("expected validation error %q, got %v", test.wantMsg, err)
			}
			if diff := cmp.Diff([]string{"watch"}, up.Calls()); diff != "" {
				t.Errorf("no remote call expected (-want +got):\n%s", diff)
			}
		})
	}
}

func TestManager_SignUp(t *testing.T) {
	up := newFakeUpstream()
	m := newTestManager(t, up)
	up.emit(nil)

	var seen []Status
	m.Subscribe(func(s State) { seen = append(seen, s.Status) })

	if err := m.SignUp(context.Background(), "jane@example.com", "secret1", "Jane", "Doe"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	state := m.State()
	if !state.IsSignedIn() || state.Identity.DisplayName != "Jane Doe" {
		t.Fatalf("expected signed in as Jane Doe, got %+v", state)
	}
	wantProfile := model.Profile{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}
	if diff := cmp.Diff(wantProfile, up.profiles[state.Identity.UserID]); diff != "" {
		t.Errorf("profile mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Status{StatusSignedOut, StatusSignedIn}, seen); diff != "" {
		t.Errorf("deliveries mismatch (-want +got):\n%s", diff)
	}
}

func TestManager_SignUpProfileWriteFails(t *testing.T) {
	up := newFakeUpstream()
	up.putProfileErr = errors.New("profile store unavailable")
	m := newTestManager(t, up)
	up.emit(nil)

	if err := m.SignUp(context.Background(), "jane@example.com", "secret1", "Jane", "Doe"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	// The credential already exists upstream, so the session must follow it.
	state := m.State()
	if !state.IsSignedIn() || state.Identity.UserID != "u-jane@example.com" {
		t.Fatalf("expected signed in after credential creation, got %+v", state)
	}
	if state.Identity.FirstName != "Jane" || state.Identity.LastName != "Doe" {
		t.Errorf("identity names = %q %q, want Jane Doe", state.Identity.FirstName, state.Identity.LastName)
	}
}

func TestManager_SubscribeConcurrentWithTransition(t *testing.T) {
	cred := &Credential{UserID: "u1", Email: "ada@example.com", DisplayName: "Ada Lovelace"}

	for i := 0; i < 200; i++ {
		up := newFakeUpstream()
		up.profiles["u1"] = model.Profile{FirstName: "Ada", LastName: "Lovelace"}
		m := newTestManager(t, up)
		up.emit(nil)

		var (
			mu   sync.Mutex
			last State
		)
		done := make(chan struct{})
		go func() {
			defer close(done)
			up.emit(cred)
		}()
		m.Subscribe(func(s State) {
			mu.Lock()
			last = s
			mu.Unlock()
		})
		<-done

		mu.Lock()
		got := last
		mu.Unlock()
		if diff := cmp.Diff(m.State(), got); diff != "" {
			t.Fatalf("iteration %d: subscriber holds a stale state (-want +got):\n%s", i, diff)
		}
	}
}

func TestManager_SignUpRejectedLeavesState(t *testing.T) {
	up := newFakeUpstream()
	up.signUpErr = model.NewAuthError(model.AuthCodeEmailInUse, "The email address is already in use by another account.")
	m := newTestManager(t, up)
	up.emit(nil)

	err := m.SignUp(context.Background(), "jane@example.com", "secret1", "Jane", "Doe")

	var authErr *model.AuthError
	if !errors.As(err, &authErr) || authErr.Code != model.AuthCodeEmailInUse {
		t.Fatalf("expected email-in-use, got %v", err)
	}
	if m.State().Status != StatusSignedOut {
		t.Errorf("state should be unchanged, got %+v", m.State())
	}
}

func TestManager_SignInAndSignOutFollowNotifications(t *testing.T) {
	up := newFakeUpstream()
	up.accounts["ada@example.com"] = &Credential{UserID: "u1", Email: "ada@example.com", DisplayName: "Ada Lovelace"}
	m := newTestManager(t, up)
	up.emit(nil)

	err := m.SignIn(context.Background(), "ada@example.com", "wrong")
	var authErr *model.AuthError
	if !errors.As(err, &authErr) || authErr.Code != model.AuthCodeInvalidCredential {
		t.Fatalf("expected invalid credential, got %v", err)
	}
	if m.State().Status != StatusSignedOut {
		t.Fatalf("state should be unchanged, got %+v", m.State())
	}

	if err := m.SignIn(context.Background(), "ada@example.com", "secret1"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if got := m.State().UserID(); got != "u1" {
		t.Fatalf("expected u1 signed in, got %q", got)
	}

	if err := m.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	if m.State().Status != StatusSignedOut {
		t.Errorf("expected signed out, got %+v", m.State())
	}
}

func TestManager_FederatedSignIn(t *testing.T) {
	up := newFakeUpstream()
	up.federated = &Credential{UserID: "g1", Email: "grace@example.com", DisplayName: "Grace Hopper"}
	m := newTestManager(t, up)
	up.emit(nil)

	if err := m.FederatedSignIn(context.Background()); err != nil {
		t.Fatalf("FederatedSignIn failed: %v", err)
	}

	want := model.Profile{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"}
	if diff := cmp.Diff(want, up.profiles["g1"]); diff != "" {
		t.Errorf("profile mismatch (-want +got):\n%s", diff)
	}
	if m.State().UserID() != "g1" {
		t.Errorf("expected g1 signed in, got %+v", m.State())
	}
}

func TestManager_FederatedSignInFailureIsReturned(t *testing.T) {
	up := newFakeUpstream()
	up.federatedErr = errors.New("popup closed")
	m := newTestManager(t, up)
	up.emit(nil)

	err := m.FederatedSignIn(context.Background())

	var authErr *model.AuthError
	if !errors.As(err, &authErr) || authErr.Code != model.AuthCodeFederatedFailed {
		t.Fatalf("expected federated-failed, got %v", err)
	}
	if !errors.Is(err, up.federatedErr) {
		t.Error("expected the cause to be wrapped")
	}
	if m.State().Status != StatusSignedOut {
		t.Errorf("state should be unchanged, got %+v", m.State())
	}
}

func TestManager_SubscribeImmediateAndUnsubscribe(t *testing.T) {
	up := newFakeUpstream()
	m := newTestManager(t, up)
	up.emit(nil)

	count := 0
	unsubscribe := m.Subscribe(func(State) { count++ })
	if count != 1 {
		t.Fatalf("expected immediate delivery, got %d", count)
	}

	unsubscribe()
	unsubscribe()
	up.emit(&Credential{UserID: "u1", Email: "a@example.com", DisplayName: "A B"})

	if count != 1 {
		t.Errorf("unsubscribed function was invoked, count=%d", count)
	}
}

func TestStatus_String(t *testing.T) {
	if StatusUnresolved.String() != "unresolved" || StatusSignedOut.String() != "signed_out" || StatusSignedIn.String() != "signed_in" {
		t.Error("unexpected status names")
	}
}
