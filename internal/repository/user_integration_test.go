//go:build integration

package repository

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/abacus-app/abacus/internal/model"
	"github.com/abacus-app/abacus/internal/testutil"
)

func TestIntegrationUserRepository_CreateUserWithProfile(t *testing.T) {
	ctx, repo, _ := newTestEnv(t)

	user, profile := testutil.NewTestUser(t, testutil.UniqueEmail("create"))
	if err := repo.CreateUserWithProfile(ctx, user, profile, nil); err != nil {
		t.Fatalf("CreateUserWithProfile failed: %v", err)
	}

	got, err := repo.GetUserByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if got.ID != user.ID || got.PasswordHash != user.PasswordHash {
		t.Errorf("user mismatch: got %+v", got)
	}

	p, err := repo.GetProfile(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if p.FirstName != "Ada" || p.LastName != "Lovelace" || p.Email != user.Email {
		t.Errorf("profile mismatch: got %+v", p)
	}
}

func TestIntegrationUserRepository_DuplicateEmailIgnoresCaseAndRollsBack(t *testing.T) {
	ctx, repo, _ := newTestEnv(t)

	email := testutil.UniqueEmail("dup")
	first, firstProfile := testutil.NewTestUser(t, email)
	if err := repo.CreateUserWithProfile(ctx, first, firstProfile, nil); err != nil {
		t.Fatalf("CreateUserWithProfile (first) failed: %v", err)
	}

	second, secondProfile := testutil.NewTestUser(t, email)
	second.Email = strings.ToUpper(email)
	err := repo.CreateUserWithProfile(ctx, second, secondProfile, nil)
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}

	if _, err := repo.GetProfile(ctx, second.ID); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("profile of rejected user should not exist, got %v", err)
	}
}

func TestIntegrationUserRepository_Identity(t *testing.T) {
	ctx, repo, _ := newTestEnv(t)

	user, profile := testutil.NewTestUser(t, testutil.UniqueEmail("fed"))
	user.PasswordHash = ""
	identity := &model.Identity{
		ID:        testutil.UniqueID("ident"),
		UserID:    user.ID,
		Provider:  model.ProviderGoogle,
		Subject:   "google-sub-1",
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.CreateUserWithProfile(ctx, user, profile, identity); err != nil {
		t.Fatalf("CreateUserWithProfile failed: %v", err)
	}

	got, err := repo.GetUserByIdentity(ctx, model.ProviderGoogle, "google-sub-1")
	if err != nil {
		t.Fatalf("GetUserByIdentity failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("GetUserByIdentity returned %q, want %q", got.ID, user.ID)
	}
	if got.PasswordHash != "" {
		t.Errorf("federated user should have no password hash")
	}

	dup := *identity
	dup.ID = testutil.UniqueID("ident")
	if err := repo.AddIdentity(ctx, &dup); !errors.Is(err, ErrIdentityExists) {
		t.Errorf("expected ErrIdentityExists, got %v", err)
	}

	if _, err := repo.GetUserByIdentity(ctx, model.ProviderGoogle, "other"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestIntegrationUserRepository_CreateProfileIfAbsent(t *testing.T) {
	ctx, repo, _ := newTestEnv(t)

	user, profile := testutil.NewTestUser(t, testutil.UniqueEmail("profile"))
	if err := repo.CreateUserWithProfile(ctx, user, profile, nil); err != nil {
		t.Fatalf("CreateUserWithProfile failed: %v", err)
	}

	created, err := repo.CreateProfileIfAbsent(ctx, &model.Profile{UserID: user.ID, FirstName: "Other"})
	if err != nil {
		t.Fatalf("CreateProfileIfAbsent failed: %v", err)
	}
	if created {
		t.Error("existing profile must not be overwritten")
	}

	p, _ := repo.GetProfile(ctx, user.ID)
	if p.FirstName != "Ada" {
		t.Errorf("FirstName = %q, want Ada", p.FirstName)
	}
}
