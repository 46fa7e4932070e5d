package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/abacus-app/abacus/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailExists     = errors.New("email already exists")
	ErrProfileNotFound = errors.New("profile not found")
	ErrIdentityExists  = errors.New("identity already linked")
)

const userColumns = `id, email, display_name, COALESCE(password_hash, ''), created_at, updated_at`

// CreateUserWithProfile inserts a user, its profile and its first identity
// in one transaction, so a profile never exists without its credential.
func (r *Repository) CreateUserWithProfile(ctx context.Context, user *model.User, profile *model.Profile, identity *model.Identity) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var passwordHash *string
	if user.PasswordHash != "" {
		passwordHash = &user.PasswordHash
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, email, display_name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.Email, user.DisplayName, passwordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO profiles (user_id, first_name, last_name, email, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, profile.FirstName, profile.LastName, profile.Email, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	if identity != nil {
		if err := insertIdentity(ctx, tx, identity); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit user: %w", err)
	}

	profile.UserID = user.ID
	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

// GetUserByEmail retrieves a user by email address, ignoring case.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return r.scanUser(ctx, query, email)
}

// GetUserByIdentity retrieves the user linked to a provider subject.
func (r *Repository) GetUserByIdentity(ctx context.Context, provider, subject string) (*model.User, error) {
	query := `
		SELECT u.id, u.email, u.display_name, COALESCE(u.password_hash, ''), u.created_at, u.updated_at
		FROM users u
		JOIN identities i ON i.user_id = u.id
		WHERE i.provider = $1 AND i.subject = $2
	`
	return r.scanUser(ctx, query, provider, subject)
}

func (r *Repository) scanUser(ctx context.Context, query string, args ...any) (*model.User, error) {
	var user model.User
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// AddIdentity links an additional provider subject to an existing user.
func (r *Repository) AddIdentity(ctx context.Context, identity *model.Identity) error {
	return insertIdentity(ctx, r.pool, identity)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertIdentity(ctx context.Context, db execer, identity *model.Identity) error {
	_, err := db.Exec(ctx, `
		INSERT INTO identities (id, user_id, provider, subject, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, identity.ID, identity.UserID, identity.Provider, identity.Subject, identity.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrIdentityExists
		}
		return fmt.Errorf("failed to create identity: %w", err)
	}
	return nil
}

// GetProfile retrieves the profile record of a user.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	query := `
		SELECT user_id, first_name, last_name, email
		FROM profiles
		WHERE user_id = $1
	`

	var p model.Profile
	err := r.pool.QueryRow(ctx, query, userID).Scan(&p.UserID, &p.FirstName, &p.LastName, &p.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// CreateProfileIfAbsent writes a profile unless the user already has one.
// Returns true if a row was written.
func (r *Repository) CreateProfileIfAbsent(ctx context.Context, profile *model.Profile) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, first_name, last_name, email)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING
	`, profile.UserID, profile.FirstName, profile.LastName, profile.Email)
	if err != nil {
		return false, fmt.Errorf("failed to create profile: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
