package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abacus-app/abacus/internal/model"
)

// sessionPrefix is the Redis key prefix for sign-in sessions.
const sessionPrefix = "session:"

// cachedSession is the stored form of a session. The token itself is never
// stored; the key is derived from its hash.
type cachedSession struct {
	UserID    string    `json:"user_id"`
	Provider  string    `json:"provider"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// SaveSession stores a session under tokenHash until its expiry.
func (c *Cache) SaveSession(ctx context.Context, tokenHash string, s *model.Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	data, err := json.Marshal(cachedSession{
		UserID:    s.UserID,
		Provider:  s.Provider,
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return c.client.Set(ctx, sessionPrefix+tokenHash, data, ttl).Err()
}

// GetSession retrieves a session by token hash.
// Returns nil if not found.
func (c *Cache) GetSession(ctx context.Context, tokenHash string) (*model.Session, error) {
	data, err := c.client.Get(ctx, sessionPrefix+tokenHash).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var cached cachedSession
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted entry - treat as signed out
		return nil, nil //nolint:nilerr
	}

	return &model.Session{
		UserID:    cached.UserID,
		Provider:  cached.Provider,
		ExpiresAt: cached.ExpiresAt,
		CreatedAt: cached.CreatedAt,
	}, nil
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (c *Cache) DeleteSession(ctx context.Context, tokenHash string) error {
	return c.client.Del(ctx, sessionPrefix+tokenHash).Err()
}
