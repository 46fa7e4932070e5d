package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	oauthStatePrefix      = "oauth:state:"
	federatedResultPrefix = "oauth:result:"
)

// FederatedResult is the outcome of a consent flow, held until the client
// that started it polls for it.
type FederatedResult struct {
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	ErrorCode string    `json:"error_code,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// ClaimOAuthState marks a state id as used. It returns false if the state
// was already claimed, which means the callback is being replayed.
func (c *Cache) ClaimOAuthState(ctx context.Context, stateID string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, oauthStatePrefix+stateID, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim oauth state: %w", err)
	}
	return ok, nil
}

// PutFederatedResult stores the outcome for stateID.
func (c *Cache) PutFederatedResult(ctx context.Context, stateID string, result *FederatedResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal federated result: %w", err)
	}
	return c.client.Set(ctx, federatedResultPrefix+stateID, data, ttl).Err()
}

// TakeFederatedResult returns and removes the outcome for stateID.
// Returns nil while the flow is still pending.
func (c *Cache) TakeFederatedResult(ctx context.Context, stateID string) (*FederatedResult, error) {
	data, err := c.client.GetDel(ctx, federatedResultPrefix+stateID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("take federated result: %w", err)
	}

	var result FederatedResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal federated result: %w", err)
	}
	return &result, nil
}
