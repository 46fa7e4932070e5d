package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const stateIssuer = "abacus"

// ErrInvalidState indicates an OAuth state that is forged, expired or malformed.
var ErrInvalidState = errors.New("invalid oauth state")

// stateClaims is the payload of a signed OAuth state.
type stateClaims struct {
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

// FlowState identifies one federated sign-in attempt.
type FlowState struct {
	ID        string
	Nonce     string
	ExpiresAt time.Time
}

// StateSigner issues and verifies OAuth state values as HS256 JWTs, so the
// callback can be verified without server-side storage or cookies.
type StateSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewStateSigner creates a StateSigner.
func NewStateSigner(secret string, ttl time.Duration) *StateSigner {
	return &StateSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a new flow state and its signed form.
func (s *StateSigner) Issue() (string, *FlowState, error) {
	now := s.now()
	fs := &FlowState{
		ID:        NewID(),
		Nonce:     NewID(),
		ExpiresAt: now.Add(s.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, stateClaims{
		Nonce: fs.Nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        fs.ID,
			Issuer:    stateIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(fs.ExpiresAt),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign state: %w", err)
	}
	return signed, fs, nil
}

// Verify checks the signature and expiry of a signed state.
func (s *StateSigner) Verify(signed string) (*FlowState, error) {
	var claims stateClaims
	_, err := jwt.ParseWithClaims(signed, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(stateIssuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if claims.ID == "" || claims.Nonce == "" {
		return nil, ErrInvalidState
	}

	return &FlowState{
		ID:        claims.ID,
		Nonce:     claims.Nonce,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
