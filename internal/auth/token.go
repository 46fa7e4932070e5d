package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
)

// Token format: abs_{ulid}_{secret}
// Example: abs_01HZY3V6N8Q4W7E2R5T9Y1V3J0_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b
const (
	tokenPrefix    = "abs_"
	TokenSecretLen = 32 // hex encoded 16 bytes
)

var (
	// ErrInvalidTokenFormat indicates the session token is malformed.
	ErrInvalidTokenFormat = errors.New("invalid session token format")

	tokenFormatRegex = regexp.MustCompile(`^abs_([0-9A-HJKMNP-TV-Z]{26})_([a-f0-9]{32})$`)
)

// NewID returns a new ULID string for users, identities and state ids.
func NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// GenerateSessionToken creates an opaque session token.
func GenerateSessionToken() (string, error) {
	secret := make([]byte, TokenSecretLen/2)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return tokenPrefix + NewID() + "_" + hex.EncodeToString(secret), nil
}

// ValidateTokenFormat reports whether token looks like a session token.
func ValidateTokenFormat(token string) bool {
	return tokenFormatRegex.MatchString(token)
}

// TokenIssuedAt extracts the issue time embedded in the token's ULID.
func TokenIssuedAt(token string) (time.Time, error) {
	m := tokenFormatRegex.FindStringSubmatch(token)
	if m == nil {
		return time.Time{}, ErrInvalidTokenFormat
	}
	id, err := ulid.ParseStrict(m[1])
	if err != nil {
		return time.Time{}, ErrInvalidTokenFormat
	}
	return ulid.Time(id.Time()), nil
}
