// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Identity providers.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// User is the credential record for a signed-up or federated account.
// PasswordHash is empty for accounts created through a federated provider.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile is the per-user record provisioned on sign-up or first federated sign-in.
type Profile struct {
	UserID    string `json:"-"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Identity links a user to an external identity provider subject.
type Identity struct {
	ID        string
	UserID    string
	Provider  string
	Subject   string
	CreatedAt time.Time
}

// Principal is the signed-in identity attached to a request.
type Principal struct {
	UserID      string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
}

// AvatarInitial returns the upper-cased first letter of the display name.
func (p *Principal) AvatarInitial() string {
	if p == nil || p.DisplayName == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(p.DisplayName)
	return string(unicode.ToUpper(r))
}

// DisplayNameFor joins first and last name the way sign-up stores them.
func DisplayNameFor(firstName, lastName string) string {
	return firstName + " " + lastName
}

// SplitDisplayName derives first and last name from a provider display name.
// The split happens on the first space only; the last name is empty when
// the display name has no space.
func SplitDisplayName(displayName string) (firstName, lastName string) {
	first, rest, found := strings.Cut(displayName, " ")
	if !found {
		return displayName, ""
	}
	// Only the second word is kept: "Ada King Lovelace" -> ("Ada", "King").
	last, _, _ := strings.Cut(rest, " ")
	return first, last
}
