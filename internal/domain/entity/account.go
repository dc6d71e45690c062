// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Account is a registered credential holder.
// PasswordHash, FailedAttempts, LockedUntil and Version never leave the core;
// use Summary for anything returned to a caller.
type Account struct {
	ID           uuid.UUID // Immutable identifier assigned at creation.
	Email        string    // Normalized (trimmed, lower-cased) and unique.
	PasswordHash string    // Storage-hash of the client's transport-hash.
	AuthState
	Version   int64     // Incremented by every committed auth-state update.
	CreatedAt time.Time // Immutable creation timestamp.
	UpdatedAt time.Time
}

// AuthState is the lockout-relevant part of an account.
type AuthState struct {
	FailedAttempts int
	LockedUntil    *time.Time // nil means unlocked.
}

// AccountSummary is the externally visible subset of an Account.
type AccountSummary struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary returns the externally visible fields of the account.
func (a *Account) Summary() *AccountSummary {
	return &AccountSummary{
		ID:        a.ID,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
	}
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail reports whether email looks like local@domain.tld.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
