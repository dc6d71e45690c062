package service

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTokenInvalid covers malformed, tampered, expired and foreign-key tokens.
var ErrTokenInvalid = errors.New("invalid or expired token")

// Claims defines the custom claims for bearer tokens.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService issues and verifies stateless bearer tokens.
type TokenService interface {
	// Issue returns a signed token embedding accountID and an expiry.
	Issue(accountID uuid.UUID) (string, error)

	// Verify returns the account id embedded in a valid token, or ErrTokenInvalid.
	Verify(token string) (uuid.UUID, error)
}
