// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"gatekeeper/config"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptHasher is the storage-hash stage, implemented with bcrypt.
type bcryptHasher struct {
	cost int
}

// NewBcryptHasher builds the hasher from auth.bcryptCost.
func NewBcryptHasher(cfg *config.Config) (service.PasswordHasher, error) {
	cost := config.DefaultBcryptCost
	if cfg != nil && cfg.Auth != nil && cfg.Auth.BcryptCost != 0 {
		cost = cfg.Auth.BcryptCost
	}

	return NewBcryptHasherWithCost(cost)
}

// NewBcryptHasherWithCost returns a hasher using the given work factor.
func NewBcryptHasherWithCost(cost int) (service.PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	return &bcryptHasher{cost: cost}, nil
}

// Hash generates a salted storage-hash. bcrypt generates the salt itself.
func (h *bcryptHasher) Hash(transportHash string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(transportHash), h.cost)
	if err != nil {
		return "", errors.Wrap(err, "bcrypt generate")
	}

	return string(bytes), nil
}

// Check compares a transport-hash with a bcrypt storage-hash.
func (h *bcryptHasher) Check(transportHash, storageHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storageHash), []byte(transportHash)) == nil
}
