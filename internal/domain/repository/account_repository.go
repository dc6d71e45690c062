// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"gatekeeper/internal/domain/entity"

	"github.com/google/uuid"
)

var (
	// ErrAccountNotFound is returned when no account matches the lookup.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists is returned by Create when the email is already registered.
	ErrAccountExists = errors.New("account already exists")
	// ErrVersionConflict is returned by UpdateAuthState when the stored version
	// no longer matches the expected one.
	ErrVersionConflict = errors.New("account version conflict")
)

// AccountRepository is the durable record of accounts and their auth state.
type AccountRepository interface {
	// FindByEmail retrieves an account by its normalized email.
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)

	// FindByID retrieves an account by its identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)

	// Create persists a new account with zero failed attempts and no lock.
	// The store's uniqueness constraint on email is authoritative: a concurrent
	// duplicate yields ErrAccountExists even if a prior lookup found nothing.
	Create(ctx context.Context, email, passwordHash string) (*entity.Account, error)

	// UpdateAuthState atomically replaces the auth state of the account if and
	// only if its version still equals expectedVersion, and returns the updated
	// account with its new version.
	UpdateAuthState(ctx context.Context, id uuid.UUID, expectedVersion int64, state entity.AuthState) (*entity.Account, error)
}
