// Package memory provides a process-local account store for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/errors"

	"github.com/google/uuid"
)

// accountRepository keeps accounts in maps guarded by a single mutex, so
// Create and UpdateAuthState are linearizable.
type accountRepository struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*entity.Account
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

// NewAccountRepository returns an empty in-memory account store.
func NewAccountRepository() repository.AccountRepository {
	return &accountRepository{
		byID:    make(map[uuid.UUID]*entity.Account),
		byEmail: make(map[string]uuid.UUID),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (repo *accountRepository) FindByEmail(_ context.Context, email string) (*entity.Account, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	id, ok := repo.byEmail[email]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}

	return cloneAccount(repo.byID[id]), nil
}

func (repo *accountRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Account, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	account, ok := repo.byID[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}

	return cloneAccount(account), nil
}

func (repo *accountRepository) Create(_ context.Context, email, passwordHash string) (*entity.Account, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate account id")
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, exists := repo.byEmail[email]; exists {
		return nil, repository.ErrAccountExists
	}

	now := repo.now()
	account := &entity.Account{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	repo.byID[id] = account
	repo.byEmail[email] = id

	return cloneAccount(account), nil
}

func (repo *accountRepository) UpdateAuthState(_ context.Context, id uuid.UUID, expectedVersion int64, state entity.AuthState) (*entity.Account, error) {
	if state.FailedAttempts < 0 {
		return nil, errors.Errorf("invalid auth state for account %s: negative failed attempts", id)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	account, ok := repo.byID[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	if account.Version != expectedVersion {
		return nil, repository.ErrVersionConflict
	}

	account.FailedAttempts = state.FailedAttempts
	account.LockedUntil = cloneTime(state.LockedUntil)
	account.Version++
	account.UpdatedAt = repo.now()

	return cloneAccount(account), nil
}

func cloneAccount(account *entity.Account) *entity.Account {
	cloned := *account
	cloned.LockedUntil = cloneTime(account.LockedUntil)

	return &cloned
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cloned := *t

	return &cloned
}
