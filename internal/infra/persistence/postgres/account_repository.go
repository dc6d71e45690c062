// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// accountRepository implements repository.AccountRepository on PostgreSQL.
type accountRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAccountRepository is the constructor for accountRepository.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// FindByEmail retrieves an account by its normalized email.
func (repo *accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return repo.findOne(ctx, "lower(email) = lower(?)", email)
}

// FindByID retrieves an account by id.
func (repo *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	return repo.findOne(ctx, "id = ?", id)
}

func (repo *accountRepository) findOne(ctx context.Context, query string, arg any) (*entity.Account, error) {
	var accountM model.AccountModel

	err := repo.db.WithContext(ctx).Where(query, arg).First(&accountM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAccountNotFound
		}

		return nil, errors.Wrap(err, "failed to query account")
	}

	return toAccountDomain(&accountM), nil
}

// Create inserts a new account. The unique index on email decides races.
func (repo *accountRepository) Create(ctx context.Context, email, passwordHash string) (*entity.Account, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate account id")
	}

	now := repo.now()
	accountM := &model.AccountModel{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := repo.db.WithContext(ctx).Create(accountM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return nil, repository.ErrAccountExists
		}

		return nil, errors.Wrap(err, "failed to create account")
	}

	return toAccountDomain(accountM), nil
}

// UpdateAuthState is a single conditional UPDATE on (id, version); the row is
// returned as written so no second read can observe a later state.
func (repo *accountRepository) UpdateAuthState(ctx context.Context, id uuid.UUID, expectedVersion int64, state entity.AuthState) (*entity.Account, error) {
	var updated []model.AccountModel

	result := repo.db.WithContext(ctx).
		Model(&updated).
		Clauses(clause.Returning{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]any{
			"failed_attempts": state.FailedAttempts,
			"locked_until":    state.LockedUntil,
			"version":         gorm.Expr("version + 1"),
			"updated_at":      repo.now(),
		})
	if result.Error != nil {
		if isCheckConstraintViolation(result.Error) {
			return nil, errors.Wrapf(result.Error, "invalid auth state for account %s", id)
		}

		return nil, errors.Wrap(result.Error, "failed to update account auth state")
	}

	if result.RowsAffected == 0 || len(updated) == 0 {
		if _, err := repo.FindByID(ctx, id); err != nil {
			return nil, err
		}

		return nil, repository.ErrVersionConflict
	}

	return toAccountDomain(&updated[0]), nil
}

// --- Mapper Functions ---

func toAccountDomain(data *model.AccountModel) *entity.Account {
	if data == nil {
		return nil
	}

	return &entity.Account{
		ID:           data.ID,
		Email:        data.Email,
		PasswordHash: data.PasswordHash,
		AuthState: entity.AuthState{
			FailedAttempts: data.FailedAttempts,
			LockedUntil:    data.LockedUntil,
		},
		Version:   data.Version,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}
