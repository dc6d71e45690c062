package model

import (
	"time"

	"github.com/google/uuid"
)

// AccountModel mirrors the 'accounts' table created by the goose migrations.
type AccountModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email          string     `gorm:"type:varchar(320);uniqueIndex:idx_accounts_email;not null"`
	PasswordHash   string     `gorm:"type:varchar(255);not null"`
	FailedAttempts int        `gorm:"not null;default:0"`
	LockedUntil    *time.Time `gorm:"type:timestamptz"`
	Version        int64      `gorm:"not null;default:1"`
	CreatedAt      time.Time  `gorm:"type:timestamptz;not null"`
	UpdatedAt      time.Time  `gorm:"type:timestamptz;not null"`
}

// TableName explicitly sets the table name for GORM.
func (AccountModel) TableName() string {
	return "accounts"
}
