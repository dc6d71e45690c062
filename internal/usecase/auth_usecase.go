// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"gatekeeper/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new account.
// Password is the client's transport-hash, never the raw password.
type RegisterInput struct {
	Email    string
	Password string
}

// LoginInput defines the data required for an account to log in.
type LoginInput struct {
	Email    string
	Password string
}

// AuthContext identifies the caller of an authenticated request.
// A nil *AuthContext means the request is anonymous.
type AuthContext struct {
	AccountID uuid.UUID
}

// --- Output DTOs ---

// AuthOutput is returned by a successful registration or login.
type AuthOutput struct {
	Token   string                 `json:"token"`
	Account *entity.AccountSummary `json:"account"`
}

// AuthUsecase defines the authentication operations exposed to the delivery layer.
type AuthUsecase interface {
	Register(ctx context.Context, input *RegisterInput) (*AuthOutput, error)
	Login(ctx context.Context, input *LoginInput) (*AuthOutput, error)
	// Logout only requires authentication; issued tokens stay valid until they expire.
	Logout(ctx context.Context, authCtx *AuthContext) error
	// Me returns nil without error for an anonymous caller or a deleted account.
	Me(ctx context.Context, authCtx *AuthContext) (*entity.AccountSummary, error)
	// Authenticate resolves a bearer token into an AuthContext.
	Authenticate(ctx context.Context, token string) (*AuthContext, error)
}
