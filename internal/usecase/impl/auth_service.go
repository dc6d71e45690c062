// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"time"

	"gatekeeper/config"
	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/lockout"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// maxStateUpdateAttempts caps the compare-and-set loop of a single login. Every
// conflict means a rival login committed, and rival failures lock the account
// after lockout.threshold commits, so the loop normally ends well below it.
const maxStateUpdateAttempts = 32

// authService implements the AuthUsecase interface.
type authService struct {
	accountRepo  repository.AccountRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	clock        service.Clock
	policy       lockout.Policy
	logger       *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	AccountRepo  repository.AccountRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Clock        service.Clock
	Config       *config.Config
	Logger       *slog.Logger
}

// NewAuthService is the constructor for authService.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	policy := lockout.NewPolicy(0, 0)
	if params.Config != nil && params.Config.Auth != nil {
		policy = lockout.NewPolicy(params.Config.Auth.Lockout.Threshold, params.Config.Auth.Lockout.Duration)
	}

	return &authService{
		accountRepo:  params.AccountRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		clock:        params.Clock,
		policy:       policy,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// internalFailure logs err and hides it behind ErrInternalFailure.
func (srv *authService) internalFailure(ctx context.Context, operation string, err error) error {
	srv.log(ctx).Error("Authentication operation failed",
		slog.String("operation", operation),
		slog.Any("error", err),
	)

	return domainerrors.ErrInternalFailure.WrapMessage(operation)
}

// Register creates an account for a new email and signs the caller in.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.AuthOutput, error) {
	email := entity.NormalizeEmail(input.Email)
	if !entity.IsValidEmail(email) {
		return nil, domainerrors.ErrValidationFailed.WithDetails(map[string]string{"email": "must be a valid email address"})
	}
	if input.Password == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails(map[string]string{"password": "is required"})
	}

	// Fast path only; Create enforces uniqueness.
	_, err := srv.accountRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, domainerrors.ErrDuplicateAccount
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, srv.internalFailure(ctx, "find account by email", err)
	}

	passwordHash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, srv.internalFailure(ctx, "hash password", err)
	}

	account, err := srv.accountRepo.Create(ctx, email, passwordHash)
	if errors.Is(err, repository.ErrAccountExists) {
		return nil, domainerrors.ErrDuplicateAccount
	}
	if err != nil {
		return nil, srv.internalFailure(ctx, "create account", err)
	}

	srv.log(ctx).Info("Account registered", slog.String("accountID", account.ID.String()))

	return srv.issue(ctx, account)
}

// Login authenticates an email and password pair, applying the lockout policy.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.AuthOutput, error) {
	email := entity.NormalizeEmail(input.Email)

	account, err := srv.accountRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrAccountNotFound) {
		srv.log(ctx).Debug("Login for unknown email")

		return nil, domainerrors.NewInvalidCredentials()
	}
	if err != nil {
		return nil, srv.internalFailure(ctx, "find account by email", err)
	}

	now := srv.clock.Now()
	if decision := srv.policy.Admit(account.AuthState, now); decision.Locked {
		srv.log(ctx).Info("Login rejected for locked account", slog.String("accountID", account.ID.String()))

		return nil, domainerrors.NewAccountLocked(decision.RetryAfter)
	}

	passwordOK := srv.hasher.Check(input.Password, account.PasswordHash)

	updated, err := srv.recordOutcome(ctx, account, passwordOK, now)
	if err != nil {
		return nil, err
	}

	if !passwordOK {
		return nil, srv.failedLogin(ctx, updated, now)
	}

	srv.log(ctx).Info("Login succeeded", slog.String("accountID", updated.ID.String()))

	return srv.issue(ctx, updated)
}

// recordOutcome persists the state transition for one admitted attempt with a
// version-checked update, recomputing it from a fresh read after a conflict.
func (srv *authService) recordOutcome(ctx context.Context, account *entity.Account, passwordOK bool, now time.Time) (*entity.Account, error) {
	current := account
	for range maxStateUpdateAttempts {
		next := srv.policy.OnSuccess()
		if !passwordOK {
			next = srv.policy.OnFailure(current.AuthState, now)
		}

		updated, err := srv.accountRepo.UpdateAuthState(ctx, current.ID, current.Version, next)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, srv.internalFailure(ctx, "update auth state", err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, srv.internalFailure(ctx, "update auth state", errors.Wrap(ctxErr, "abandoned after conflicting update"))
		}

		srv.log(ctx).Debug("Auth state changed concurrently, reloading", slog.String("accountID", current.ID.String()))

		current, err = srv.accountRepo.FindByID(ctx, account.ID)
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, domainerrors.NewInvalidCredentials()
		}
		if err != nil {
			return nil, srv.internalFailure(ctx, "reload account", err)
		}

		// A concurrent attempt may have locked the account in the meantime.
		if decision := srv.policy.Admit(current.AuthState, now); decision.Locked {
			return nil, domainerrors.NewAccountLocked(decision.RetryAfter)
		}
	}

	return nil, srv.internalFailure(ctx, "update auth state",
		errors.Errorf("gave up after %d conflicting updates", maxStateUpdateAttempts))
}

func (srv *authService) failedLogin(ctx context.Context, account *entity.Account, now time.Time) error {
	if decision := srv.policy.Admit(account.AuthState, now); decision.Locked {
		srv.log(ctx).Warn("Account locked after repeated failures",
			slog.String("accountID", account.ID.String()),
			slog.Int("failedAttempts", account.FailedAttempts),
		)

		return domainerrors.NewAccountLocked(decision.RetryAfter)
	}

	remaining := srv.policy.AttemptsRemaining(account.AuthState)
	srv.log(ctx).Info("Login failed",
		slog.String("accountID", account.ID.String()),
		slog.Int("attemptsRemaining", remaining),
	)

	return domainerrors.NewInvalidCredentialsWithAttempts(remaining)
}

func (srv *authService) issue(ctx context.Context, account *entity.Account) (*usecase.AuthOutput, error) {
	token, err := srv.tokenService.Issue(account.ID)
	if err != nil {
		return nil, srv.internalFailure(ctx, "issue token", err)
	}

	return &usecase.AuthOutput{
		Token:   token,
		Account: account.Summary(),
	}, nil
}

// Logout acknowledges an authenticated caller.
func (srv *authService) Logout(ctx context.Context, authCtx *usecase.AuthContext) error {
	if authCtx == nil {
		return domainerrors.ErrNotAuthenticated
	}

	srv.log(ctx).Info("Logout", slog.String("accountID", authCtx.AccountID.String()))

	return nil
}

// Me returns the caller's account summary.
func (srv *authService) Me(ctx context.Context, authCtx *usecase.AuthContext) (*entity.AccountSummary, error) {
	if authCtx == nil {
		return nil, nil
	}

	account, err := srv.accountRepo.FindByID(ctx, authCtx.AccountID)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, srv.internalFailure(ctx, "find account by id", err)
	}

	return account.Summary(), nil
}

// Authenticate verifies a bearer token.
func (srv *authService) Authenticate(ctx context.Context, token string) (*usecase.AuthContext, error) {
	if token == "" {
		return nil, domainerrors.ErrNotAuthenticated
	}

	accountID, err := srv.tokenService.Verify(token)
	if err != nil {
		srv.log(ctx).Debug("Rejected bearer token", slog.Any("error", err))

		return nil, domainerrors.ErrNotAuthenticated
	}

	return &usecase.AuthContext{AccountID: accountID}, nil
}
