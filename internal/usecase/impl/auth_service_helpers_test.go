package impl

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"gatekeeper/config"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/infra/auth"
	"gatekeeper/internal/infra/persistence/memory"
	"gatekeeper/internal/usecase"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	return &config.Config{
		Auth: &config.AuthConfig{
			BcryptCost: bcrypt.MinCost,
			Lockout: config.LockoutConfig{
				Threshold: 5,
				Duration:  15 * time.Minute,
			},
			Token: config.TokenConfig{
				Secret: "test-signing-secret",
				Issuer: "gatekeeper-test",
				TTL:    7 * 24 * time.Hour,
			},
		},
	}
}

// fakeClock is a manually advanced service.Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// authFixture wires the service to the in-memory store, bcrypt and JWT.
type authFixture struct {
	service      usecase.AuthUsecase
	accountRepo  repository.AccountRepository
	tokenService service.TokenService
	clock        *fakeClock
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()

	cfg := newTestConfig()
	hasher, err := auth.NewBcryptHasher(cfg)
	require.NoError(t, err)
	tokenService, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	accountRepo := memory.NewAccountRepository()
	clock := newFakeClock()

	return authFixture{
		service: NewAuthService(AuthServiceParams{
			AccountRepo:  accountRepo,
			Hasher:       hasher,
			TokenService: tokenService,
			Clock:        clock,
			Config:       cfg,
			Logger:       newDiscardLogger(),
		}),
		accountRepo:  accountRepo,
		tokenService: tokenService,
		clock:        clock,
	}
}
