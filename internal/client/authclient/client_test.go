package authclient_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gatekeeper/config"
	"gatekeeper/internal/client/authclient"
	deliveryhttp "gatekeeper/internal/delivery/http"
	"gatekeeper/internal/delivery/http/middleware"
	"gatekeeper/internal/delivery/http/router"
	"gatekeeper/internal/delivery/http/router/handler"
	"gatekeeper/internal/infra/auth"
	"gatekeeper/internal/infra/clock"
	"gatekeeper/internal/infra/persistence/memory"
	"gatekeeper/internal/usecase/impl"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAPI(t *testing.T) *authclient.Client {
	t.Helper()

	cfg := &config.Config{
		Auth: &config.AuthConfig{
			BcryptCost:           bcrypt.MinCost,
			RequireTransportHash: true,
			Token:                config.TokenConfig{Secret: "client-test-secret"},
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher, err := auth.NewBcryptHasher(cfg)
	require.NoError(t, err)
	tokenService, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	authUC := impl.NewAuthService(impl.AuthServiceParams{
		AccountRepo:  memory.NewAccountRepository(),
		Hasher:       hasher,
		TokenService: tokenService,
		Clock:        clock.NewSystemClock(),
		Config:       cfg,
		Logger:       logger,
	})
	r := router.NewRouter(router.RouterParams{
		AuthHandler:    handler.NewAuthHandler(handler.AuthHandlerParams{AuthUC: authUC, Config: cfg, Logger: logger}),
		AuthMiddleware: middleware.NewAuthMiddleware(authUC),
	})

	server := httptest.NewServer(deliveryhttp.NewEcho(cfg, logger, r))
	t.Cleanup(server.Close)

	return &authclient.Client{BaseURL: server.URL + "/", HTTPClient: server.Client()}
}

func requireAPIError(t *testing.T, err error) *authclient.APIError {
	t.Helper()

	var apiErr *authclient.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)

	return apiErr
}

func TestClient_FullFlow(t *testing.T) {
	client := newTestAPI(t)
	ctx := context.Background()

	registered, err := client.Register(ctx, "U@test.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, registered.Account)
	assert.Equal(t, "u@test.com", registered.Account.Email)
	assert.NotEmpty(t, registered.Token)

	loggedIn, err := client.Login(ctx, "u@test.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.Account.ID, loggedIn.Account.ID)

	me, err := client.Me(ctx, loggedIn.Token)
	require.NoError(t, err)
	require.NotNil(t, me)
	assert.Equal(t, registered.Account.ID, me.ID)

	anonymous, err := client.Me(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, anonymous)

	require.NoError(t, client.Logout(ctx, loggedIn.Token))
}

func TestClient_Errors(t *testing.T) {
	client := newTestAPI(t)
	ctx := context.Background()

	_, err := client.Register(ctx, "u@test.com", "secret1")
	require.NoError(t, err)

	_, err = client.Register(ctx, "u@test.com", "secret1")
	apiErr := requireAPIError(t, err)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "DUPLICATE_ACCOUNT", apiErr.Code)

	_, err = client.Login(ctx, "u@test.com", "wrongpass")
	apiErr = requireAPIError(t, err)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid email or password", apiErr.Message)

	err = client.Logout(ctx, "")
	apiErr = requireAPIError(t, err)
	assert.Equal(t, "NOT_AUTHENTICATED", apiErr.Code)
}

func TestClient_Lockout(t *testing.T) {
	client := newTestAPI(t)
	ctx := context.Background()

	_, err := client.Register(ctx, "u@test.com", "secret1")
	require.NoError(t, err)

	for range 4 {
		_, err = client.Login(ctx, "u@test.com", "wrongpass")
		assert.Equal(t, http.StatusUnauthorized, requireAPIError(t, err).Status)
	}

	_, err = client.Login(ctx, "u@test.com", "wrongpass")
	apiErr := requireAPIError(t, err)
	assert.Equal(t, http.StatusLocked, apiErr.Status)
	assert.Equal(t, "ACCOUNT_LOCKED", apiErr.Code)
	assert.InDelta(t, (15 * time.Minute).Seconds(), apiErr.RetryAfter.Seconds(), 2)
	assert.Equal(t, float64(15), apiErr.Details["retryAfterMinutes"])
}

func TestClient_SendsTransportHash(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"token":"t","account":null},"meta":{"request_id":"r"}}`))
	}))
	t.Cleanup(server.Close)

	client := &authclient.Client{BaseURL: server.URL}
	_, err := client.Login(context.Background(), "u@test.com", "secret1")
	require.NoError(t, err)

	assert.Equal(t, auth.TransportHash("secret1"), received["password"])
	assert.NotContains(t, received["password"], "secret1")
}
