package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"gatekeeper/config"
	"gatekeeper/internal/delivery/http/middleware"
	"gatekeeper/internal/delivery/http/router"
	"gatekeeper/internal/delivery/http/router/handler"
	"gatekeeper/internal/infra/auth"
	"gatekeeper/internal/infra/persistence/memory"
	"gatekeeper/internal/usecase/impl"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *stubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
	Meta struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

type authData struct {
	Token   string         `json:"token"`
	Account map[string]any `json:"account"`
}

type testServer struct {
	echo  *echo.Echo
	clock *stubClock
}

func newTestServer(t *testing.T, requireTransportHash bool) *testServer {
	t.Helper()

	cfg := &config.Config{
		Auth: &config.AuthConfig{
			BcryptCost:           bcrypt.MinCost,
			RequireTransportHash: requireTransportHash,
			Lockout:              config.LockoutConfig{Threshold: 5, Duration: 15 * time.Minute},
			Token:                config.TokenConfig{Secret: "http-test-secret", Issuer: "gatekeeper"},
		},
	}
	cfg.HTTP.MaxRequestBodySize = "16KB"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher, err := auth.NewBcryptHasher(cfg)
	require.NoError(t, err)
	tokenService, err := auth.NewJWTService(cfg)
	require.NoError(t, err)
	clock := &stubClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}

	authUC := impl.NewAuthService(impl.AuthServiceParams{
		AccountRepo:  memory.NewAccountRepository(),
		Hasher:       hasher,
		TokenService: tokenService,
		Clock:        clock,
		Config:       cfg,
		Logger:       logger,
	})

	r := router.NewRouter(router.RouterParams{
		AuthHandler:    handler.NewAuthHandler(handler.AuthHandlerParams{AuthUC: authUC, Config: cfg, Logger: logger}),
		AuthMiddleware: middleware.NewAuthMiddleware(authUC),
	})

	return &testServer{echo: NewEcho(cfg, logger, r), clock: clock}
}

func (s *testServer) do(t *testing.T, method, path, body, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())

	return rec, env
}

func credentials(email, rawPassword string) string {
	body, _ := json.Marshal(map[string]string{"email": email, "password": auth.TransportHash(rawPassword)})

	return string(body)
}

func decodeAuth(t *testing.T, env envelope) authData {
	t.Helper()

	var data authData
	require.NoError(t, json.Unmarshal(env.Data, &data))

	return data
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t, false)

	rec, env := s.do(t, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))
	assert.NotEmpty(t, env.Meta.RequestID)
	assert.Equal(t, env.Meta.RequestID, rec.Header().Get("X-Request-Id"))
}

func TestServer_RegisterLoginMeLogout(t *testing.T) {
	s := newTestServer(t, false)

	rec, env := s.do(t, http.MethodPost, "/auth/register", credentials("U@Test.com", "secret1"), "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	registered := decodeAuth(t, env)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "u@test.com", registered.Account["email"])
	assert.ElementsMatch(t, []string{"id", "email", "createdAt"}, keys(registered.Account))

	rec, env = s.do(t, http.MethodPost, "/auth/login", credentials("u@test.com", "secret1"), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	loggedIn := decodeAuth(t, env)
	assert.Equal(t, registered.Account["id"], loggedIn.Account["id"])

	rec, env = s.do(t, http.MethodGet, "/auth/me", "", loggedIn.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	var me map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, registered.Account["id"], me["id"])

	rec, env = s.do(t, http.MethodPost, "/auth/logout", "", loggedIn.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, string(env.Data))
}

func TestServer_MeAnonymous(t *testing.T) {
	s := newTestServer(t, false)

	for _, token := range []string{"", "not-a-token"} {
		rec, env := s.do(t, http.MethodGet, "/auth/me", "", token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "null", string(env.Data))
	}
}

func TestServer_LogoutRequiresAuthentication(t *testing.T) {
	s := newTestServer(t, false)

	rec, env := s.do(t, http.MethodPost, "/auth/logout", "", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_AUTHENTICATED", env.Error.Code)
}

func TestServer_DuplicateRegistration(t *testing.T) {
	s := newTestServer(t, false)

	rec, _ := s.do(t, http.MethodPost, "/auth/register", credentials("A@x.com", "secret1"), "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := s.do(t, http.MethodPost, "/auth/register", credentials("a@X.com", "secret2"), "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DUPLICATE_ACCOUNT", env.Error.Code)
}

func TestServer_Validation(t *testing.T) {
	s := newTestServer(t, false)

	rec, env := s.do(t, http.MethodPost, "/auth/register", `{"email":"u@test.com","password":"abc"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	rec, env = s.do(t, http.MethodPost, "/auth/register", `{"email":"nope","password":"secret1"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "must be a valid email address", env.Error.Details["email"])

	rec, env = s.do(t, http.MethodPost, "/auth/login", `not json`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}

func TestServer_LoginShortPasswordIsInvalidCredentials(t *testing.T) {
	s := newTestServer(t, false)

	rec, _ := s.do(t, http.MethodPost, "/auth/register", `{"email":"u@test.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	_, wrong := s.do(t, http.MethodPost, "/auth/login", `{"email":"u@test.com","password":"wrongpass"}`, "")

	rec, env := s.do(t, http.MethodPost, "/auth/login", `{"email":"u@test.com","password":"abc"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, wrong.Error, env.Error)

	rec, env = s.do(t, http.MethodPost, "/auth/login", `{"email":"not-an-email","password":"abc"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, wrong.Error, env.Error)
}

func TestServer_RequireTransportHash(t *testing.T) {
	s := newTestServer(t, true)

	rec, env := s.do(t, http.MethodPost, "/auth/register", `{"email":"u@test.com","password":"secret1"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "must be a SHA-256 transport hash", env.Error.Details["password"])

	rec, _ = s.do(t, http.MethodPost, "/auth/register", credentials("u@test.com", "secret1"), "")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestServer_LockoutOverHTTP(t *testing.T) {
	s := newTestServer(t, false)

	rec, _ := s.do(t, http.MethodPost, "/auth/register", credentials("u@test.com", "secret1"), "")
	require.Equal(t, http.StatusCreated, rec.Code)

	_, unknown := s.do(t, http.MethodPost, "/auth/login", credentials("nobody@test.com", "secret1"), "")

	for range 4 {
		rec, env := s.do(t, http.MethodPost, "/auth/login", credentials("u@test.com", "wrongpass"), "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, unknown.Error, env.Error)
	}

	rec, env := s.do(t, http.MethodPost, "/auth/login", credentials("u@test.com", "wrongpass"), "")
	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.Equal(t, "900", rec.Header().Get("Retry-After"))
	assert.Equal(t, "ACCOUNT_LOCKED", env.Error.Code)
	assert.Equal(t, float64(15), env.Error.Details["retryAfterMinutes"])

	rec, _ = s.do(t, http.MethodPost, "/auth/login", credentials("u@test.com", "secret1"), "")
	assert.Equal(t, http.StatusLocked, rec.Code)

	s.clock.Advance(15 * time.Minute)

	rec, _ = s.do(t, http.MethodPost, "/auth/login", credentials("u@test.com", "secret1"), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_UnknownRoute(t *testing.T) {
	s := newTestServer(t, false)

	rec, env := s.do(t, http.MethodGet, "/nope", "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "HTTP_ERROR", env.Error.Code)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	return out
}
