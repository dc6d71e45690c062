package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	domainerrors "gatekeeper/internal/domain/errors"
	mockUsecase "gatekeeper/internal/mocks/usecase"
	"gatekeeper/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAuthRequest(authorization string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()

	return echo.New().NewContext(req, rec), rec
}

// captureAuthContext records the AuthContext seen by the next handler.
func captureAuthContext(seen **usecase.AuthContext) echo.HandlerFunc {
	return func(c echo.Context) error {
		*seen = AuthContext(c)

		return c.NoContent(http.StatusNoContent)
	}
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	accountID := uuid.New()

	t.Run("valid token", func(t *testing.T) {
		authUC := mockUsecase.NewMockAuthUsecase(t)
		authUC.EXPECT().Authenticate(mock.Anything, "good-token").
			Return(&usecase.AuthContext{AccountID: accountID}, nil).Once()

		c, _ := newAuthRequest("Bearer good-token")
		var seen *usecase.AuthContext
		require.NoError(t, NewAuthMiddleware(authUC).Authenticate(captureAuthContext(&seen))(c))

		require.NotNil(t, seen)
		assert.Equal(t, accountID, seen.AccountID)
	})

	t.Run("missing header", func(t *testing.T) {
		authUC := mockUsecase.NewMockAuthUsecase(t)

		c, _ := newAuthRequest("")
		var seen *usecase.AuthContext
		err := NewAuthMiddleware(authUC).Authenticate(captureAuthContext(&seen))(c)

		assert.ErrorIs(t, err, domainerrors.ErrNotAuthenticated)
		assert.Nil(t, seen)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		authUC := mockUsecase.NewMockAuthUsecase(t)

		c, _ := newAuthRequest("Basic dXNlcjpwYXNz")
		err := NewAuthMiddleware(authUC).Authenticate(captureAuthContext(new(*usecase.AuthContext)))(c)

		assert.ErrorIs(t, err, domainerrors.ErrNotAuthenticated)
	})

	t.Run("invalid token", func(t *testing.T) {
		authUC := mockUsecase.NewMockAuthUsecase(t)
		authUC.EXPECT().Authenticate(mock.Anything, "bad-token").
			Return(nil, domainerrors.ErrNotAuthenticated).Once()

		c, _ := newAuthRequest("bearer bad-token")
		err := NewAuthMiddleware(authUC).Authenticate(captureAuthContext(new(*usecase.AuthContext)))(c)

		assert.ErrorIs(t, err, domainerrors.ErrNotAuthenticated)
	})
}

func TestAuthMiddleware_OptionalAuthenticate(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		authUC := mockUsecase.NewMockAuthUsecase(t)

		c, rec := newAuthRequest("")
		var seen *usecase.AuthContext
		require.NoError(t, NewAuthMiddleware(authUC).OptionalAuthenticate(captureAuthContext(&seen))(c))

		assert.Nil(t, seen)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("invalid token continues anonymously", func(t *testing.T) {
		authUC := mockUsecase.NewMockAuthUsecase(t)
		authUC.EXPECT().Authenticate(mock.Anything, "expired").
			Return(nil, domainerrors.ErrNotAuthenticated).Once()

		c, rec := newAuthRequest("Bearer expired")
		var seen *usecase.AuthContext
		require.NoError(t, NewAuthMiddleware(authUC).OptionalAuthenticate(captureAuthContext(&seen))(c))

		assert.Nil(t, seen)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		accountID := uuid.New()
		authUC := mockUsecase.NewMockAuthUsecase(t)
		authUC.EXPECT().Authenticate(mock.Anything, "good-token").
			Return(&usecase.AuthContext{AccountID: accountID}, nil).Once()

		c, _ := newAuthRequest("Bearer good-token")
		var seen *usecase.AuthContext
		require.NoError(t, NewAuthMiddleware(authUC).OptionalAuthenticate(captureAuthContext(&seen))(c))

		require.NotNil(t, seen)
		assert.Equal(t, accountID, seen.AccountID)
	})
}
