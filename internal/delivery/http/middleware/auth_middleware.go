package middleware

import (
	"strings"

	deliverycontext "gatekeeper/internal/delivery/context"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/usecase"

	"github.com/labstack/echo/v4"
)

const bearerPrefix = "Bearer "

// AuthMiddleware resolves bearer tokens into the request's account.
type AuthMiddleware struct {
	authUC usecase.AuthUsecase
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(authUC usecase.AuthUsecase) *AuthMiddleware {
	return &AuthMiddleware{authUC: authUC}
}

// Authenticate rejects requests without a valid bearer token.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := bearerToken(c)
		if !ok {
			return domainerrors.ErrNotAuthenticated
		}

		authCtx, err := m.authUC.Authenticate(c.Request().Context(), token)
		if err != nil {
			return err
		}
		deliverycontext.SetAccountID(c, authCtx.AccountID)

		return next(c)
	}
}

// OptionalAuthenticate attaches the account when a valid bearer token is
// present and otherwise lets the request through anonymously.
func (m *AuthMiddleware) OptionalAuthenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := bearerToken(c)
		if !ok {
			return next(c)
		}

		authCtx, err := m.authUC.Authenticate(c.Request().Context(), token)
		if err == nil {
			deliverycontext.SetAccountID(c, authCtx.AccountID)
		}

		return next(c)
	}
}

// AuthContext returns the caller attached by the middleware, or nil.
func AuthContext(c echo.Context) *usecase.AuthContext {
	accountID, ok := deliverycontext.GetAccountID(c)
	if !ok {
		return nil
	}

	return &usecase.AuthContext{AccountID: accountID}
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(bearerPrefix):])

	return token, token != ""
}
