// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"

	"gatekeeper/config"
	"gatekeeper/internal/delivery/http/middleware"
	"gatekeeper/internal/delivery/http/response"
	"gatekeeper/internal/delivery/http/validator"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/infra/auth"
	"gatekeeper/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// RegisterRequest is the body of register.
// Password carries the client's transport-hash.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,max=320"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest is the body of login. A password too short to have been
// registered is left to fail as invalid credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=320"`
	Password string `json:"password" validate:"required,max=72"`
}

// AuthHandler holds dependencies for authentication handlers.
type AuthHandler struct {
	authUC               usecase.AuthUsecase
	requireTransportHash bool
	logger               *slog.Logger
}

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	AuthUC usecase.AuthUsecase
	Config *config.Config
	Logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler.
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	requireTransportHash := false
	if params.Config != nil && params.Config.Auth != nil {
		requireTransportHash = params.Config.Auth.RequireTransportHash
	}

	return &AuthHandler{
		authUC:               params.AuthUC,
		requireTransportHash: requireTransportHash,
		logger:               params.Logger,
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := h.bindCredentials(c, &req, &req.Password); err != nil {
		return err
	}

	output, err := h.authUC.Register(c.Request().Context(), &usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, output)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := h.bindCredentials(c, &req, &req.Password); err != nil {
		return err
	}

	output, err := h.authUC.Login(c.Request().Context(), &usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, output)
}

// Logout handles POST /auth/logout. Requires Authenticate.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authUC.Logout(c.Request().Context(), middleware.AuthContext(c)); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]bool{"success": true})
}

// Me handles GET /auth/me. Anonymous callers get null data.
func (h *AuthHandler) Me(c echo.Context) error {
	account, err := h.authUC.Me(c.Request().Context(), middleware.AuthContext(c))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, account)
}

// bindCredentials binds and validates req; password must point into req.
func (h *AuthHandler) bindCredentials(c echo.Context, req any, password *string) error {
	if err := c.Bind(req); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(map[string]string{"body": "must be a JSON object with email and password"})
	}

	if err := c.Validate(req); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(validator.FieldErrors(err))
	}

	if h.requireTransportHash && !auth.IsTransportHash(*password) {
		return domainerrors.ErrValidationFailed.WithDetails(map[string]string{"password": "must be a SHA-256 transport hash"})
	}

	return nil
}

// HealthCheck handles GET /health.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"})
}
