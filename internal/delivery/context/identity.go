// Package context carries the identity of an HTTP request, its request ID,
// its logger and the authenticated account, across echo.Context and the
// request's context.Context.
package context

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	KeyRequestID ContextKey = "request_id"
	KeyAccountID ContextKey = "account_id"
	KeyLogger    ContextKey = "logger"

	// HeaderXRequestID is the HTTP header name for request ID.
	HeaderXRequestID = "X-Request-Id"
)

// SetRequestID records requestID on both contexts and returns the request
// logger derived from base.
func SetRequestID(c echo.Context, base *slog.Logger, requestID string) *slog.Logger {
	c.Set(string(KeyRequestID), requestID)

	reqLogger := base.With(slog.String("request_id", requestID))
	ctx := WithRequestID(c.Request().Context(), requestID)
	ctx = WithLogger(ctx, reqLogger)
	c.SetRequest(c.Request().WithContext(ctx))

	return reqLogger
}

// GetRequestID returns the request ID set by SetRequestID, or "".
func GetRequestID(c echo.Context) string {
	id, _ := c.Get(string(KeyRequestID)).(string)

	return id
}

// RequestIDFromContext returns the request ID carried by ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(KeyRequestID).(string)

	return id
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, KeyRequestID, requestID)
}

// SetAccountID marks the request as authenticated for accountID. The account
// is added to the request logger so later log lines carry it.
func SetAccountID(c echo.Context, accountID uuid.UUID) {
	c.Set(string(KeyAccountID), accountID)

	ctx := c.Request().Context()
	if logger, ok := ctx.Value(KeyLogger).(*slog.Logger); ok {
		ctx = WithLogger(ctx, logger.With(slog.String("account_id", accountID.String())))
		c.SetRequest(c.Request().WithContext(ctx))
	}
}

// GetAccountID returns the authenticated account ID, if any.
func GetAccountID(c echo.Context) (uuid.UUID, bool) {
	accountID, ok := c.Get(string(KeyAccountID)).(uuid.UUID)

	return accountID, ok
}

// GetLoggerOrDefault returns the request-scoped logger carried by ctx, or fallback.
func GetLoggerOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(KeyLogger).(*slog.Logger); ok {
		return logger
	}

	return fallback
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, KeyLogger, logger)
}
