// Package errors defines the authentication error taxonomy shared by the
// use case and delivery layers.
package errors

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"gatekeeper/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() any      // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   any
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
	}
}

func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

func (e *BaseError) Message() string {
	return e.message
}

func (e *BaseError) Details() any {
	return e.details
}

// WithDetails returns a copy of the error carrying details.
// The copy still matches the original with errors.Is.
func (e *BaseError) WithDetails(details any) error {
	return &detailedError{
		BaseError: &BaseError{
			httpCode:  e.httpCode,
			errorCode: e.errorCode,
			message:   e.message,
			details:   details,
		},
		origin: e,
	}
}

type detailedError struct {
	*BaseError
	origin *BaseError
}

func (e *detailedError) Is(target error) bool {
	return target == e.origin
}

const invalidCredentialsMessage = "Invalid email or password"

var (
	ErrDuplicateAccount = NewBaseError(
		http.StatusConflict,
		"DUPLICATE_ACCOUNT",
		"An account with this email already exists",
	)

	// ErrInvalidCredentials matches every InvalidCredentialsError via errors.Is.
	ErrInvalidCredentials = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		invalidCredentialsMessage,
	)

	// ErrAccountLocked matches every AccountLockedError via errors.Is.
	ErrAccountLocked = NewBaseError(
		http.StatusLocked,
		"ACCOUNT_LOCKED",
		"Account is locked",
	)

	ErrNotAuthenticated = NewBaseError(
		http.StatusUnauthorized,
		"NOT_AUTHENTICATED",
		"Not authenticated",
	)

	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Input validation failed",
	)

	ErrInternalFailure = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal server error, please try again later",
	)
)

// InvalidCredentialsError is returned for an unknown email or a wrong password.
// Both cases render identically; AttemptsRemaining is only known when the
// account exists and is kept for internal callers.
type InvalidCredentialsError struct {
	attemptsRemaining int
	accountKnown      bool
}

// NewInvalidCredentials returns the error for an unknown email.
func NewInvalidCredentials() *InvalidCredentialsError {
	return &InvalidCredentialsError{}
}

// NewInvalidCredentialsWithAttempts returns the error for a wrong password on an unlocked account.
func NewInvalidCredentialsWithAttempts(attemptsRemaining int) *InvalidCredentialsError {
	return &InvalidCredentialsError{attemptsRemaining: attemptsRemaining, accountKnown: true}
}

// AttemptsRemaining reports how many failures are left before the account locks.
func (e *InvalidCredentialsError) AttemptsRemaining() (int, bool) {
	return e.attemptsRemaining, e.accountKnown
}

func (e *InvalidCredentialsError) Error() string {
	return invalidCredentialsMessage
}

func (e *InvalidCredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

func (e *InvalidCredentialsError) HTTPCode() int     { return ErrInvalidCredentials.HTTPCode() }
func (e *InvalidCredentialsError) ErrorCode() string { return ErrInvalidCredentials.ErrorCode() }
func (e *InvalidCredentialsError) Message() string   { return invalidCredentialsMessage }
func (e *InvalidCredentialsError) Details() any      { return nil }

// AccountLockedError is returned while an account's lock has not expired.
type AccountLockedError struct {
	retryAfter time.Duration
}

// NewAccountLocked returns the error for a lock expiring retryAfter from now.
func NewAccountLocked(retryAfter time.Duration) *AccountLockedError {
	return &AccountLockedError{retryAfter: retryAfter}
}

// RetryAfter is the time left until the lock expires.
func (e *AccountLockedError) RetryAfter() time.Duration {
	return e.retryAfter
}

// RetryAfterMinutes is RetryAfter rounded up to whole minutes.
func (e *AccountLockedError) RetryAfterMinutes() int {
	return int(math.Ceil(e.retryAfter.Minutes()))
}

// RetryAfterSeconds is RetryAfter rounded up to whole seconds.
func (e *AccountLockedError) RetryAfterSeconds() int {
	return int(math.Ceil(e.retryAfter.Seconds()))
}

func (e *AccountLockedError) Error() string {
	return e.Message()
}

func (e *AccountLockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

func (e *AccountLockedError) HTTPCode() int     { return ErrAccountLocked.HTTPCode() }
func (e *AccountLockedError) ErrorCode() string { return ErrAccountLocked.ErrorCode() }

func (e *AccountLockedError) Message() string {
	return fmt.Sprintf("Account is locked. Please try again in %d minutes.", e.RetryAfterMinutes())
}

func (e *AccountLockedError) Details() any {
	return map[string]int{"retryAfterMinutes": e.RetryAfterMinutes()}
}
