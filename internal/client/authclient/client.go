// Package authclient is a Go client for the authentication HTTP API.
// It applies the transport-hash to raw passwords before they leave the process.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/errors"
	"gatekeeper/internal/infra/auth"

	"github.com/google/uuid"
)

// Account is the public summary of an account.
type Account struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token   string   `json:"token"`
	Account *Account `json:"account"`
}

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status     int
	Code       string
	Message    string
	Details    map[string]any
	RetryAfter time.Duration // Set from the Retry-After header, if any.
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth api: %d %s: %s", e.Status, e.Code, e.Message)
}

// Client calls the authentication API at BaseURL.
type Client struct {
	BaseURL string
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

// Register creates an account and returns its first token.
func (cl *Client) Register(ctx context.Context, email, rawPassword string) (*AuthResult, error) {
	return cl.authenticate(ctx, "/auth/register", email, rawPassword)
}

// Login exchanges credentials for a token.
func (cl *Client) Login(ctx context.Context, email, rawPassword string) (*AuthResult, error) {
	return cl.authenticate(ctx, "/auth/login", email, rawPassword)
}

// Logout acknowledges the token's owner. The token stays valid until it expires.
func (cl *Client) Logout(ctx context.Context, token string) error {
	return cl.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

// Me returns the account owning token, or nil for an anonymous caller.
func (cl *Client) Me(ctx context.Context, token string) (*Account, error) {
	var account *Account
	if err := cl.do(ctx, http.MethodGet, "/auth/me", token, nil, &account); err != nil {
		return nil, err
	}

	return account, nil
}

func (cl *Client) authenticate(ctx context.Context, path, email, rawPassword string) (*AuthResult, error) {
	body := credentials{Email: email, Password: auth.TransportHash(rawPassword)}

	var result AuthResult
	if err := cl.do(ctx, http.MethodPost, path, "", body, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (cl *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(cl.BaseURL, "/")+path, reqBody)
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if requestID := deliverycontext.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set(deliverycontext.HeaderXRequestID, requestID)
	}

	resp, err := cl.httpClient().Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return errors.Wrapf(err, "decode %s response (status %d)", path, resp.StatusCode)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return newAPIError(resp, &env)
	}

	if out == nil {
		return nil
	}

	return errors.Wrap(json.Unmarshal(env.Data, out), "decode response data")
}

func (cl *Client) httpClient() *http.Client {
	if cl.HTTPClient != nil {
		return cl.HTTPClient
	}

	return http.DefaultClient
}

func newAPIError(resp *http.Response, env *envelope) *APIError {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	if env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.Details = env.Error.Details
	}
	if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
		apiErr.RetryAfter = time.Duration(seconds) * time.Second
	}

	return apiErr
}
