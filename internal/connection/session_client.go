package connection

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yndnr/authsession-go/internal/core/domain"
	"github.com/yndnr/authsession-go/internal/telemetry/logger"
)

// Backend authentication endpoints, relative to the base URL.
const (
	LoginPath    = "/auth/login"
	RegisterPath = "/auth/register"
	RefreshPath  = "/auth/refresh"
	LogoutPath   = "/auth/logout"
)

// AccessTokenSource yields the currently stored access token ("" if none).
type AccessTokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// SessionClient performs the authentication round trips.
//
// Each call is exactly one request. Failures come back as
// domain.ErrRequestFailed (the backend said no) or domain.ErrUnexpected
// (the exchange itself broke).
type SessionClient struct {
	http   *HTTPClient
	tokens AccessTokenSource
	logger logger.Logger
}

// NewSessionClient creates a client. tokens is read by Logout only.
func NewSessionClient(httpClient *HTTPClient, tokens AccessTokenSource, log logger.Logger) *SessionClient {
	if log == nil {
		log = logger.Nop()
	}
	return &SessionClient{
		http:   httpClient,
		tokens: tokens,
		logger: log.With("component", "session_client"),
	}
}

// Login exchanges credentials for an identity and a token pair.
func (c *SessionClient) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	return c.authenticate(ctx, LoginPath, creds)
}

// Register creates an account and signs it in.
func (c *SessionClient) Register(ctx context.Context, data domain.RegistrationData) (*domain.AuthResult, error) {
	return c.authenticate(ctx, RegisterPath, data)
}

// Refresh trades a refresh token for a fresh pair.
func (c *SessionClient) Refresh(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
	return c.authenticate(ctx, RefreshPath, struct {
		RefreshToken string `json:"refreshToken"`
	}{refreshToken})
}

// Logout notifies the backend that the stored access token is done.
// It fails with domain.ErrNoSession when no access token is stored.
func (c *SessionClient) Logout(ctx context.Context) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return domain.ErrNoSession
	}
	return c.call(ctx, LogoutPath, BearerHeader(token), nil, nil)
}

func (c *SessionClient) authenticate(ctx context.Context, path string, payload any) (*domain.AuthResult, error) {
	var result domain.AuthResult
	if err := c.call(ctx, path, nil, payload, &result); err != nil {
		return nil, err
	}
	if !result.Tokens.Complete() {
		return nil, domain.ErrUnexpected.WithCause(errors.New("response carries no token pair"))
	}
	return &result, nil
}

func (c *SessionClient) call(ctx context.Context, path string, header http.Header, payload, out any) error {
	var body []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return domain.ErrUnexpected.WithCause(err)
		}
		body = data
	}

	resp, err := c.http.Do(ctx, http.MethodPost, path, body, header)
	if err != nil {
		c.logger.Debug("auth request failed", "path", path, "error", err)
		return domain.ErrUnexpected.WithCause(err)
	}

	if !resp.OK() {
		return domain.ErrRequestFailed.
			WithDetails(FailureMessage(resp.Body, resp.StatusCode)).
			WithStatus(resp.StatusCode)
	}

	if out == nil && len(resp.Body) == 0 {
		return nil
	}

	env, err := DecodeEnvelope(resp.Body)
	if err != nil {
		return domain.ErrUnexpected.WithCause(err)
	}
	if !env.Success() {
		msg := env.Failure()
		if msg == "" {
			msg = FailureMessage(nil, resp.StatusCode)
		}
		return domain.ErrRequestFailed.WithDetails(msg).WithStatus(resp.StatusCode)
	}
	if err := env.DecodeData(out); err != nil {
		return domain.ErrUnexpected.WithCause(err)
	}
	return nil
}
