package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SDKClient is a client for the authcore service.
// It provides access to unauthenticated operations and can create authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login authenticates with email and password and returns a Session holding
// the issued token pair.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*Session, error) {
	var resp LoginResponse
	err := c.do(ctx, http.MethodPost, "/v1/auth/login", "", LoginRequest{
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return newSession(c, resp.User, resp.Tokens), nil
}

// NewSessionFromTokens resumes a session from a stored token pair.
func (c *SDKClient) NewSessionFromTokens(tokens AuthTokens) *Session {
	return newSession(c, User{}, tokens)
}

// RefreshTokens exchanges a refresh token for a new pair. The presented token
// is spent even if the response is lost.
func (c *SDKClient) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	var tokens AuthTokens
	err := c.do(ctx, http.MethodPost, "/v1/auth/refresh-tokens", "", RefreshTokenRequest{
		RefreshToken: refreshToken,
	}, &tokens)
	return tokens, err
}

// Logout spends refreshToken.
func (c *SDKClient) Logout(ctx context.Context, refreshToken string) error {
	return c.do(ctx, http.MethodPost, "/v1/auth/logout", "", RefreshTokenRequest{
		RefreshToken: refreshToken,
	}, nil)
}

// ForgotPassword asks for a reset email. It succeeds for unknown addresses.
func (c *SDKClient) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/v1/auth/forgot-password", "", ForgotPasswordRequest{Email: email}, nil)
}

// ResetPassword sets a new password using the token from the reset email.
func (c *SDKClient) ResetPassword(ctx context.Context, token, password string) error {
	path := "/v1/auth/reset-password?token=" + url.QueryEscape(token)
	return c.do(ctx, http.MethodPost, path, "", ResetPasswordRequest{Password: password}, nil)
}

// VerifyEmail confirms an address using the token from the verification email.
func (c *SDKClient) VerifyEmail(ctx context.Context, token string) error {
	path := "/v1/auth/verify-email?token=" + url.QueryEscape(token)
	return c.do(ctx, http.MethodPost, path, "", nil, nil)
}

// GetLiveness calls /livez.
func (c *SDKClient) GetLiveness(ctx context.Context) (HealthResponse, error) {
	var resp HealthResponse
	err := c.do(ctx, http.MethodGet, "/livez", "", nil, &resp)
	return resp, err
}

// GetReadiness calls /readyz.
func (c *SDKClient) GetReadiness(ctx context.Context) (HealthResponse, error) {
	var resp HealthResponse
	err := c.do(ctx, http.MethodGet, "/readyz", "", nil, &resp)
	return resp, err
}
