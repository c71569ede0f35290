package authsdk

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// refreshLeeway refreshes the access token this long before it expires.
const refreshLeeway = 30 * time.Second

// Session represents an authenticated user. It refreshes the access token
// transparently when it is about to expire. Safe for concurrent use.
type Session struct {
	client *SDKClient

	mu     sync.RWMutex
	user   User
	tokens AuthTokens
}

func newSession(c *SDKClient, user User, tokens AuthTokens) *Session {
	return &Session{client: c, user: user, tokens: tokens}
}

// getValidToken returns a valid access token, refreshing if necessary.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Add(refreshLeeway).Before(s.tokens.Access.Expires) {
		token := s.tokens.Access.Token
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	// Token expired, need to refresh
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock (another goroutine may have refreshed)
	if time.Now().Add(refreshLeeway).Before(s.tokens.Access.Expires) {
		return s.tokens.Access.Token, nil
	}

	if err := s.refreshLocked(ctx); err != nil {
		return "", err
	}
	return s.tokens.Access.Token, nil
}

func (s *Session) refreshLocked(ctx context.Context) error {
	if s.tokens.Refresh.Token == "" {
		return fmt.Errorf("access token expired and no refresh token available")
	}

	tokens, err := s.client.RefreshTokens(ctx, s.tokens.Refresh.Token)
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}
	s.tokens = tokens
	return nil
}

// Refresh rotates the token pair now.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

// Logout spends the refresh token. The session is unusable afterwards.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.client.Logout(ctx, s.tokens.Refresh.Token); err != nil {
		return err
	}
	s.tokens = AuthTokens{}
	return nil
}

// SendVerificationEmail asks the service to email a verification link.
func (s *Session) SendVerificationEmail(ctx context.Context) error {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return err
	}
	return s.client.do(ctx, http.MethodPost, "/v1/auth/send-verification-email", token, nil, nil)
}

// EnrollTOTP starts two-factor enrollment and returns the QR code to scan.
// 2FA stays disabled until VerifyTOTP succeeds.
func (s *Session) EnrollTOTP(ctx context.Context) (*TOTPEnrollResponse, error) {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return nil, err
	}

	var resp TOTPEnrollResponse
	if err := s.client.do(ctx, http.MethodPost, "/v1/auth/2fa/enroll", token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyTOTP submits a code from the authenticator app.
func (s *Session) VerifyTOTP(ctx context.Context, code string) (bool, error) {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return false, err
	}

	var resp TOTPVerifyResponse
	if err := s.client.do(ctx, http.MethodPost, "/v1/auth/2fa/verify", token, TOTPVerifyRequest{Code: code}, &resp); err != nil {
		return false, err
	}
	return resp.Verified, nil
}

// User returns the account the session was created for. It is empty for
// sessions resumed with NewSessionFromTokens.
func (s *Session) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// AccessToken returns the current access token without checking expiration.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.Access.Token
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.Refresh.Token
}
