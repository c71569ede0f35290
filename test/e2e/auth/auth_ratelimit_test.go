package auth_test

import (
	"testing"

	"github.com/aussiebroadwan/authcore/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestRateLimitLoginEndpoint verifies that /v1/auth/login is rate limited.
// The strict profile allows 5 requests per minute per IP and email.
func TestRateLimitLoginEndpoint(t *testing.T) {
	srv := setupAuthServerWithDefaultRateLimits(t)
	client := srv.client()

	for i := range 5 {
		_, err := client.Login(t.Context(), "mallory@example.com", "guess12345")
		require.Error(t, err)
		require.False(t, authsdk.IsRateLimited(err), "Should not be rate limited yet (request %d)", i+1)
	}

	_, err := client.Login(t.Context(), "mallory@example.com", "guess12345")
	require.True(t, authsdk.IsRateLimited(err), "Should be rate limited after 5 requests, got: %v", err)

	// The limiter keys on the email as well, so a real user is unaffected.
	_, err = client.Login(t.Context(), adminEmail, adminPassword)
	require.NoError(t, err)
}

// TestRateLimitTOTPVerify verifies brute forcing TOTP codes is throttled
// per user.
func TestRateLimitTOTPVerify(t *testing.T) {
	srv := setupAuthServerWithDefaultRateLimits(t)
	session := srv.loginAdmin(t)

	var lastErr error
	for range 6 {
		_, lastErr = session.VerifyTOTP(t.Context(), "000000")
	}
	require.True(t, authsdk.IsRateLimited(lastErr), "Should be rate limited after 5 attempts, got: %v", lastErr)
}
