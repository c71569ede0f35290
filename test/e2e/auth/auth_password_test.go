package auth_test

import (
	"testing"

	"github.com/aussiebroadwan/authcore/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestForgotAndResetPassword tests the reset flow end to end, reading the
// reset link from the delivered email.
func TestForgotAndResetPassword(t *testing.T) {
	srv := setupAuthServer(t, nil)
	client := srv.client()

	// An unknown address is accepted silently.
	require.NoError(t, client.ForgotPassword(t.Context(), "nobody@example.com"))

	require.NoError(t, client.ForgotPassword(t.Context(), adminEmail))
	token := srv.waitForEmailToken(t, "reset-password")

	err := client.ResetPassword(t.Context(), token, "short")
	require.True(t, authsdk.IsBadRequest(err), "Weak password should be rejected, got: %v", err)

	require.NoError(t, client.ResetPassword(t.Context(), token, "NewPassword99"))

	err = client.ResetPassword(t.Context(), token, "OtherPassword99")
	assertUnauthorized(t, err, "Reset token is single use")

	_, err = client.Login(t.Context(), adminEmail, adminPassword)
	assertUnauthorized(t, err, "Old password should no longer work")

	session, err := client.Login(t.Context(), adminEmail, "NewPassword99")
	require.NoError(t, err)
	require.NotEmpty(t, session.AccessToken())
}

// TestResetTokenCannotRefresh verifies purpose binding across flows.
func TestResetTokenCannotRefresh(t *testing.T) {
	srv := setupAuthServer(t, nil)
	client := srv.client()

	require.NoError(t, client.ForgotPassword(t.Context(), adminEmail))
	token := srv.waitForEmailToken(t, "reset-password")

	_, err := client.RefreshTokens(t.Context(), token)
	assertUnauthorized(t, err, "Reset token used as refresh token")

	// Still usable for its own purpose.
	require.NoError(t, client.ResetPassword(t.Context(), token, "NewPassword99"))
}

// TestVerifyEmail tests sending and redeeming a verification link.
func TestVerifyEmail(t *testing.T) {
	srv := setupAuthServer(t, nil)
	client := srv.client()

	session := srv.loginAdmin(t)
	require.False(t, session.User().IsEmailVerified)

	require.NoError(t, session.SendVerificationEmail(t.Context()))
	token := srv.waitForEmailToken(t, "verify-email")

	require.NoError(t, client.VerifyEmail(t.Context(), token))

	err := client.VerifyEmail(t.Context(), token)
	assertUnauthorized(t, err, "Verification token is single use")

	session = srv.loginAdmin(t)
	require.True(t, session.User().IsEmailVerified)
}
