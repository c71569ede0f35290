/*
Package authsdk provides a client SDK for the authcore authentication service.

# SDKClient vs Session

  - SDKClient: unauthenticated operations (login, refresh, password reset,
    email verification, health) and the entry point for sessions.
  - Session: operations that need a bearer access token (verification email,
    two-factor enrollment). The access token is refreshed automatically.

	client := authsdk.NewSDKClient("https://auth.example.com")

	session, err := client.Login(ctx, "alice@example.com", "password1")
	if err != nil {
		if authsdk.IsUnauthorized(err) {
			// wrong email or password
		}
		return err
	}
	defer session.Logout(ctx)

	enroll, err := session.EnrollTOTP(ctx)
	// render enroll.QRCode (a data: URL) and ask the user for a code
	ok, err := session.VerifyTOTP(ctx, code)

# Token rotation

Refresh tokens are single use. Every refresh, whether explicit through
Session.Refresh or implicit when the access token is about to expire, spends
the current refresh token and stores the new pair. Persist RefreshToken after
calls if the session must survive a restart.

# Errors

Non-2xx responses are returned as *APIError. IsUnauthorized, IsNotFound,
IsBadRequest and IsRateLimited classify them.
*/
package authsdk
