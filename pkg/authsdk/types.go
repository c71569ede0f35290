package authsdk

import "time"

// ============================================================================
// Requests
// ============================================================================

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"    example:"alice@example.com"`
	Password string `json:"password" example:"password1"`
}

// RefreshTokenRequest is the body of POST /v1/auth/refresh-tokens and
// POST /v1/auth/logout.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ForgotPasswordRequest is the body of POST /v1/auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" example:"alice@example.com"`
}

// ResetPasswordRequest is the body of POST /v1/auth/reset-password. The reset
// token travels in the query string.
type ResetPasswordRequest struct {
	Password string `json:"password" example:"newpassword1"`
}

// TOTPVerifyRequest is the body of POST /v1/auth/2fa/verify.
type TOTPVerifyRequest struct {
	Code string `json:"code" example:"123456"`
}

// ============================================================================
// Responses
// ============================================================================

// Token is a signed token and the instant it stops being valid.
type Token struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// AuthTokens is an access/refresh pair.
type AuthTokens struct {
	Access  Token `json:"access"`
	Refresh Token `json:"refresh"`
}

// User is the public view of an account.
type User struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	IsEmailVerified bool   `json:"is_email_verified"`
	TwoFAEnabled    bool   `json:"two_fa_enabled"`
}

// LoginResponse is returned by POST /v1/auth/login.
type LoginResponse struct {
	User   User       `json:"user"`
	Tokens AuthTokens `json:"tokens"`
}

// TOTPEnrollResponse carries the QR code to scan as a data: URL.
type TOTPEnrollResponse struct {
	QRCode string `json:"qr_code"`
}

// TOTPVerifyResponse reports whether the submitted code matched.
type TOTPVerifyResponse struct {
	Verified bool `json:"verified"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
