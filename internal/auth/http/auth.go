package http

import (
	"net/http"

	"github.com/aussiebroadwan/authcore/internal/auth/domain"
	"github.com/aussiebroadwan/authcore/internal/auth/service"
	"github.com/aussiebroadwan/authcore/pkg/authsdk"
	"github.com/aussiebroadwan/authcore/pkg/httpx"
	"github.com/aussiebroadwan/authcore/pkg/slogx"
)

// AuthHandler serves the credential and single-use token endpoints.
type AuthHandler struct {
	AuthService  *service.AuthService
	TokenService *service.TokenService
}

// HandleLogin handles POST /v1/auth/login
//
//	@Summary		Log in
//	@Description	Checks email and password and issues an access/refresh token pair.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.LoginResponse	"User and tokens"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Missing email or password"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Incorrect email or password"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limited"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	user, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	tokens, err := h.TokenService.GenerateAuthTokens(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("user logged in", "user_id", user.ID)
	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		User:   toUser(user),
		Tokens: toTokens(tokens),
	})
}

// HandleLogout handles POST /v1/auth/logout
//
//	@Summary		Log out
//	@Description	Spends the refresh token.
//	@Tags			Auth
//	@Accept			json
//	@Param			request	body	authsdk.RefreshTokenRequest	true	"Refresh token"
//	@Success		204		"Logged out"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Missing refresh token"
//	@Failure		404		{object}	authsdk.ErrorResponse	"Unknown or already spent refresh token"
//	@Router			/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshTokenRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	if err := h.AuthService.Logout(r.Context(), req.RefreshToken); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRefresh handles POST /v1/auth/refresh-tokens
//
//	@Summary		Rotate tokens
//	@Description	Spends the refresh token and issues a new pair. Concurrent use of the same token yields one pair.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshTokenRequest	true	"Refresh token"
//	@Success		200		{object}	authsdk.AuthTokens			"New token pair"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Please authenticate"
//	@Router			/v1/auth/refresh-tokens [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshTokenRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	tokens, err := h.AuthService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toTokens(tokens))
}

// HandleForgotPassword handles POST /v1/auth/forgot-password
//
//	@Summary		Request a password reset
//	@Description	Emails a reset link. Responds 204 whether or not the address is registered.
//	@Tags			Auth
//	@Accept			json
//	@Param			request	body	authsdk.ForgotPasswordRequest	true	"Email"
//	@Success		204		"Accepted"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Missing email"
//	@Router			/v1/auth/forgot-password [post].
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ForgotPasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	if err := h.AuthService.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleResetPassword handles POST /v1/auth/reset-password
//
//	@Summary		Reset password
//	@Description	Sets a new password using the token from the reset email.
//	@Tags			Auth
//	@Accept			json
//	@Param			token	query	string							true	"Reset token"
//	@Param			request	body	authsdk.ResetPasswordRequest	true	"New password"
//	@Success		204		"Password changed"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Weak password or missing token"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Password reset failed"
//	@Router			/v1/auth/reset-password [post].
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ResetPasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	token := r.URL.Query().Get("token")
	if err := h.AuthService.ResetPassword(r.Context(), token, req.Password); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSendVerificationEmail handles POST /v1/auth/send-verification-email
//
//	@Summary		Send verification email
//	@Description	Emails a verification link to the authenticated user.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Success		204	"Queued"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Router			/v1/auth/send-verification-email [post].
func (h *AuthHandler) HandleSendVerificationEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpx.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, service.MsgPleaseAuthenticate)
		return
	}

	if err := h.AuthService.SendVerificationEmail(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleVerifyEmail handles POST /v1/auth/verify-email
//
//	@Summary		Verify email
//	@Description	Marks the address verified using the token from the verification email.
//	@Tags			Auth
//	@Param			token	query	string	true	"Verification token"
//	@Success		204		"Verified"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Missing token"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Email verification failed"
//	@Router			/v1/auth/verify-email [post].
func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if err := h.AuthService.VerifyEmail(r.Context(), token); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toUser(u domain.User) authsdk.User {
	return authsdk.User{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		IsEmailVerified: u.EmailVerified,
		TwoFAEnabled:    u.TwoFAEnabled,
	}
}

func toTokens(t domain.AuthTokens) authsdk.AuthTokens {
	return authsdk.AuthTokens{
		Access:  authsdk.Token{Token: t.Access.Value, Expires: t.Access.ExpiresAt},
		Refresh: authsdk.Token{Token: t.Refresh.Value, Expires: t.Refresh.ExpiresAt},
	}
}
