package http

import (
	"net/http"

	"github.com/aussiebroadwan/authcore/internal/auth/service"
	"github.com/aussiebroadwan/authcore/pkg/authsdk"
	"github.com/aussiebroadwan/authcore/pkg/httpx"
)

// MFAHandler handles the two-factor endpoints.
type MFAHandler struct {
	MFAService *service.MFAService
}

// HandleEnroll handles POST /v1/auth/2fa/enroll
//
//	@Summary		Enroll in TOTP 2FA
//	@Description	Generates a new TOTP secret for the authenticated user and returns its QR code.
//	@Description	The QR code is also emailed. 2FA stays disabled until a code is verified.
//	@Tags			2FA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.TOTPEnrollResponse	"QR code as a data URL"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Invalid or missing access token"
//	@Failure		500	{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/auth/2fa/enroll [post].
func (h *MFAHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpx.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, service.MsgPleaseAuthenticate)
		return
	}

	enrollment, err := h.MFAService.EnrollTOTP(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TOTPEnrollResponse{
		QRCode: enrollment.QRCodeDataURL,
	})
}

// HandleVerify handles POST /v1/auth/2fa/verify
//
//	@Summary		Verify a TOTP code
//	@Description	Checks a code from the authenticator app. The first correct code enables 2FA.
//	@Tags			2FA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.TOTPVerifyRequest	true	"TOTP code"
//	@Success		200		{object}	authsdk.TOTPVerifyResponse	"Whether the code matched"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Missing code"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Invalid or missing access token"
//	@Router			/v1/auth/2fa/verify [post].
func (h *MFAHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpx.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, service.MsgPleaseAuthenticate)
		return
	}

	var req authsdk.TOTPVerifyRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	verified, err := h.MFAService.VerifyTOTP(r.Context(), userID, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TOTPVerifyResponse{Verified: verified})
}
