package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/authcore/internal/auth/domain"
	"github.com/aussiebroadwan/authcore/internal/auth/store"
	"github.com/aussiebroadwan/authcore/pkg/qrx"
	"github.com/aussiebroadwan/authcore/pkg/slogx"
	"github.com/aussiebroadwan/authcore/pkg/totpx"
)

// QRRenderer turns a provisioning URI into a PNG image.
type QRRenderer interface {
	Render(content string) ([]byte, error)
}

// MFAService handles TOTP enrollment and confirmation. Enrollment stores a
// secret with 2FA still disabled; only a successful VerifyTOTP enables it.
type MFAService struct {
	Users        store.Users
	QR           QRRenderer
	Mailer       *Mailer // optional
	Issuer       string  // shown in the authenticator app, e.g. "AuthCore"
	Window       uint
	StoreTimeout time.Duration

	// Now is the verification clock; nil means time.Now.
	Now func() time.Time
}

// EnrollTOTP gives userID a fresh secret and returns the QR code to scan.
// Re-enrolling replaces the previous secret and disables 2FA until the new
// one is confirmed. Delivery of the QR code by email is best effort.
func (s *MFAService) EnrollTOTP(ctx context.Context, userID string) (domain.TOTPEnrollment, error) {
	l := slogx.FromContext(ctx)

	user, err := loadUser(ctx, s.Users, s.StoreTimeout, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return domain.TOTPEnrollment{}, notFound(err)
		}
		return domain.TOTPEnrollment{}, fmt.Errorf("enroll totp: %w", err)
	}

	secret, err := totpx.GenerateSecret()
	if err != nil {
		return domain.TOTPEnrollment{}, fmt.Errorf("enroll totp: %w", err)
	}

	disabled := false
	if err := updateUser(ctx, s.Users, s.StoreTimeout, user.ID, domain.UserUpdate{
		TOTPSecret:   &secret,
		TwoFAEnabled: &disabled,
	}); err != nil {
		return domain.TOTPEnrollment{}, fmt.Errorf("enroll totp: store secret: %w", err)
	}

	uri, err := totpx.ProvisioningURI(secret, s.accountName(user), s.Issuer)
	if err != nil {
		return domain.TOTPEnrollment{}, fmt.Errorf("enroll totp: %w", err)
	}

	png, err := s.QR.Render(uri)
	if err != nil {
		return domain.TOTPEnrollment{}, fmt.Errorf("enroll totp: %w", err)
	}

	if s.Mailer != nil && !s.Mailer.SendTOTPEnrollment(user.ID, user.Email, png) {
		l.Warn("totp enrollment email not queued", "user_id", user.ID)
	}

	l.Info("totp secret issued", "user_id", user.ID)
	return domain.TOTPEnrollment{
		QRCodePNG:     png,
		QRCodeDataURL: qrx.DataURL(png),
	}, nil
}

// VerifyTOTP checks code against the stored secret. A wrong code, or a user
// who never enrolled, yields false with a nil error. A correct code enables
// 2FA.
func (s *MFAService) VerifyTOTP(ctx context.Context, userID, code string) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return false, validation("code is required")
	}

	user, err := loadUser(ctx, s.Users, s.StoreTimeout, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, notFound(err)
		}
		return false, fmt.Errorf("verify totp: %w", err)
	}

	if user.TOTPSecret == nil || *user.TOTPSecret == "" {
		return false, nil
	}

	if !totpx.VerifyAt(*user.TOTPSecret, code, s.window(), s.now()) {
		slogx.FromContext(ctx).Info("totp code rejected", "user_id", user.ID)
		return false, nil
	}

	if !user.TwoFAEnabled {
		enabled := true
		if err := updateUser(ctx, s.Users, s.StoreTimeout, user.ID, domain.UserUpdate{TwoFAEnabled: &enabled}); err != nil {
			return false, fmt.Errorf("verify totp: enable: %w", err)
		}
	}
	return true, nil
}

func (s *MFAService) accountName(u domain.User) string {
	if u.Email != "" {
		return u.Email
	}
	return u.ID
}

func (s *MFAService) window() uint {
	if s.Window == 0 {
		return totpx.DefaultWindow
	}
	return s.Window
}

func (s *MFAService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
