package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/authcore/pkg/totpx"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestEnrollTOTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	enr, err := env.mfa.EnrollTOTP(ctx, env.user.ID)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(enr.QRCodePNG, pngMagic))
	require.True(t, strings.HasPrefix(enr.QRCodeDataURL, "data:image/png;base64,"))

	u := env.reloadUser(t)
	require.NotNil(t, u.TOTPSecret)
	require.NotEmpty(t, *u.TOTPSecret)
	require.False(t, u.TwoFAEnabled)

	env.drain()

	msgs := env.sender.messages()
	require.Len(t, msgs, 1)
	msg := msgs[0]
	require.Equal(t, "alice@example.com", msg.To)
	require.Equal(t, "Your 2FA Secret", msg.Subject)
	require.Contains(t, msg.HTML, `src="https://assets.example.com/qrcode/`+env.user.ID+`.png"`)
	require.Len(t, msg.Attachments, 1)
	require.Equal(t, "qrCode.png", msg.Attachments[0].Name)
	require.Equal(t, "qrCode.png", msg.Attachments[0].ContentID)
	require.Equal(t, enr.QRCodePNG, msg.Attachments[0].Content)

	require.Contains(t, env.assets.uploads, "qrcode/"+env.user.ID+".png")
}

func TestEnrollTOTPUploadFailureFallsBackToInline(t *testing.T) {
	env := newTestEnv(t)
	env.assets.fail = true

	_, err := env.mfa.EnrollTOTP(context.Background(), env.user.ID)
	require.NoError(t, err)
	env.drain()

	msgs := env.sender.messages()
	require.Len(t, msgs, 1)
	require.Contains(t, msgs[0].HTML, `src="cid:qrCode.png"`)
	require.Len(t, msgs[0].Attachments, 1)
}

func TestEnrollTOTPUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.mfa.EnrollTOTP(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyTOTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("not enrolled", func(t *testing.T) {
		ok, err := env.mfa.VerifyTOTP(ctx, env.user.ID, "123456")
		require.NoError(t, err)
		require.False(t, ok)
	})

	_, err := env.mfa.EnrollTOTP(ctx, env.user.ID)
	require.NoError(t, err)
	secret := *env.reloadUser(t).TOTPSecret

	t.Run("wrong code", func(t *testing.T) {
		code, err := totpx.GenerateCode(secret, time.Now().Add(-10*time.Minute))
		require.NoError(t, err)

		ok, err := env.mfa.VerifyTOTP(ctx, env.user.ID, code)
		require.NoError(t, err)
		require.False(t, ok)
		require.False(t, env.reloadUser(t).TwoFAEnabled)
	})

	t.Run("empty code", func(t *testing.T) {
		_, err := env.mfa.VerifyTOTP(ctx, env.user.ID, "  ")
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.mfa.VerifyTOTP(ctx, "missing", "123456")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("correct code enables 2fa", func(t *testing.T) {
		code, err := totpx.GenerateCode(secret, time.Now())
		require.NoError(t, err)

		ok, err := env.mfa.VerifyTOTP(ctx, env.user.ID, code)
		require.NoError(t, err)
		require.True(t, ok)
		require.True(t, env.reloadUser(t).TwoFAEnabled)
	})

	t.Run("re-enroll replaces the secret", func(t *testing.T) {
		_, err := env.mfa.EnrollTOTP(ctx, env.user.ID)
		require.NoError(t, err)

		u := env.reloadUser(t)
		require.NotEqual(t, secret, *u.TOTPSecret)
		require.False(t, u.TwoFAEnabled)
	})
}

func TestVerifyTOTPWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.mfa.EnrollTOTP(ctx, env.user.ID)
	require.NoError(t, err)
	secret := *env.reloadUser(t).TOTPSecret

	now := time.Date(2026, 1, 1, 12, 0, 15, 0, time.UTC)
	env.mfa.Now = func() time.Time { return now }

	prev, err := totpx.GenerateCode(secret, now.Add(-30*time.Second))
	require.NoError(t, err)
	stale, err := totpx.GenerateCode(secret, now.Add(-90*time.Second))
	require.NoError(t, err)

	ok, err := env.mfa.VerifyTOTP(ctx, env.user.ID, stale)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = env.mfa.VerifyTOTP(ctx, env.user.ID, prev)
	require.NoError(t, err)
	require.True(t, ok)
}
