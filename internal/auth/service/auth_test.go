package service

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/authcore/internal/auth/domain"
	"github.com/aussiebroadwan/authcore/pkg/jwtx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var linkRe = regexp.MustCompile(`https?://\S+`)

// linkToken pulls the token query parameter out of the first link in text.
func linkToken(t *testing.T, text string) string {
	t.Helper()
	raw := linkRe.FindString(text)
	require.NotEmpty(t, raw, "no link in %q", text)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	tok := u.Query().Get("token")
	require.NotEmpty(t, tok)
	return tok
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
		wantMsg  string
	}{
		{name: "success", email: "alice@example.com", password: testPassword},
		{name: "email is case insensitive", email: "ALICE@example.com", password: testPassword},
		{name: "wrong password", email: "alice@example.com", password: "password2", wantErr: ErrUnauthorized, wantMsg: MsgIncorrectCredentials},
		{name: "unknown email", email: "nobody@example.com", password: testPassword, wantErr: ErrUnauthorized, wantMsg: MsgIncorrectCredentials},
		{name: "missing password", email: "alice@example.com", wantErr: ErrValidation},
		{name: "missing email", password: testPassword, wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := env.auth.Login(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				if tt.wantMsg != "" {
					var se *Error
					require.ErrorAs(t, err, &se)
					require.Equal(t, tt.wantMsg, se.Message)
				}
				return
			}
			require.NoError(t, err)
			require.Equal(t, env.user.ID, user.ID)
		})
	}

	t.Run("unknown email and wrong password read the same", func(t *testing.T) {
		_, unknown := env.auth.Login(ctx, "nobody@example.com", testPassword)
		_, wrong := env.auth.Login(ctx, "alice@example.com", "password2")
		require.Error(t, unknown)
		require.Error(t, wrong)
		require.Equal(t, wrong.Error(), unknown.Error())
		require.Equal(t, MsgIncorrectCredentials, unknown.Error())
	})
}

// flakyHasher fails its first Hash call and records the digests Verify sees.
type flakyHasher struct {
	PasswordHasher
	mu       sync.Mutex
	failures int
	verified []string
}

func (h *flakyHasher) Hash(plain string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failures > 0 {
		h.failures--
		return "", errors.New("entropy unavailable")
	}
	return h.PasswordHasher.Hash(plain)
}

func (h *flakyHasher) Verify(plain, digest string) bool {
	h.mu.Lock()
	h.verified = append(h.verified, digest)
	h.mu.Unlock()
	return h.PasswordHasher.Verify(plain, digest)
}

func TestLoginUnknownEmailRetriesDummyHash(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hasher := &flakyHasher{PasswordHasher: env.auth.Hasher, failures: 1}
	env.auth.Hasher = hasher

	_, err := env.auth.Login(ctx, "nobody@example.com", testPassword)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = env.auth.Login(ctx, "nobody@example.com", testPassword)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = env.auth.Login(ctx, "ghost@example.com", testPassword)
	require.ErrorIs(t, err, ErrUnauthorized)

	require.Len(t, hasher.verified, 3)
	require.Empty(t, hasher.verified[0], "first miss has no dummy hash")
	require.NotEmpty(t, hasher.verified[1], "failed hash is retried on the next miss")
	require.Equal(t, hasher.verified[1], hasher.verified[2], "successful hash is reused")
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pair, err := env.tokens.GenerateAuthTokens(ctx, env.user)
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, pair.Refresh.Value))
	require.ErrorIs(t, env.auth.Logout(ctx, pair.Refresh.Value), ErrNotFound)

	_, err = env.auth.Refresh(ctx, pair.Refresh.Value)
	require.ErrorIs(t, err, ErrUnauthorized)

	require.ErrorIs(t, env.auth.Logout(ctx, ""), ErrValidation)

	// An expired refresh token that housekeeping has not swept yet is treated
	// as absent; the sweep removes its record.
	env.tokens.Now = func() time.Time { return time.Now().Add(-2 * jwtx.DefaultRefreshTokenTTL) }
	stale, err := env.tokens.GenerateAuthTokens(ctx, env.user)
	require.NoError(t, err)
	env.tokens.Now = nil

	require.ErrorIs(t, env.auth.Logout(ctx, stale.Refresh.Value), ErrNotFound)
	n, err := env.store.Tokens().DeleteExpiredTokens(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestRefreshRotates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.tokens.GenerateAuthTokens(ctx, env.user)
	require.NoError(t, err)

	second, err := env.auth.Refresh(ctx, first.Refresh.Value)
	require.NoError(t, err)
	require.NotEqual(t, first.Refresh.Value, second.Refresh.Value)

	_, err = env.tokens.VerifyAccess(ctx, second.Access.Value)
	require.NoError(t, err)

	// The old refresh token is spent.
	_, err = env.auth.Refresh(ctx, first.Refresh.Value)
	require.ErrorIs(t, err, ErrUnauthorized)
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, MsgPleaseAuthenticate, se.Message)

	_, err = env.auth.Refresh(ctx, second.Refresh.Value)
	require.NoError(t, err)
}

func TestRefreshRejectsOtherPurposes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pair, err := env.tokens.GenerateAuthTokens(ctx, env.user)
	require.NoError(t, err)
	reset, err := env.tokens.GeneratePurposeToken(ctx, env.user, domain.PurposeResetPassword)
	require.NoError(t, err)

	for _, v := range []string{pair.Access.Value, reset.Value, "garbage"} {
		_, err := env.auth.Refresh(ctx, v)
		require.ErrorIs(t, err, ErrUnauthorized)
	}

	// The reset token was not consumed by the failed refresh.
	_, err = env.tokens.VerifyToken(ctx, reset.Value, domain.PurposeResetPassword)
	require.NoError(t, err)
}

func TestRefreshConcurrentSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pair, err := env.tokens.GenerateAuthTokens(ctx, env.user)
	require.NoError(t, err)

	const callers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	start := make(chan struct{})
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := env.auth.Refresh(ctx, pair.Refresh.Value)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrUnauthorized)
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, 1, wins)
}

func TestForgotPassword(t *testing.T) {
	t.Run("unknown email sends nothing", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.auth.ForgotPassword(context.Background(), "nobody@example.com"))
		env.drain()
		require.Empty(t, env.sender.messages())
	})

	t.Run("known email gets a reset link", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.auth.ForgotPassword(context.Background(), "alice@example.com"))
		env.drain()

		msgs := env.sender.messages()
		require.Len(t, msgs, 1)
		require.Equal(t, "alice@example.com", msgs[0].To)
		require.Equal(t, "Reset password", msgs[0].Subject)
		require.Contains(t, msgs[0].Text, "http://link-to-app/reset-password?token=")

		tok := linkToken(t, msgs[0].Text)
		_, err := env.tokens.VerifyToken(context.Background(), tok, domain.PurposeResetPassword)
		require.NoError(t, err)
	})

	t.Run("empty email", func(t *testing.T) {
		env := newTestEnv(t)
		require.ErrorIs(t, env.auth.ForgotPassword(context.Background(), " "), ErrValidation)
	})
}

func TestResetPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.tokens.GeneratePurposeToken(ctx, env.user, domain.PurposeResetPassword)
	require.NoError(t, err)
	second, err := env.tokens.GeneratePurposeToken(ctx, env.user, domain.PurposeResetPassword)
	require.NoError(t, err)

	t.Run("weak password", func(t *testing.T) {
		err := env.auth.ResetPassword(ctx, first.Value, "short1")
		require.ErrorIs(t, err, ErrValidation)
		err = env.auth.ResetPassword(ctx, first.Value, "onlyletters")
		require.ErrorIs(t, err, ErrValidation)

		// Validation failures leave the token usable.
		_, err = env.tokens.VerifyToken(ctx, first.Value, domain.PurposeResetPassword)
		require.NoError(t, err)
	})

	t.Run("wrong purpose", func(t *testing.T) {
		pair, err := env.tokens.GenerateAuthTokens(ctx, env.user)
		require.NoError(t, err)
		err = env.auth.ResetPassword(ctx, pair.Refresh.Value, "newpassword1")
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("success", func(t *testing.T) {
		require.NoError(t, env.auth.ResetPassword(ctx, first.Value, "newpassword1"))

		_, err := env.auth.Login(ctx, "alice@example.com", testPassword)
		require.ErrorIs(t, err, ErrUnauthorized)
		_, err = env.auth.Login(ctx, "alice@example.com", "newpassword1")
		require.NoError(t, err)
	})

	t.Run("replay and sibling tokens are revoked", func(t *testing.T) {
		err := env.auth.ResetPassword(ctx, first.Value, "another1pass")
		require.ErrorIs(t, err, ErrUnauthorized)
		var se *Error
		require.ErrorAs(t, err, &se)
		require.Equal(t, MsgPasswordResetFailed, se.Message)

		err = env.auth.ResetPassword(ctx, second.Value, "another1pass")
		require.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestVerifyEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.False(t, env.reloadUser(t).EmailVerified)

	require.NoError(t, env.auth.SendVerificationEmail(ctx, env.user.ID))
	other, err := env.tokens.GeneratePurposeToken(ctx, env.user, domain.PurposeVerifyEmail)
	require.NoError(t, err)
	env.drain()

	msgs := env.sender.messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "Email Verification", msgs[0].Subject)
	require.Contains(t, msgs[0].Text, "http://link-to-app/verify-email?token=")
	tok := linkToken(t, msgs[0].Text)

	require.NoError(t, env.auth.VerifyEmail(ctx, tok))
	require.True(t, env.reloadUser(t).EmailVerified)

	err = env.auth.VerifyEmail(ctx, tok)
	require.ErrorIs(t, err, ErrUnauthorized)
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, MsgEmailVerificationFailed, se.Message)

	require.ErrorIs(t, env.auth.VerifyEmail(ctx, other.Value), ErrUnauthorized)
	require.ErrorIs(t, env.auth.VerifyEmail(ctx, ""), ErrValidation)
}

func TestSendVerificationEmailUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	err := env.auth.SendVerificationEmail(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestValidatePassword(t *testing.T) {
	for p, ok := range map[string]bool{
		"password1":    true,
		"1234abcd":     true,
		"short1":       false,
		"abcdefghij":   false,
		"1234567890":   false,
		"":             false,
		"pässwört1234": true,
	} {
		err := ValidatePassword(p)
		if ok {
			require.NoError(t, err, p)
		} else {
			require.ErrorIs(t, err, ErrValidation, p)
		}
	}
}
