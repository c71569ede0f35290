package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/aussiebroadwan/authcore/internal/auth/domain"
	"github.com/aussiebroadwan/authcore/internal/auth/store"
	"github.com/aussiebroadwan/authcore/pkg/slogx"
)

// PasswordHasher hashes and checks passwords. Verify must take the same time
// whether or not the password matches.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// MinPasswordLength is the shortest password ResetPassword accepts.
const MinPasswordLength = 8

// AuthService runs the credential and single-use token flows.
type AuthService struct {
	Users        store.Users
	Tokens       *TokenService
	Hasher       PasswordHasher
	Mailer       *Mailer
	StoreTimeout time.Duration

	dummyMu   sync.Mutex
	dummyHash string
}

// Login checks email and password. An unknown email and a wrong password are
// indistinguishable to the caller, in both message and timing.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.User{}, validation("email and password are required")
	}

	rctx, cancel := context.WithTimeout(ctx, storeTimeout(s.StoreTimeout))
	defer cancel()

	user, err := s.Users.GetUserByEmail(rctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.Hasher.Verify(password, s.dummy(ctx))
			return domain.User{}, unauthorized(MsgIncorrectCredentials, ErrUserNotFound)
		}
		return domain.User{}, fmt.Errorf("login: %w", err)
	}

	if !s.Hasher.Verify(password, user.PasswordHash) {
		slogx.FromContext(ctx).Info("login rejected", "user_id", user.ID)
		return domain.User{}, unauthorized(MsgIncorrectCredentials, nil)
	}

	return user, nil
}

// Logout spends the refresh token. A token that was already spent, or never
// existed, is reported as not found.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return validation("refresh token is required")
	}

	_, err := s.Tokens.ConsumeToken(ctx, refreshToken, domain.PurposeRefresh)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return notFound(err)
		}
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Refresh rotates a refresh token: the presented token is consumed and a new
// pair is issued. When the same token is presented concurrently only one
// caller gets a pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.AuthTokens, error) {
	fail := func(err error) (domain.AuthTokens, error) {
		return domain.AuthTokens{}, unauthorized(MsgPleaseAuthenticate, err)
	}

	if refreshToken == "" {
		return domain.AuthTokens{}, validation("refresh token is required")
	}

	rec, err := s.Tokens.VerifyToken(ctx, refreshToken, domain.PurposeRefresh)
	if err != nil {
		return fail(err)
	}

	user, err := s.loadUser(ctx, rec.UserID)
	if err != nil {
		return fail(err)
	}

	if _, err := s.Tokens.ConsumeToken(ctx, refreshToken, domain.PurposeRefresh); err != nil {
		return fail(err)
	}

	tokens, err := s.Tokens.GenerateAuthTokens(ctx, user)
	if err != nil {
		return fail(err)
	}
	return tokens, nil
}

// ForgotPassword issues a reset token and queues the reset email. An unknown
// email returns nil so the endpoint cannot be used to enumerate accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return validation("email is required")
	}

	rctx, cancel := context.WithTimeout(ctx, storeTimeout(s.StoreTimeout))
	defer cancel()

	user, err := s.Users.GetUserByEmail(rctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Debug("forgot password for unknown email")
			return nil
		}
		return fmt.Errorf("forgot password: %w", err)
	}

	tok, err := s.Tokens.GeneratePurposeToken(ctx, user, domain.PurposeResetPassword)
	if err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}

	if s.Mailer != nil {
		s.Mailer.SendResetPassword(user.Email, tok.Value)
	}
	return nil
}

// ResetPassword sets a new password using a reset token. On success every
// outstanding reset token of the user is revoked.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	fail := func(err error) error {
		return unauthorized(MsgPasswordResetFailed, err)
	}

	if token == "" {
		return validation("token is required")
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	if _, err := s.Tokens.VerifyToken(ctx, token, domain.PurposeResetPassword); err != nil {
		return fail(err)
	}

	rec, err := s.Tokens.ConsumeToken(ctx, token, domain.PurposeResetPassword)
	if err != nil {
		return fail(err)
	}

	user, err := s.loadUser(ctx, rec.UserID)
	if err != nil {
		return fail(err)
	}

	digest, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return fail(err)
	}

	if err := s.updateUser(ctx, user.ID, domain.UserUpdate{PasswordHash: &digest}); err != nil {
		return fail(err)
	}

	if _, err := s.Tokens.RevokeAll(ctx, user.ID, domain.PurposeResetPassword); err != nil {
		return fail(err)
	}

	slogx.FromContext(ctx).Info("password reset", "user_id", user.ID)
	return nil
}

// SendVerificationEmail issues a verify-email token for userID and queues
// the email.
func (s *AuthService) SendVerificationEmail(ctx context.Context, userID string) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return notFound(err)
		}
		return fmt.Errorf("send verification email: %w", err)
	}

	tok, err := s.Tokens.GeneratePurposeToken(ctx, user, domain.PurposeVerifyEmail)
	if err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}

	if s.Mailer != nil {
		s.Mailer.SendVerification(user.Email, tok.Value)
	}
	return nil
}

// VerifyEmail marks the owner of token as verified and revokes any other
// verification tokens they hold.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	fail := func(err error) error {
		return unauthorized(MsgEmailVerificationFailed, err)
	}

	if token == "" {
		return validation("token is required")
	}

	if _, err := s.Tokens.VerifyToken(ctx, token, domain.PurposeVerifyEmail); err != nil {
		return fail(err)
	}

	rec, err := s.Tokens.ConsumeToken(ctx, token, domain.PurposeVerifyEmail)
	if err != nil {
		return fail(err)
	}

	user, err := s.loadUser(ctx, rec.UserID)
	if err != nil {
		return fail(err)
	}

	if _, err := s.Tokens.RevokeAll(ctx, user.ID, domain.PurposeVerifyEmail); err != nil {
		return fail(err)
	}

	verified := true
	if err := s.updateUser(ctx, user.ID, domain.UserUpdate{EmailVerified: &verified}); err != nil {
		return fail(err)
	}
	return nil
}

// ValidatePassword enforces the password policy: at least MinPasswordLength
// characters with at least one letter and one digit.
func ValidatePassword(p string) error {
	if len(p) < MinPasswordLength {
		return validation(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	var letter, digit bool
	for _, r := range p {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return validation("password must contain at least 1 letter and 1 number")
	}
	return nil
}

func (s *AuthService) loadUser(ctx context.Context, userID string) (domain.User, error) {
	return loadUser(ctx, s.Users, s.StoreTimeout, userID)
}

func (s *AuthService) updateUser(ctx context.Context, userID string, upd domain.UserUpdate) error {
	return updateUser(ctx, s.Users, s.StoreTimeout, userID, upd)
}

// dummy returns a real hash of a throwaway password so that Login spends the
// same hashing time for unknown emails. A failed hash is not cached; the
// miss that hit it pays for a fresh attempt instead of returning early.
func (s *AuthService) dummy(ctx context.Context) string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()

	if s.dummyHash != "" {
		return s.dummyHash
	}
	h, err := s.Hasher.Hash("authcore-dummy-password")
	if err != nil {
		slogx.FromContext(ctx).Error("hash dummy password", "err", err)
		return ""
	}
	s.dummyHash = h
	return h
}

func loadUser(ctx context.Context, users store.Users, timeout time.Duration, userID string) (domain.User, error) {
	rctx, cancel := context.WithTimeout(ctx, storeTimeout(timeout))
	defer cancel()

	user, err := users.GetUserByID(rctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func updateUser(
	ctx context.Context,
	users store.Users,
	timeout time.Duration,
	userID string,
	upd domain.UserUpdate,
) error {
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout(timeout))
	defer cancel()

	if err := users.UpdateUser(mctx, userID, upd); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
