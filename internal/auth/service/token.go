package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/authcore/internal/auth/domain"
	"github.com/aussiebroadwan/authcore/internal/auth/store"
	"github.com/aussiebroadwan/authcore/pkg/cryptox"
	"github.com/aussiebroadwan/authcore/pkg/idx"
	"github.com/aussiebroadwan/authcore/pkg/jwtx"
)

// DefaultStoreTimeout bounds a single store call.
const DefaultStoreTimeout = 5 * time.Second

// TokenService mints, verifies and consumes purpose-bound tokens. Every
// token is an EdDSA JWT whose typ claim carries the purpose; persisted
// purposes additionally have a store record keyed by the token fingerprint.
type TokenService struct {
	KeyManager *jwtx.KeyManager
	Tokens     store.Tokens
	Issuer     string

	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	ResetPasswordTTL time.Duration
	VerifyEmailTTL   time.Duration

	StoreTimeout time.Duration

	// Now is the issuing clock; nil means time.Now.
	Now func() time.Time
}

// GenerateAuthTokens issues an access and refresh pair for user. The refresh
// record is persisted before the pair is returned.
func (s *TokenService) GenerateAuthTokens(ctx context.Context, user domain.User) (domain.AuthTokens, error) {
	now := s.now()

	access, err := s.sign(user.ID, domain.PurposeAccess, now)
	if err != nil {
		return domain.AuthTokens{}, err
	}

	refresh, err := s.sign(user.ID, domain.PurposeRefresh, now)
	if err != nil {
		return domain.AuthTokens{}, err
	}
	if err := s.persist(ctx, user.ID, domain.PurposeRefresh, refresh, now); err != nil {
		return domain.AuthTokens{}, err
	}

	return domain.AuthTokens{Access: access, Refresh: refresh}, nil
}

// GeneratePurposeToken issues a single-use token (password reset, email
// verification) and persists its record.
func (s *TokenService) GeneratePurposeToken(
	ctx context.Context,
	user domain.User,
	purpose domain.Purpose,
) (domain.IssuedToken, error) {
	if !purpose.Persisted() {
		return domain.IssuedToken{}, fmt.Errorf("%w: %q", ErrInvalidPurpose, purpose)
	}

	now := s.now()
	tok, err := s.sign(user.ID, purpose, now)
	if err != nil {
		return domain.IssuedToken{}, err
	}
	if err := s.persist(ctx, user.ID, purpose, tok, now); err != nil {
		return domain.IssuedToken{}, err
	}
	return tok, nil
}

// VerifyToken checks signature, issuer, expiry and purpose of value and, for
// persisted purposes, that a live record still exists. It never mutates.
//
// For access tokens the returned record is synthesised from the claims.
func (s *TokenService) VerifyToken(
	ctx context.Context,
	value string,
	expected domain.Purpose,
) (domain.TokenRecord, error) {
	claims, err := s.verifyClaims(value)
	if err != nil {
		return domain.TokenRecord{}, err
	}

	purpose, err := domain.ParsePurpose(claims.Type)
	if err != nil {
		return domain.TokenRecord{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if purpose != expected {
		return domain.TokenRecord{}, ErrPurposeMismatch
	}

	switch purpose {
	case domain.PurposeAccess:
		rec := domain.TokenRecord{
			ID:      claims.ID,
			UserID:  claims.Subject,
			Purpose: purpose,
		}
		if claims.ExpiresAt != nil {
			rec.ExpiresAt = claims.ExpiresAt.Time
		}
		if claims.IssuedAt != nil {
			rec.CreatedAt = claims.IssuedAt.Time
		}
		return rec, nil

	case domain.PurposeRefresh, domain.PurposeResetPassword, domain.PurposeVerifyEmail:
		rctx, cancel := s.readCtx(ctx)
		defer cancel()

		rec, err := s.Tokens.FindToken(rctx, cryptox.FingerprintToken(value), purpose)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.TokenRecord{}, ErrTokenNotFound
			}
			return domain.TokenRecord{}, err
		}
		if rec.UserID != claims.Subject {
			return domain.TokenRecord{}, ErrInvalidToken
		}
		return rec, nil
	}

	return domain.TokenRecord{}, ErrInvalidToken
}

// VerifyAccess is the stateless bearer check used by the HTTP middleware.
func (s *TokenService) VerifyAccess(_ context.Context, value string) (jwtx.Claims, error) {
	claims, err := s.verifyClaims(value)
	if err != nil {
		return jwtx.Claims{}, err
	}
	if err := claims.ValidateType(string(domain.PurposeAccess)); err != nil {
		return jwtx.Claims{}, ErrPurposeMismatch
	}
	return claims, nil
}

// ConsumeToken atomically removes the record behind value. Exactly one of
// any number of concurrent callers succeeds; the rest get ErrTokenNotFound.
// The delete runs detached from ctx so a cancelled request can never leave
// the caller unsure whether the token was spent.
func (s *TokenService) ConsumeToken(
	ctx context.Context,
	value string,
	purpose domain.Purpose,
) (domain.TokenRecord, error) {
	if !purpose.Persisted() {
		return domain.TokenRecord{}, fmt.Errorf("%w: %q", ErrInvalidPurpose, purpose)
	}

	mctx, cancel := s.mutationCtx(ctx)
	defer cancel()

	rec, err := s.Tokens.ConsumeToken(mctx, cryptox.FingerprintToken(value), purpose)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenRecord{}, ErrTokenNotFound
		}
		return domain.TokenRecord{}, err
	}
	return rec, nil
}

// RevokeAll deletes every record of purpose belonging to userID.
func (s *TokenService) RevokeAll(ctx context.Context, userID string, purpose domain.Purpose) (int64, error) {
	if !purpose.Persisted() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPurpose, purpose)
	}

	mctx, cancel := s.mutationCtx(ctx)
	defer cancel()

	return s.Tokens.DeleteTokensForSubject(mctx, userID, purpose)
}

func (s *TokenService) verifyClaims(value string) (jwtx.Claims, error) {
	if value == "" {
		return jwtx.Claims{}, ErrInvalidToken
	}

	claims, err := s.KeyManager.Verifier.Verify(value)
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return jwtx.Claims{}, ErrExpiredToken
		}
		return jwtx.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return jwtx.Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) sign(userID string, purpose domain.Purpose, now time.Time) (domain.IssuedToken, error) {
	signer := s.KeyManager.GetSigner()
	if signer == nil {
		return domain.IssuedToken{}, errors.New("service: no signing key available")
	}

	claims := jwtx.NewClaims(userID, string(purpose), s.ttl(purpose), s.Issuer, now)
	value, err := signer.Sign(claims)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("sign %s token: %w", purpose, err)
	}
	return domain.IssuedToken{Value: value, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (s *TokenService) persist(
	ctx context.Context,
	userID string,
	purpose domain.Purpose,
	tok domain.IssuedToken,
	now time.Time,
) error {
	mctx, cancel := s.mutationCtx(ctx)
	defer cancel()

	err := s.Tokens.CreateToken(mctx, domain.TokenRecord{
		ID:        idx.NewAt(now).String(),
		TokenHash: cryptox.FingerprintToken(tok.Value),
		UserID:    userID,
		Purpose:   purpose,
		ExpiresAt: tok.ExpiresAt,
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("persist %s token: %w", purpose, err)
	}
	return nil
}

func (s *TokenService) ttl(purpose domain.Purpose) time.Duration {
	pick := func(v, def time.Duration) time.Duration {
		if v > 0 {
			return v
		}
		return def
	}

	switch purpose {
	case domain.PurposeAccess:
		return pick(s.AccessTTL, jwtx.DefaultAccessTokenTTL)
	case domain.PurposeRefresh:
		return pick(s.RefreshTTL, jwtx.DefaultRefreshTokenTTL)
	case domain.PurposeResetPassword:
		return pick(s.ResetPasswordTTL, jwtx.DefaultActionTokenTTL)
	case domain.PurposeVerifyEmail:
		return pick(s.VerifyEmailTTL, jwtx.DefaultActionTokenTTL)
	}
	return jwtx.DefaultActionTokenTTL
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *TokenService) readCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, storeTimeout(s.StoreTimeout))
}

func (s *TokenService) mutationCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), storeTimeout(s.StoreTimeout))
}

func storeTimeout(d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return DefaultStoreTimeout
}
