package domain

import (
	"fmt"
	"time"
)

// Purpose binds a token to the single operation it may be used for.
type Purpose string

const (
	PurposeAccess        Purpose = "access"
	PurposeRefresh       Purpose = "refresh"
	PurposeResetPassword Purpose = "resetPassword"
	PurposeVerifyEmail   Purpose = "verifyEmail"
)

// ParsePurpose validates s as a known purpose.
func ParsePurpose(s string) (Purpose, error) {
	switch p := Purpose(s); p {
	case PurposeAccess, PurposeRefresh, PurposeResetPassword, PurposeVerifyEmail:
		return p, nil
	}
	return "", fmt.Errorf("domain: unknown token purpose %q", s)
}

// Persisted reports whether tokens of this purpose have a store record and
// can therefore be revoked and consumed exactly once. Access tokens are
// stateless.
func (p Purpose) Persisted() bool {
	switch p {
	case PurposeRefresh, PurposeResetPassword, PurposeVerifyEmail:
		return true
	}
	return false
}

// TokenRecord is the stored form of a persisted token. The token value is
// never stored, only its fingerprint.
type TokenRecord struct {
	ID          string
	TokenHash   string
	UserID      string
	Purpose     Purpose
	ExpiresAt   time.Time
	Blacklisted bool
	CreatedAt   time.Time
}

// Expired reports whether the record is past its expiry at now.
func (r TokenRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// IssuedToken is a token value handed to a client.
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// AuthTokens is the pair returned by login and refresh.
type AuthTokens struct {
	Access  IssuedToken
	Refresh IssuedToken
}
