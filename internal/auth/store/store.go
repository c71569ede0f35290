package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/authcore/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement this
// and expose sub-repositories to keep concerns tidy and testable.
//
// There is no transaction API. Every multi-step flow in the service layer is
// ordered so that the only step needing atomicity (consuming a token) is a
// single conditional delete inside the driver.
type Store interface {
	Users() Users
	Tokens() Tokens

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login and forgot-password. Lookups are
	// case-insensitive.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUser applies the non-nil fields of upd and bumps updated_at.
	UpdateUser(ctx context.Context, id string, upd domain.UserUpdate) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

// Tokens persists refresh, reset-password and verify-email tokens by
// fingerprint. Access tokens never reach the store.
type Tokens interface {
	// CreateToken stores a new token record.
	CreateToken(ctx context.Context, t domain.TokenRecord) error

	// FindToken returns the live (unexpired, not blacklisted) record for
	// hash and purpose.
	FindToken(ctx context.Context, hash string, purpose domain.Purpose) (domain.TokenRecord, error)

	// ConsumeToken atomically deletes the non-blacklisted record for hash and
	// purpose and returns it. Of any number of concurrent callers at most one
	// receives the record; the rest get ErrNotFound.
	ConsumeToken(ctx context.Context, hash string, purpose domain.Purpose) (domain.TokenRecord, error)

	// DeleteTokensForSubject removes every record of purpose for userID.
	DeleteTokensForSubject(ctx context.Context, userID string, purpose domain.Purpose) (int64, error)

	// DeleteExpiredTokens is housekeeping.
	DeleteExpiredTokens(ctx context.Context) (int64, error)
}
