package domain

import "time"

type User struct {
	ID            string
	Email         string
	Name          string
	PasswordHash  string  // argon2 encoded
	TOTPSecret    *string // base32, nil until the first enrollment
	TwoFAEnabled  bool    // true only after a code was confirmed
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserUpdate is a partial update; nil fields are left untouched.
type UserUpdate struct {
	Name          *string
	PasswordHash  *string
	TOTPSecret    *string
	TwoFAEnabled  *bool
	EmailVerified *bool
}

// IsEmpty reports whether the update changes nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.PasswordHash == nil && u.TOTPSecret == nil &&
		u.TwoFAEnabled == nil && u.EmailVerified == nil
}
