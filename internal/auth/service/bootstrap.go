package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/aussiebroadwan/authcore/internal/auth/domain"
	"github.com/aussiebroadwan/authcore/internal/auth/store"
	"github.com/aussiebroadwan/authcore/pkg/idx"
	"github.com/aussiebroadwan/authcore/pkg/slogx"
)

var ErrBootstrapAlready = errors.New("system already bootstrapped")

// BootstrapService seeds the first account so a fresh deployment can be
// logged into. It does nothing once any user exists.
type BootstrapService struct {
	Users  store.Users
	Hasher PasswordHasher
}

// IsBootstrapped reports whether at least one user exists.
func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Users.IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

// Bootstrap creates the initial user. The account starts with a verified
// email since it was configured by the operator.
func (s *BootstrapService) Bootstrap(ctx context.Context, email, password, name string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	// 1. Check if already bootstrapped
	if bootstrapped, err := s.IsBootstrapped(ctx); err != nil {
		return domain.User{}, err
	} else if bootstrapped {
		return domain.User{}, ErrBootstrapAlready
	}

	// 2. Validate input
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.User{}, validation("bootstrap email is invalid")
	}
	if err := ValidatePassword(password); err != nil {
		return domain.User{}, err
	}

	// 3. Hash password
	digest, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash bootstrap password: %w", err)
	}

	// 4. Create user
	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: digest,
	}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrBootstrapAlready
		}
		return domain.User{}, fmt.Errorf("create bootstrap user: %w", err)
	}

	l.Info("bootstrapped initial user", slog.String("user_id", user.ID))
	return user, nil
}
