package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/authcore/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/authcore/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func newBootstrapService(t *testing.T) *BootstrapService {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	return &BootstrapService{
		Users:  s.Users(),
		Hasher: cryptox.NewArgon2Hasher("").WithParams(testArgon2Params),
	}
}

func TestBootstrap(t *testing.T) {
	svc := newBootstrapService(t)
	ctx := context.Background()

	ok, err := svc.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	user, err := svc.Bootstrap(ctx, " admin@example.com ", "admin1234", "Admin")
	require.NoError(t, err)
	require.Equal(t, "admin@example.com", user.Email)
	require.False(t, user.EmailVerified, "bootstrapped accounts verify their email like any other")
	require.True(t, svc.Hasher.Verify("admin1234", user.PasswordHash))

	ok, err = svc.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.Bootstrap(ctx, "other@example.com", "admin1234", "Other")
	require.ErrorIs(t, err, ErrBootstrapAlready)
}

func TestBootstrapValidation(t *testing.T) {
	svc := newBootstrapService(t)
	ctx := context.Background()

	_, err := svc.Bootstrap(ctx, "not-an-email", "admin1234", "Admin")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Bootstrap(ctx, "admin@example.com", "weak", "Admin")
	require.ErrorIs(t, err, ErrValidation)

	ok, err := svc.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}
