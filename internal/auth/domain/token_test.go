package domain_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/authcore/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestParsePurpose(t *testing.T) {
	for _, s := range []string{"access", "refresh", "resetPassword", "verifyEmail"} {
		p, err := domain.ParsePurpose(s)
		require.NoError(t, err)
		require.Equal(t, domain.Purpose(s), p)
	}

	_, err := domain.ParsePurpose("ACCESS")
	require.Error(t, err)
}

func TestPurposePersisted(t *testing.T) {
	require.False(t, domain.PurposeAccess.Persisted())
	require.True(t, domain.PurposeRefresh.Persisted())
	require.True(t, domain.PurposeResetPassword.Persisted())
	require.True(t, domain.PurposeVerifyEmail.Persisted())
	require.False(t, domain.Purpose("bogus").Persisted())
}

func TestTokenRecordExpired(t *testing.T) {
	now := time.Now()
	require.False(t, domain.TokenRecord{ExpiresAt: now.Add(time.Second)}.Expired(now))
	require.True(t, domain.TokenRecord{ExpiresAt: now}.Expired(now))
}

func TestUserUpdateIsEmpty(t *testing.T) {
	require.True(t, domain.UserUpdate{}.IsEmpty())
	verified := true
	require.False(t, domain.UserUpdate{EmailVerified: &verified}.IsEmpty())
}
