package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/authcore/internal/auth/domain"
	"github.com/aussiebroadwan/authcore/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingCleanup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.tokens.Now = func() time.Time { return time.Now().Add(-time.Hour) }
	_, err := env.tokens.GeneratePurposeToken(ctx, env.user, domain.PurposeVerifyEmail)
	require.NoError(t, err)
	env.tokens.Now = nil

	live, err := env.tokens.GeneratePurposeToken(ctx, env.user, domain.PurposeVerifyEmail)
	require.NoError(t, err)

	hk := NewHousekeepingService(env.store.Tokens(), slogx.Discard(), time.Hour)
	require.EqualValues(t, 1, hk.Cleanup(ctx))
	require.EqualValues(t, 0, hk.Cleanup(ctx))

	_, err = env.tokens.VerifyToken(ctx, live.Value, domain.PurposeVerifyEmail)
	require.NoError(t, err)
}

func TestHousekeepingStartStop(t *testing.T) {
	env := newTestEnv(t)

	env.tokens.Now = func() time.Time { return time.Now().Add(-time.Hour) }
	_, err := env.tokens.GeneratePurposeToken(context.Background(), env.user, domain.PurposeResetPassword)
	require.NoError(t, err)

	hk := NewHousekeepingService(env.store.Tokens(), slogx.Discard(), 0)
	require.Equal(t, time.Hour, hk.Interval)

	hk.Start()
	require.Eventually(t, func() bool {
		return hk.Cleanup(context.Background()) == 0
	}, time.Second, 10*time.Millisecond)
	hk.Stop()
}

func TestHousekeepingStopWithoutStart(t *testing.T) {
	env := newTestEnv(t)
	hk := NewHousekeepingService(env.store.Tokens(), slogx.Discard(), time.Minute)
	hk.Stop()
}
