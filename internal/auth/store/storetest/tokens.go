// Package storetest holds behaviour tests shared by every store.Tokens
// driver.
package storetest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/authcore/internal/auth/domain"
	"github.com/aussiebroadwan/authcore/internal/auth/store"
	"github.com/aussiebroadwan/authcore/pkg/cryptox"
	"github.com/aussiebroadwan/authcore/pkg/idx"
	"github.com/stretchr/testify/require"
)

// Setup returns a fresh, empty token store plus two user ids that records
// may reference.
type Setup func(t *testing.T) (tokens store.Tokens, alice, bob string)

// RunTokens runs the token store contract against the driver built by setup.
func RunTokens(t *testing.T, setup Setup) {
	t.Run("CreateAndFind", func(t *testing.T) {
		tokens, alice, _ := setup(t)
		ctx := context.Background()

		rec := newRecord(t, alice, domain.PurposeRefresh, time.Hour)
		require.NoError(t, tokens.CreateToken(ctx, rec))

		got, err := tokens.FindToken(ctx, rec.TokenHash, domain.PurposeRefresh)
		require.NoError(t, err)
		require.Equal(t, rec.ID, got.ID)
		require.Equal(t, alice, got.UserID)
		require.Equal(t, domain.PurposeRefresh, got.Purpose)
		require.False(t, got.Blacklisted)
		require.WithinDuration(t, rec.ExpiresAt, got.ExpiresAt, time.Millisecond)
	})

	t.Run("FindWrongPurpose", func(t *testing.T) {
		tokens, alice, _ := setup(t)
		ctx := context.Background()

		rec := newRecord(t, alice, domain.PurposeRefresh, time.Hour)
		require.NoError(t, tokens.CreateToken(ctx, rec))

		_, err := tokens.FindToken(ctx, rec.TokenHash, domain.PurposeResetPassword)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("FindUnknown", func(t *testing.T) {
		tokens, _, _ := setup(t)
		_, err := tokens.FindToken(context.Background(), "nope", domain.PurposeRefresh)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("ConsumeOnce", func(t *testing.T) {
		tokens, alice, _ := setup(t)
		ctx := context.Background()

		rec := newRecord(t, alice, domain.PurposeResetPassword, time.Hour)
		require.NoError(t, tokens.CreateToken(ctx, rec))

		got, err := tokens.ConsumeToken(ctx, rec.TokenHash, domain.PurposeResetPassword)
		require.NoError(t, err)
		require.Equal(t, rec.ID, got.ID)

		_, err = tokens.ConsumeToken(ctx, rec.TokenHash, domain.PurposeResetPassword)
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = tokens.FindToken(ctx, rec.TokenHash, domain.PurposeResetPassword)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("ConsumeConcurrent", func(t *testing.T) {
		tokens, alice, _ := setup(t)
		ctx := context.Background()

		rec := newRecord(t, alice, domain.PurposeRefresh, time.Hour)
		require.NoError(t, tokens.CreateToken(ctx, rec))

		const workers = 16
		var (
			wg     sync.WaitGroup
			wins   atomic.Int32
			misses atomic.Int32
		)
		start := make(chan struct{})
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := tokens.ConsumeToken(ctx, rec.TokenHash, domain.PurposeRefresh)
				switch {
				case err == nil:
					wins.Add(1)
				case errors.Is(err, store.ErrNotFound):
					misses.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		require.EqualValues(t, 1, wins.Load())
		require.EqualValues(t, workers-1, misses.Load())
	})

	t.Run("BlacklistedIsInvisible", func(t *testing.T) {
		tokens, alice, _ := setup(t)
		ctx := context.Background()

		rec := newRecord(t, alice, domain.PurposeVerifyEmail, time.Hour)
		rec.Blacklisted = true
		require.NoError(t, tokens.CreateToken(ctx, rec))

		_, err := tokens.FindToken(ctx, rec.TokenHash, domain.PurposeVerifyEmail)
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = tokens.ConsumeToken(ctx, rec.TokenHash, domain.PurposeVerifyEmail)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("ExpiredIsInvisible", func(t *testing.T) {
		tokens, alice, _ := setup(t)
		ctx := context.Background()

		rec := newRecord(t, alice, domain.PurposeRefresh, -time.Minute)
		require.NoError(t, tokens.CreateToken(ctx, rec))

		_, err := tokens.FindToken(ctx, rec.TokenHash, domain.PurposeRefresh)
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = tokens.ConsumeToken(ctx, rec.TokenHash, domain.PurposeRefresh)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("DeleteTokensForSubject", func(t *testing.T) {
		tokens, alice, bob := setup(t)
		ctx := context.Background()

		a1 := newRecord(t, alice, domain.PurposeResetPassword, time.Hour)
		a2 := newRecord(t, alice, domain.PurposeResetPassword, time.Hour)
		aRefresh := newRecord(t, alice, domain.PurposeRefresh, time.Hour)
		b1 := newRecord(t, bob, domain.PurposeResetPassword, time.Hour)
		for _, rec := range []domain.TokenRecord{a1, a2, aRefresh, b1} {
			require.NoError(t, tokens.CreateToken(ctx, rec))
		}

		n, err := tokens.DeleteTokensForSubject(ctx, alice, domain.PurposeResetPassword)
		require.NoError(t, err)
		require.EqualValues(t, 2, n)

		for _, rec := range []domain.TokenRecord{a1, a2} {
			_, err := tokens.FindToken(ctx, rec.TokenHash, rec.Purpose)
			require.ErrorIs(t, err, store.ErrNotFound)
		}
		for _, rec := range []domain.TokenRecord{aRefresh, b1} {
			_, err := tokens.FindToken(ctx, rec.TokenHash, rec.Purpose)
			require.NoError(t, err)
		}

		n, err = tokens.DeleteTokensForSubject(ctx, alice, domain.PurposeResetPassword)
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("DeleteExpiredTokens", func(t *testing.T) {
		tokens, alice, _ := setup(t)
		ctx := context.Background()

		live := newRecord(t, alice, domain.PurposeRefresh, time.Hour)
		dead := newRecord(t, alice, domain.PurposeRefresh, -time.Minute)
		require.NoError(t, tokens.CreateToken(ctx, live))
		require.NoError(t, tokens.CreateToken(ctx, dead))

		n, err := tokens.DeleteExpiredTokens(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		_, err = tokens.FindToken(ctx, live.TokenHash, domain.PurposeRefresh)
		require.NoError(t, err)
	})
}

func newRecord(t *testing.T, userID string, purpose domain.Purpose, ttl time.Duration) domain.TokenRecord {
	t.Helper()
	raw, err := cryptox.RandomString(cryptox.SecretSize)
	require.NoError(t, err)
	now := time.Now().UTC().Truncate(time.Millisecond)
	return domain.TokenRecord{
		ID:        idx.New().String(),
		TokenHash: cryptox.FingerprintToken(raw),
		UserID:    userID,
		Purpose:   purpose,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}
