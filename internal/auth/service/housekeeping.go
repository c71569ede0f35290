package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/authcore/internal/auth/store"
)

// HousekeepingService sweeps expired token records on a fixed interval.
// Expired records are already rejected on lookup; the sweep only bounds the
// size of the token store.
type HousekeepingService struct {
	Tokens   store.Tokens
	Logger   *slog.Logger
	Interval time.Duration
	Timeout  time.Duration // per sweep

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHousekeepingService returns a service sweeping every interval, or
// hourly when interval is not positive.
func NewHousekeepingService(tokens store.Tokens, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &HousekeepingService{
		Tokens:   tokens,
		Logger:   logger,
		Interval: interval,
		Timeout:  time.Minute,
	}
}

// Start sweeps once, then on every tick until Stop.
func (s *HousekeepingService) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()

		for {
			s.Cleanup(ctx)
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	s.Logger.Info("housekeeping started", "interval", s.Interval)
}

// Stop cancels any sweep in flight and waits for the worker to exit. It is
// a no-op when Start was never called.
func (s *HousekeepingService) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.cancel = nil
	s.Logger.Info("housekeeping stopped")
}

// Cleanup deletes expired token records once and returns how many went.
func (s *HousekeepingService) Cleanup(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	n, err := s.Tokens.DeleteExpiredTokens(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.Logger.Error("expired token sweep failed", "error", err)
		}
		return 0
	}
	if n > 0 {
		s.Logger.Info("expired tokens swept", "deleted", n)
	}
	return n
}
