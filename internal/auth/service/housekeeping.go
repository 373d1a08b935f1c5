package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/lumastore/auth/internal/auth/store"
)

// HousekeepingService periodically deletes expired verification codes and
// refresh tokens so the tables do not grow without bound. Correctness never
// depends on it: expiry is checked lazily wherever a record is used.
type HousekeepingService struct {
	Store    store.Store
	Codes    store.VerificationCodes
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the service. Codes may differ from the
// store's own repository when OTPs live in Redis. An interval of 0 or less
// defaults to 1 hour.
func NewHousekeepingService(st store.Store, codes store.VerificationCodes, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &HousekeepingService{
		Store:    st,
		Codes:    codes,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background worker. Non-blocking; pair with Stop.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping started", "interval", s.Interval)
}

// Stop shuts the worker down and waits for any in-progress sweep.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep deletes expired rows. The deletions are independent; one failing
// does not stop the other.
func (s *HousekeepingService) sweep() {
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.Codes.DeleteExpiredVerificationCodes(ctx, now); err != nil {
		s.Logger.Error("housekeeping: expired verification codes", "error", err)
	}
	if err := s.Store.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now); err != nil {
		s.Logger.Error("housekeeping: expired refresh tokens", "error", err)
	}

	s.Logger.Debug("housekeeping sweep completed")
}
