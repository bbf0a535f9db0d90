package service

import (
	"log/slog"
	"time"

	"github.com/tapdeck-labs/deckd/internal/deck/store"
)

// SweeperService periodically drops expired pairing challenges and trust
// records so the ledger maps don't grow without bound. Expiry itself is
// enforced on every ledger access; the sweeper is purely housekeeping.
type SweeperService struct {
	Ledger   *store.Ledger
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSweeperService creates the sweeper. If interval is 0 or negative,
// defaults to 1 minute.
func NewSweeperService(ledger *store.Ledger, logger *slog.Logger, interval time.Duration) *SweeperService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SweeperService{
		Ledger:   ledger,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *SweeperService) Start() {
	go s.run()
	s.Logger.Info("ledger sweeper started", "interval", s.Interval)
}

// Stop shuts the worker down and blocks until it has finished.
func (s *SweeperService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("ledger sweeper stopped")
}

func (s *SweeperService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if dropped := s.Ledger.SweepExpired(time.Now()); dropped > 0 {
				s.Logger.Debug("swept expired ledger entries", "dropped", dropped)
			}
		case <-s.stopCh:
			return
		}
	}
}
