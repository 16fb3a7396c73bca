package service

import (
	"context"
	"log"
	"sync"
	"time"
)

// ExpiredListingCleaner retires listings whose expiry has passed and
// reports how many were retired.
type ExpiredListingCleaner interface {
	CleanExpiredListings(ctx context.Context) int
}

// SweeperConfig holds configuration for the expiry sweeper.
type SweeperConfig struct {
	// SweepInterval is how often the sweep runs.
	// Default: 10 minutes
	SweepInterval time.Duration

	// SweepTimeout bounds a single sweep cycle.
	// Default: 1 minute
	SweepTimeout time.Duration
}

// DefaultSweeperConfig returns default sweeper configuration.
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		SweepInterval: 10 * time.Minute,
		SweepTimeout:  1 * time.Minute,
	}
}

// ExpirySweeper runs periodic cleanup of expired listings. A failed cycle
// only delays those listings until the next one; it never stops the loop.
type ExpirySweeper struct {
	cleaner   ExpiredListingCleaner
	config    SweeperConfig
	ticker    *time.Ticker
	stopCh    chan struct{}
	isRunning bool
	mu        sync.Mutex
}

// NewExpirySweeper creates a new expiry sweeper.
func NewExpirySweeper(cleaner ExpiredListingCleaner, config SweeperConfig) *ExpirySweeper {
	if config.SweepInterval == 0 {
		config.SweepInterval = 10 * time.Minute
	}
	if config.SweepTimeout == 0 {
		config.SweepTimeout = 1 * time.Minute
	}

	return &ExpirySweeper{
		cleaner: cleaner,
		config:  config,
	}
}

// Start begins the sweep loop. Calling Start on a running sweeper is a
// no-op; a stopped sweeper may be started again.
func (s *ExpirySweeper) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	// Fresh ticker and stop channel per run so a restart does not see the
	// closed channel from the previous run.
	s.ticker = time.NewTicker(s.config.SweepInterval)
	s.stopCh = make(chan struct{})
	ticker, stopCh := s.ticker, s.stopCh
	s.mu.Unlock()

	log.Printf("[ExpirySweeper] Started - Interval: %v", s.config.SweepInterval)

	go s.run(ticker, stopCh)
}

// run is the main sweep loop.
func (s *ExpirySweeper) run(ticker *time.Ticker, stopCh chan struct{}) {
	for {
		select {
		case <-ticker.C:
			s.runSweep()
		case <-stopCh:
			log.Printf("[ExpirySweeper] Stopped")
			return
		}
	}
}

// runSweep performs one sweep cycle with its own error boundary.
func (s *ExpirySweeper) runSweep() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ExpirySweeper] Sweep panicked: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.SweepTimeout)
	defer cancel()

	retired := s.cleaner.CleanExpiredListings(ctx)
	if retired > 0 {
		log.Printf("[ExpirySweeper] Retired %d expired listings", retired)
	}
}

// Stop stops the sweeper. Safe to call more than once.
func (s *ExpirySweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	s.isRunning = false
	s.ticker.Stop()
	close(s.stopCh)
}

// RunNow triggers an immediate sweep and returns the number of listings
// retired.
func (s *ExpirySweeper) RunNow() int {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.SweepTimeout)
	defer cancel()

	return s.cleaner.CleanExpiredListings(ctx)
}
