package scheduler

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/slpwire/slpd/internal/logger"
	"github.com/slpwire/slpd/internal/registry"
)

// ExpiryPurger periodically sweeps expired registrations out of the
// registry. Lookups already exclude them; the sweep reclaims memory.
// Redis needs no sweep, its TTLs expire entries on their own.
type ExpiryPurger struct {
	registry *registry.Registry
	logger   logger.Logger
	clock    clock.Clock
	interval time.Duration
	stopCh   chan struct{}
}

// NewExpiryPurger creates a purger. The clock is shared with the
// registry so tests drive both from one mock.
func NewExpiryPurger(
	reg *registry.Registry,
	log logger.Logger,
	clk clock.Clock,
	interval time.Duration,
) *ExpiryPurger {
	return &ExpiryPurger{
		registry: reg,
		logger:   log,
		clock:    clk,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep.
func (ep *ExpiryPurger) Start(ctx context.Context) error {
	ticker := ep.clock.Ticker(ep.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ep.Sweep()
			case <-ep.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop stops the purger.
func (ep *ExpiryPurger) Stop() {
	close(ep.stopCh)
}

// Sweep runs one purge pass.
func (ep *ExpiryPurger) Sweep() {
	if purged := ep.registry.Purge(); purged > 0 {
		ep.logger.Info("purged expired registrations",
			logger.Int("count", purged))
	} else {
		ep.logger.Debug("no expired registrations to purge")
	}
}
