// Package scheduler runs the daemon's background loops: re-applying
// the static registration file, sweeping expired registrations, and
// restoring persisted ones at startup.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/slpwire/slpd/internal/logger"
	"github.com/slpwire/slpd/internal/registry"
	"github.com/slpwire/slpd/internal/sources/regfile"
	redisstore "github.com/slpwire/slpd/internal/store/redis"
)

// RegfileReloader periodically re-applies the static registration file.
// Entries removed from the file are deregistered on the next reload.
type RegfileReloader struct {
	loader        *regfile.Loader
	mapper        *regfile.Mapper
	registry      *registry.Registry
	store         *redisstore.Store
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}

	// URLs registered by the previous reload, used to detect removals.
	loaded map[string]bool
}

// NewRegfileReloader creates a reloader for the given file. store may
// be nil when persistence is disabled.
func NewRegfileReloader(
	regFile string,
	reg *registry.Registry,
	store *redisstore.Store,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *RegfileReloader {
	return &RegfileReloader{
		loader:        regfile.NewLoader(regFile),
		mapper:        regfile.NewMapper(),
		registry:      reg,
		store:         store,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
		loaded:        make(map[string]bool),
	}
}

// Start applies the file once, then keeps re-applying it on the
// interval or on a manual trigger.
func (rr *RegfileReloader) Start(ctx context.Context) error {
	if err := rr.Reload(ctx); err != nil {
		return fmt.Errorf("initial reload failed: %w", err)
	}

	ticker := time.NewTicker(rr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := rr.Reload(ctx); err != nil {
					rr.logger.Error("failed to reload registrations",
						logger.Error(err))
				}
			case <-rr.manualTrigger:
				rr.logger.Info("manual reload triggered")
				if err := rr.Reload(ctx); err != nil {
					rr.logger.Error("failed to reload registrations",
						logger.Error(err))
				}
			case <-rr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader.
func (rr *RegfileReloader) Stop() {
	close(rr.stopCh)
}

// Reload loads the file and applies it to registry and store.
func (rr *RegfileReloader) Reload(ctx context.Context) error {
	rr.logger.Info("reloading static registrations")

	file, err := rr.loader.Load()
	if err != nil {
		return err
	}

	entries, mapErrs := rr.mapper.Map(file)
	for _, mapErr := range mapErrs {
		rr.logger.Warn("skipping malformed registration", logger.Error(mapErr))
	}

	current := make(map[string]bool, len(entries))
	for _, entry := range entries {
		current[entry.URL] = true
		if err := rr.registry.Register(entry); err != nil {
			rr.logger.Warn("failed to register static service",
				logger.String("url", entry.URL),
				logger.Error(err))
			continue
		}
	}

	// Deregister what the file no longer lists.
	removed := 0
	for url := range rr.loaded {
		if current[url] {
			continue
		}
		if err := rr.registry.Deregister(url); err != nil {
			// Already gone, either expired or deregistered by hand.
			rr.logger.Debug("stale static registration already removed",
				logger.String("url", url))
		}
		if rr.store != nil {
			if err := rr.store.DeleteEntry(ctx, url); err != nil {
				rr.logger.Warn("failed to delete entry from redis",
					logger.String("url", url),
					logger.Error(err))
			}
		}
		removed++
	}
	rr.loaded = current

	// Persist the batch (best effort).
	if rr.store != nil && len(entries) > 0 {
		if err := rr.store.SaveEntriesMany(ctx, entries); err != nil {
			rr.logger.Warn("failed to persist static registrations",
				logger.Error(err))
		}
	}

	rr.logger.Info("static registrations applied",
		logger.Int("registered", len(entries)),
		logger.Int("removed", removed))
	return nil
}
