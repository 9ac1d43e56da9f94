package scheduler

import (
	"context"

	"github.com/slpwire/slpd/internal/logger"
	"github.com/slpwire/slpd/internal/registry"
	redisstore "github.com/slpwire/slpd/internal/store/redis"
)

// RedisSyncer restores persisted registrations into the registry on
// startup.
type RedisSyncer struct {
	store    *redisstore.Store
	registry *registry.Registry
	logger   logger.Logger
}

// NewRedisSyncer creates a new Redis syncer.
func NewRedisSyncer(
	store *redisstore.Store,
	reg *registry.Registry,
	log logger.Logger,
) *RedisSyncer {
	return &RedisSyncer{
		store:    store,
		registry: reg,
		logger:   log,
	}
}

// Sync loads registrations from Redis and re-registers them. Entries
// that fail to register are logged and skipped.
func (rs *RedisSyncer) Sync(ctx context.Context) error {
	rs.logger.Info("restoring registrations from redis")

	entries, err := rs.store.GetAllEntries(ctx)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		rs.logger.Info("no registrations found in redis")
		return nil
	}

	restored := 0
	for _, entry := range entries {
		if err := rs.registry.Register(entry); err != nil {
			rs.logger.Warn("skipping persisted entry",
				logger.String("url", entry.URL),
				logger.Error(err))
			continue
		}
		restored++
	}

	rs.logger.Info("restored registrations from redis",
		logger.Int("count", restored))
	return nil
}
