package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/slpwire/slpd/internal/logger"
	"github.com/slpwire/slpd/internal/registry"
	"github.com/slpwire/slpd/internal/slp"
	redisstore "github.com/slpwire/slpd/internal/store/redis"
)

type Deps struct {
	Logger        logger.Logger
	StartTime     time.Time
	Version       string
	Commit        string
	BuildDate     string
	GoVersion     string
	AllowedCIDRS  []string           // IPs allowed to reach the admin API
	TrustProxy    bool               // true if running behind a trusted reverse proxy
	Registry      *registry.Registry // the live service registry
	Store         *redisstore.Store  // persistence, nil when disabled
	RedisClient   *redis.Client      // nil when persistence disabled
	AgentScopes   slp.ScopeSet       // the agent's configured scope set
	SelfURL       string             // the agent's service-agent URL
	ReloadTrigger chan struct{}      // manual regfile reload, nil when no regfile
}
