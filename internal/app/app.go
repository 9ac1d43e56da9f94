package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	goredis "github.com/redis/go-redis/v9"

	"github.com/slpwire/slpd/internal/agent"
	"github.com/slpwire/slpd/internal/config"
	"github.com/slpwire/slpd/internal/httpserver"
	"github.com/slpwire/slpd/internal/httpserver/deps"
	"github.com/slpwire/slpd/internal/logger"
	"github.com/slpwire/slpd/internal/redis"
	"github.com/slpwire/slpd/internal/registry"
	"github.com/slpwire/slpd/internal/scheduler"
	"github.com/slpwire/slpd/internal/slp"
	redisstore "github.com/slpwire/slpd/internal/store/redis"
	"github.com/slpwire/slpd/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	udpServer   *agent.Server
	httpServer  *httpserver.Server
	redisClient *goredis.Client
	registry    *registry.Registry
	reloader    *scheduler.RegfileReloader
	purger      *scheduler.ExpiryPurger
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Persistence is optional: no Redis address means memory only.
	var redisClient *goredis.Client
	var store *redisstore.Store
	if cfg.RedisAddr != "" {
		client, err := redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		redisClient = client
		store = redisstore.NewStore(client)
	} else {
		loggerClient.Info("no redis address configured, registrations are memory only")
	}

	clk := clock.New()
	reg := registry.New(clk)

	// Restore persisted registrations before answering anything.
	if store != nil {
		syncer := scheduler.NewRedisSyncer(store, reg, loggerClient)
		if err := syncer.Sync(context.Background()); err != nil {
			loggerClient.Warn("failed to restore registrations from redis",
				logger.Error(err))
		}
	}

	agentCfg := agent.Config{
		Enabled:    cfg.EnableSA,
		Scopes:     slp.ParseScopes(cfg.Scopes),
		Address:    cfg.LocalIP,
		InitialXID: cfg.InitialXID,
	}
	dispatcher := agent.NewDispatcher(agentCfg, reg, loggerClient)
	udpServer := agent.NewServer(agentCfg, dispatcher, loggerClient)

	// Static registration file (optional).
	var reloader *scheduler.RegfileReloader
	var reloadTrigger chan struct{}
	if cfg.RegFile != "" {
		loggerClient.Info("registration file configured",
			logger.String("file", cfg.RegFile))
		reloadTrigger = make(chan struct{}, 1)
		reloader = scheduler.NewRegfileReloader(
			cfg.RegFile,
			reg,
			store,
			loggerClient,
			cfg.ReloadInterval,
			reloadTrigger,
		)
	} else {
		loggerClient.Info("no registration file configured")
	}

	purger := scheduler.NewExpiryPurger(reg, loggerClient, clk, cfg.PurgeInterval)

	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		AllowedCIDRS:  cfg.AllowedCIDRS,
		TrustProxy:    cfg.TrustProxy,
		Registry:      reg,
		Store:         store,
		RedisClient:   redisClient,
		AgentScopes:   dispatcher.Scopes(),
		SelfURL:       dispatcher.SelfURL(),
		ReloadTrigger: reloadTrigger,
	}

	httpServer := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		udpServer:   udpServer,
		httpServer:  httpServer,
		redisClient: redisClient,
		registry:    reg,
		reloader:    reloader,
		purger:      purger,
	}
}

func (a *App) Run() error {
	a.logger.Infof("starting slpd %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Apply the registration file before opening the socket so the
	// first request already sees the static services.
	if a.reloader != nil {
		if err := a.reloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start regfile reloader: %w", err)
		}
		a.logger.Info("regfile reloader started",
			logger.Duration("interval", a.cfg.ReloadInterval))
	}

	if err := a.purger.Start(ctx); err != nil {
		return fmt.Errorf("failed to start expiry purger: %w", err)
	}
	a.logger.Info("expiry purger started",
		logger.Duration("interval", a.cfg.PurgeInterval))

	if err := a.udpServer.Listen(a.cfg.UDPListen); err != nil {
		return fmt.Errorf("failed to start service agent: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpServer.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.reloader != nil {
		a.reloader.Stop()
	}
	a.purger.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.udpServer.Stop(shutdownCtx); err != nil {
		a.logger.Warnf("failed to stop service agent: %v", err)
	}
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop admin API: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		}
	}

	a.logger.Info("slpd stopped cleanly")
	return nil
}
