package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/voxroute/switchboard/internal/cache"
	"github.com/voxroute/switchboard/internal/config"
	"github.com/voxroute/switchboard/internal/directory"
	"github.com/voxroute/switchboard/internal/health"
	"github.com/voxroute/switchboard/internal/httpserver"
	"github.com/voxroute/switchboard/internal/httpserver/deps"
	"github.com/voxroute/switchboard/internal/logger"
	"github.com/voxroute/switchboard/internal/proxy"
	"github.com/voxroute/switchboard/internal/redis"
	"github.com/voxroute/switchboard/internal/registry"
	"github.com/voxroute/switchboard/internal/scheduler"
	"github.com/voxroute/switchboard/internal/seed"
	redisstore "github.com/voxroute/switchboard/internal/store/redis"
	"github.com/voxroute/switchboard/internal/transport"
	"github.com/voxroute/switchboard/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	registry    *registry.Registry
	proxy       *proxy.Proxy
	table       *proxy.DispatchTable
	proberRun   *scheduler.ProberRunner
	statsRep    *scheduler.StatsReporter
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	var redisClient *goredis.Client
	if cfg.UsesRedis() {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
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
		loggerClient.Info("Redis initialized successfully")
		redisClient = client
	}

	// Directory store: durable source of truth for service descriptors.
	var store directory.Store
	if cfg.DirectoryBackend == "redis" {
		store = redisstore.NewStore(redisClient)
	} else {
		loggerClient.Info("using in-memory directory store")
		store = directory.NewMemoryStore()
	}

	// Decision cache: memory tier, optionally shared through redis.
	var remoteTier cache.RemoteTier
	if cfg.UseRedisDecisionCache && redisClient != nil {
		remoteTier = cache.NewRedisTier(redisClient, loggerClient)
		loggerClient.Info("redis decision cache tier enabled")
	}
	decisions := cache.NewDecisions(cfg.DecisionTTL, remoteTier, loggerClient)

	// Health board + prober.
	board := health.NewBoard(cfg.HealthStaleAfter)
	prober := health.NewProber(store, board, cfg.ProbeTimeout, loggerClient)
	probeTrigger := make(chan struct{}, 1)
	proberRun := scheduler.NewProberRunner(prober, board, loggerClient, cfg.ProbeInterval, probeTrigger)

	reg := registry.New(store, decisions, board, cfg.DecisionTTL, loggerClient)
	statsRep := scheduler.NewStatsReporter(reg, loggerClient, cfg.StatsInterval)

	// Local dispatch table and remote transport. Handlers are mounted by
	// the embedding application; an empty table degrades everything to
	// remote delivery.
	table := proxy.NewDispatchTable()
	remote := transport.NewHTTP(cfg.RemoteBaseURL, cfg.RemoteTimeout, loggerClient)

	px := proxy.New(reg, table, remote, board, proxy.Options{
		RetryBackoff:    cfg.RetryBackoff,
		FallbackTimeout: cfg.FallbackTimeout,
	}, loggerClient)

	// Seed initial service registrations (additive, never clobbers
	// operator changes).
	if cfg.SeedFile != "" {
		descs, err := seed.Load(cfg.SeedFile)
		if err != nil {
			loggerClient.Errorf("Failed to load seed file %s: %v", cfg.SeedFile, err)
			os.Exit(1)
		}
		added, err := seed.Apply(context.Background(), store, descs)
		if err != nil {
			loggerClient.Warn("seed apply incomplete", logger.Error(err))
		}
		loggerClient.Info("seed file applied",
			logger.String("file", cfg.SeedFile),
			logger.Int("added", added),
			logger.Int("declared", len(descs)))
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:            loggerClient,
		StartTime:         time.Now(),
		Version:           version.Version,
		Commit:            version.Commit,
		BuildDate:         version.BuildDate,
		GoVersion:         version.GoVersion,
		TimeNow:           time.Now,
		Registry:          reg,
		Proxy:             px,
		Board:             board,
		ProbeTrigger:      probeTrigger,
		DispatchBurst:     cfg.DispatchBurst,
		DispatchRefillMin: cfg.DispatchRefillMin,
		TrustProxy:        cfg.TrustProxy,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		registry:    reg,
		proxy:       px,
		table:       table,
		proberRun:   proberRun,
		statsRep:    statsRep,
	}
}

// DispatchTable exposes the local handler table so the embedding
// application can mount in-process handlers before Run.
func (a *App) DispatchTable() *proxy.DispatchTable {
	return a.table
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Switchboard v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Switchboard %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start health prober (immediate sweep, then periodic)
	if err := a.proberRun.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health prober: %w", err)
	}
	a.logger.Info("health prober started",
		logger.Duration("interval", a.cfg.ProbeInterval))

	// Start cache stats reporter
	if err := a.statsRep.Start(ctx); err != nil {
		return fmt.Errorf("failed to start stats reporter: %w", err)
	}
	a.logger.Info("cache stats reporter started",
		logger.Duration("interval", a.cfg.StatsInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.proberRun.Stop()
	a.statsRep.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Switchboard stopped cleanly")
	return nil
}
