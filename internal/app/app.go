package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/homenav/internal/catalog"
	"github.com/MrSnakeDoc/homenav/internal/config"
	"github.com/MrSnakeDoc/homenav/internal/discovery"
	"github.com/MrSnakeDoc/homenav/internal/hostexec"
	"github.com/MrSnakeDoc/homenav/internal/httpserver"
	"github.com/MrSnakeDoc/homenav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/homenav/internal/logger"
	"github.com/MrSnakeDoc/homenav/internal/redis"
	"github.com/MrSnakeDoc/homenav/internal/scheduler"
	"github.com/MrSnakeDoc/homenav/internal/sources/homepage"
	"github.com/MrSnakeDoc/homenav/internal/store/file"
	redisstore "github.com/MrSnakeDoc/homenav/internal/store/redis"
	"github.com/MrSnakeDoc/homenav/internal/utils"
	"github.com/MrSnakeDoc/homenav/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	catalog     *catalog.Service
	discovery   *scheduler.DiscoveryScheduler
}

// New wires every component from cfg. The Redis mirror is optional: a
// failed connection is logged and the app runs without it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	loggerClient.Debugf("cfg: %+v", cfg.Redacted())

	var (
		redisClient *goredis.Client
		mirror      *redisstore.Store
	)
	if cfg.MirrorEnabled() {
		client, err := redis.Connect(ctx, redis.ConnectOptions{
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
		}, loggerClient)
		if err != nil {
			loggerClient.Warn("⚠️ redis mirror unavailable, continuing without it", logger.Error(err))
		} else {
			redisClient = client
			mirror = redisstore.NewStore(client)
		}
	} else {
		loggerClient.Info("redis mirror disabled")
	}

	engine, err := newEngine(cfg, loggerClient)
	if err != nil {
		closeRedis(redisClient, loggerClient)
		return nil, err
	}

	opts := catalog.Options{
		Store:       file.NewStore(cfg.DataFile, loggerClient),
		Discoverer:  engine,
		DefaultHost: cfg.DefaultHost,
		Logger:      loggerClient,
	}
	if mirror != nil {
		opts.Mirror = mirror
	}
	cat, err := catalog.New(ctx, opts)
	if err != nil {
		closeRedis(redisClient, loggerClient)
		return nil, err
	}
	loggerClient.Info("📚 catalog loaded",
		logger.String("file", cfg.DataFile),
		logger.Int("services", cat.Count()))

	if mirror != nil {
		if err := scheduler.NewMirrorSyncer(mirror, cat, loggerClient).Sync(ctx); err != nil {
			loggerClient.Warn("failed to sync catalog with redis mirror", logger.Error(err))
		}
	}

	if cfg.HomepageImportFile != "" {
		importHomepage(ctx, cat, cfg.HomepageImportFile, loggerClient)
	}

	disc := scheduler.NewDiscoveryScheduler(cat, loggerClient, cfg.DiscoveryInterval, cfg.DiscoverOnStart)

	d := deps.Deps{
		Logger:              loggerClient,
		StartTime:           time.Now(),
		Version:             version.Version,
		Commit:              version.Commit,
		BuildDate:           version.BuildDate,
		GoVersion:           version.GoVersion,
		TimeNow:             time.Now,
		Catalog:             cat,
		TriggerDiscovery:    disc.Trigger,
		AllowedHosts:        cfg.AllowedHosts,
		AllowedCIDRS:        cfg.AllowedCIDRS,
		TrustProxy:          cfg.TrustProxy,
		DiscoveryTimeout:    discoveryTimeout(cfg),
		DiscoveryRateBurst:  cfg.DiscoveryRateBurst,
		DiscoveryRatePerMin: cfg.DiscoveryRatePerMin,
	}
	if mirror != nil {
		d.Mirror = mirror
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg.Addr(), loggerClient, d),
		redisClient: redisClient,
		catalog:     cat,
		discovery:   disc,
	}, nil
}

func newEngine(cfg *config.Config, log logger.Logger) (*discovery.Engine, error) {
	runner := hostexec.ExecRunner{Timeout: cfg.CommandTimeout}

	var ports discovery.PortScanner = discovery.SSScanner{Runner: runner}
	if cfg.PortScanner == config.ScannerProcfs {
		ports = discovery.ProcNetScanner{}
	}

	prober, err := discovery.NewHTTPProber(cfg.ProbeTimeout, cfg.ProbeMaxRedirects)
	if err != nil {
		return nil, fmt.Errorf("failed to build protocol prober: %w", err)
	}

	log.Info("🔎 discovery configured",
		logger.String("port_scanner", cfg.PortScanner),
		logger.Int("probe_concurrency", cfg.ProbeConcurrency),
		logger.Duration("interval", cfg.DiscoveryInterval))

	return discovery.NewEngine(discovery.EngineOptions{
		Units:       discovery.SystemctlLister{Runner: runner},
		Ports:       ports,
		Detector:    prober,
		DefaultHost: cfg.DefaultHost,
		MaxProbes:   cfg.ProbeConcurrency,
		Logger:      log.With(logger.String("component", "discovery")),
	}), nil
}

// discoveryTimeout bounds a synchronous run: two host commands plus the
// probe fan-out (https then http per port, in waves of ProbeConcurrency).
func discoveryTimeout(cfg *config.Config) time.Duration {
	return 2*cfg.CommandTimeout + 4*cfg.ProbeTimeout + 5*time.Second
}

func importHomepage(ctx context.Context, cat *catalog.Service, path string, log logger.Logger) {
	loader := homepage.NewLoader(path)
	services, err := loader.Load()
	if err != nil {
		log.Warn("failed to load homepage services file", logger.String("file", path), logger.Error(err))
		return
	}
	reqs, err := homepage.ToRequests(services)
	if err != nil {
		log.Warn("nothing to import from homepage", logger.String("file", path), logger.Error(err))
		return
	}
	added, err := cat.Import(ctx, reqs)
	if err != nil {
		log.Error("failed to import homepage services", logger.Error(err))
		return
	}
	log.Info("📥 homepage services imported",
		logger.String("file", loader.Path()),
		logger.Int("found", len(reqs)),
		logger.Int("added", added))
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting homenav v%s on %s", version.Version, a.cfg.Addr())
	a.logger.Infof("homenav %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// startup discovery runs before the listener opens
	a.discovery.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	a.discovery.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("failed to stop server: %w", err))
	}

	closeRedis(a.redisClient, a.logger)

	if runErr == nil {
		a.logger.Info("✅ homenav stopped cleanly")
	}
	_ = a.logger.Sync()
	return runErr
}

func closeRedis(client *goredis.Client, log logger.Logger) {
	if client == nil {
		return
	}
	utils.CloseOrWarn(client, log, "redis client")
}
