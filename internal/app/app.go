package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/config"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/discovery"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/events"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/httpserver"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/httpserver/deps"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/hub"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/inventory"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/logger"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/metrics"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/reconcile"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/redis"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/registry"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/routing"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/scheduler"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/utils"
	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/version"
)

type App struct {
	cfg            *config.Config
	logger         logger.Logger
	server         *httpserver.Server
	loop           *scheduler.ReconcileLoop
	bus            *events.Bus
	registryCloser io.Closer
}

// backend is the registry chosen by configuration plus what it needs at
// runtime besides the Registry interface.
type backend struct {
	registry registry.Registry
	pinger   deps.Pinger // nil for memory
	closer   io.Closer   // nil for memory
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	m := metrics.New()

	// Registry backend - fail fast if unavailable
	be, err := newBackend(cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to initialize %s registry: %v", cfg.RegistryBackend, err)
		os.Exit(1)
	}
	loggerClient.Info("registry initialized",
		logger.String("backend", cfg.RegistryBackend))

	docker, err := inventory.NewDocker(inventory.DockerOptions{
		Host:    cfg.DockerHost,
		Timeout: cfg.DockerTimeout,
	})
	if err != nil {
		loggerClient.Errorf("Failed to create docker client: %v", err)
		os.Exit(1)
	}

	return build(cfg, loggerClient, m, docker, be, map[string]deps.Pinger{"docker": docker})
}

// build wires the registrar around an inventory and a registry backend.
func build(
	cfg *config.Config,
	loggerClient logger.Logger,
	m *metrics.Metrics,
	inv inventory.Inventory,
	be backend,
	probes map[string]deps.Pinger,
) *App {
	if be.pinger != nil {
		probes[cfg.RegistryBackend] = be.pinger
	}

	// Manual reconciliation trigger, fed by POST /api/v1/reconcile
	reconcileTrigger := make(chan struct{}, 1)

	loop := scheduler.NewReconcileLoop(
		inv,
		discovery.NewAdapter(cfg.BackendNetwork, cfg.BackendPort, cfg.ProxyMarker, loggerClient),
		reconcile.New(be.registry, loggerClient, m),
		loggerClient,
		m,
		cfg.ReconcileInterval,
		cfg.TickTimeout,
		reconcileTrigger,
	)

	bus := events.NewBus(loggerClient)
	bus.Subscribe(events.ProxyInitialize, func(ctx context.Context, _ events.Event) error {
		return loop.Start(ctx)
	})
	routing.NewPolicy(
		be.registry,
		hub.NewSelector(cfg.HubMarker, loggerClient),
		cfg.NoServerMessage,
		loggerClient,
		m,
	).Register(bus)

	d := deps.Deps{
		Logger:           loggerClient,
		StartTime:        time.Now(),
		Version:          version.Version,
		Commit:           version.Commit,
		BuildDate:        version.BuildDate,
		GoVersion:        version.GoVersion,
		TimeNow:          time.Now,
		AllowedHosts:     cfg.AllowedHosts,
		AllowedCIDRS:     cfg.AllowedCIDRS,
		TrustProxy:       cfg.TrustProxy,
		RateLimitRPS:     cfg.RateLimitRPS,
		RateLimitBurst:   cfg.RateLimitBurst,
		Registry:         be.registry,
		RegistryBackend:  cfg.RegistryBackend,
		Loop:             loop,
		Bus:              bus,
		Metrics:          m,
		ReconcileTrigger: reconcileTrigger,
		Probes:           probes,
	}

	return &App{
		cfg:            cfg,
		logger:         loggerClient,
		server:         httpserver.New(cfg, loggerClient, d),
		loop:           loop,
		bus:            bus,
		registryCloser: be.closer,
	}
}

func newBackend(cfg *config.Config, log logger.Logger) (backend, error) {
	switch cfg.RegistryBackend {
	case config.BackendRedis:
		client, err := redis.New(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return backend{}, err
		}
		reg := registry.NewRedis(client)
		return backend{registry: reg, pinger: reg, closer: client}, nil

	case config.BackendEtcd:
		reg, err := registry.NewEtcd(registry.EtcdOptions{
			Endpoints:   cfg.EtcdEndpoints,
			DialTimeout: cfg.EtcdDialTimeout,
			Prefix:      cfg.EtcdPrefix,
		})
		if err != nil {
			return backend{}, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.EtcdDialTimeout)
		defer cancel()
		if err := reg.Ping(ctx); err != nil {
			_ = reg.Close()
			return backend{}, fmt.Errorf("etcd unavailable at %v: %w", cfg.EtcdEndpoints, err)
		}
		return backend{registry: reg, pinger: reg, closer: reg}, nil

	default:
		return backend{registry: registry.NewMemory()}, nil
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting %s v%s on %s", version.Name, version.Version, a.cfg.ListenPort)
	a.logger.Infof("%s %s (commit=%s, built=%s, go=%s)",
		version.Name, version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.run(ctx)
}

// run serves until ctx is done or the HTTP server fails, then shuts down.
func (a *App) run(ctx context.Context) error {
	if _, err := a.server.Listen(); err != nil {
		a.loop.Stop()
		utils.CloseLogged(a.registryCloser, a.cfg.RegistryBackend+" registry", a.logger)
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Serve(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// The API is listening: the proxy may route players, reconciliation starts.
	a.bus.Fire(ctx, events.ProxyInitializeEvent{})
	a.logger.Info("reconcile loop started",
		logger.Duration("interval", a.cfg.ReconcileInterval),
		logger.String("network", a.cfg.BackendNetwork))

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	// Stops ticking and closes the docker client
	a.loop.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	utils.CloseLogged(a.registryCloser, a.cfg.RegistryBackend+" registry", a.logger)

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ Registrar stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
