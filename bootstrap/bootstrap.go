// Package bootstrap wires all dependencies and starts the service: it loads
// configuration, binds each module's dispatch strategy exactly once, seals
// the capability registry, and runs the HTTP server (and, when configured,
// the bus listener) until shutdown.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	taskbus "github.com/taskgate/taskgate/adapters/bus"
	"github.com/taskgate/taskgate/adapters/clock"
	taskhttp "github.com/taskgate/taskgate/adapters/http"
	"github.com/taskgate/taskgate/adapters/idgen"
	"github.com/taskgate/taskgate/adapters/inprocess"
	"github.com/taskgate/taskgate/adapters/memory"
	"github.com/taskgate/taskgate/adapters/metrics"
	"github.com/taskgate/taskgate/adapters/sqlite"
	"github.com/taskgate/taskgate/app"
	"github.com/taskgate/taskgate/config"
	"github.com/taskgate/taskgate/core/capability"
	"github.com/taskgate/taskgate/core/events"
	"github.com/taskgate/taskgate/core/health"
	"github.com/taskgate/taskgate/ports"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	DB         *sqlite.DB
	Registry   *capability.Registry
	Probes     *health.Set
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	store    ports.TaskStore
	service  *app.TaskService
	rdb      *redis.Client
	listener *taskbus.Listener
	watcher  *config.Watcher

	listenerCancel context.CancelFunc
}

// New creates and initializes the application from configuration. Every
// module binding is decided here, once; nothing rebinds at runtime.
func New(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)

	logger.Info().Msg("initializing taskgate")

	a := &App{
		Logger:   logger,
		Config:   cfg,
		Registry: capability.NewRegistry(),
		Probes:   health.NewSet(),
	}

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		logger.Info().Msg("prometheus metrics enabled")
	}

	if err := a.initStore(); err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	a.initService()

	if err := a.initBus(); err != nil {
		a.Close()
		return nil, fmt.Errorf("init bus: %w", err)
	}

	if err := a.registerModules(); err != nil {
		a.Close()
		return nil, fmt.Errorf("register modules: %w", err)
	}
	a.Registry.Seal()

	a.initHTTPServer()

	return a, nil
}

func (a *App) initStore() error {
	switch a.Config.Database.Driver {
	case "memory":
		a.store = memory.NewTaskStore()
		a.Logger.Info().Msg("using in-memory task store")
		return nil
	default:
		db, err := sqlite.Open(a.Config.Database.DSN)
		if err != nil {
			return err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return fmt.Errorf("migrate: %w", err)
		}
		a.DB = db
		a.store = sqlite.NewTaskStore(db)
		a.Logger.Info().Str("dsn", a.Config.Database.DSN).Msg("database initialized")
		return nil
	}
}

func (a *App) initService() {
	var subs []events.Subscription
	if a.Config.Tasks().Feature("notifications") {
		subs = app.TaskNotifications(a.Logger)
	}
	eventBus := events.NewBus(a.Logger, subs...)

	a.service = app.NewTaskService(a.store, clock.Real{}, idgen.UUID{}, eventBus, a.Logger)
}

// initBus connects to the broker when anything needs it: a module dispatched
// in bus mode, or serving inbound bus requests.
func (a *App) initBus() error {
	needsBus := a.Config.Bus.Serve ||
		(a.Config.Tasks().IsEnabled() && a.Config.Tasks().Mode == config.ModeBus)
	if !needsBus {
		return nil
	}

	a.rdb = redis.NewClient(&redis.Options{
		Addr:     a.Config.Bus.Addr,
		Password: a.Config.Bus.Password,
		DB:       a.Config.Bus.DB,
	})
	a.Logger.Info().Str("addr", a.Config.Bus.Addr).Msg("bus connection configured")

	if a.Config.Bus.Serve {
		a.listener = taskbus.NewListener(
			taskbus.NewRedisPubSub(a.rdb),
			inprocess.NewTasks(a.service),
			a.Logger,
		)
	}
	return nil
}

func (a *App) registerModules() error {
	deps := TasksDeps{
		Config:  a.Config.Tasks(),
		Service: a.service,
		Metrics: a.Metrics,
		Logger:  a.Logger,
	}
	if a.rdb != nil {
		deps.PubSub = taskbus.NewRedisPubSub(a.rdb)
	}
	return RegisterTasks(a.Registry, a.Probes, deps)
}

func (a *App) initHTTPServer() {
	// A disabled module leaves the contract unbound; its REST surface then
	// answers every call with an unexpected-kind error instead of routing
	// to a half-wired handler.
	tasksCap, err := capability.Resolve[ports.TaskCapability](a.Registry, ports.TasksContract)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("tasks capability not bound, serving errors")
		tasksCap = inprocess.NewTasks(nil)
	}

	routerCfg := taskhttp.RouterConfig{
		Metrics:     a.Metrics,
		MetricsPath: a.Config.Metrics.Path,
	}
	if a.Config.RateLimit.Enabled {
		routerCfg.RateLimit = rate.NewLimiter(
			rate.Limit(a.Config.RateLimit.RequestsPerSecond),
			a.Config.RateLimit.Burst,
		)
		a.Logger.Info().
			Float64("rps", a.Config.RateLimit.RequestsPerSecond).
			Int("burst", a.Config.RateLimit.Burst).
			Msg("inbound rate limiting enabled")
	}

	var healthHandler *taskhttp.HealthHandler
	if a.Metrics != nil {
		healthHandler = taskhttp.NewHealthHandlerWithMetrics(a.Probes, a.Metrics)
	} else {
		healthHandler = taskhttp.NewHealthHandler(a.Probes)
	}

	router := taskhttp.NewRouterWithConfig(
		taskhttp.NewTasksHandler(tasksCap, a.Logger),
		healthHandler,
		a.Logger,
		routerCfg,
	)

	addr := fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port)
	a.HTTPServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}

	a.Logger.Info().Str("addr", addr).Msg("http server configured")
}

// WatchConfig starts the config drift watcher for the given file. Drift is
// reported, never applied: module bindings are fixed until restart.
func (a *App) WatchConfig(path string) error {
	watcher, err := config.NewWatcher(path, a.Config, a.Logger)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	a.watcher = watcher
	return nil
}

// Run starts the HTTP server (and the bus listener, when configured) and
// blocks until a signal or server error.
func (a *App) Run() error {
	errCh := make(chan error, 2)

	if a.listener != nil {
		ctx, cancel := context.WithCancel(context.Background())
		a.listenerCancel = cancel
		go func() {
			if err := a.listener.Run(ctx); err != nil && ctx.Err() == nil {
				errCh <- fmt.Errorf("bus listener: %w", err)
			}
		}()
	}

	go func() {
		a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	a.Close()
	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// Close releases resources without draining in-flight requests. Shutdown
// calls it after the server stops; New calls it on partial initialization.
func (a *App) Close() {
	if a.listenerCancel != nil {
		a.listenerCancel()
	}
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("bus connection close error")
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
