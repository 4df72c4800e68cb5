// Package server wires the authcore components together and runs the
// HTTP and gRPC servers until a shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/authcore/internal/logging"
	"github.com/dmitrijs2005/authcore/internal/server/auth"
	"github.com/dmitrijs2005/authcore/internal/server/config"
	"github.com/dmitrijs2005/authcore/internal/server/events"
	"github.com/dmitrijs2005/authcore/internal/server/httpapi"
	"github.com/dmitrijs2005/authcore/internal/server/metrics"
	"github.com/dmitrijs2005/authcore/internal/server/passwords"
	"github.com/dmitrijs2005/authcore/internal/server/repositories/memory"
	"github.com/dmitrijs2005/authcore/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authcore/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/authcore/internal/server/grpc"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	store       repomanager.Store
	userService *services.UserService
	dispatcher  *events.Dispatcher
	metrics     *metrics.Metrics
	handler     http.Handler
	closers     []func() error
}

// NewApp builds every component from c. Call Close if Run is never called.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (_ *App, err error) {
	app := &App{config: c, logger: logger}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.metrics = metrics.New(registry)

	if app.store, err = app.openStore(ctx); err != nil {
		return nil, err
	}

	app.dispatcher = events.NewDispatcher(app.openPublisher(ctx), logger, app.metrics, events.DispatcherOptions{
		QueueSize: c.EventQueueSize,
		Workers:   c.EventWorkers,
	})

	hasher, err := passwords.NewBcrypt(c.BcryptCost)
	if err != nil {
		return nil, err
	}

	codec, err := auth.NewCodec(auth.Config{
		AccessSecret:  []byte(c.AccessSecret),
		RefreshSecret: []byte(c.RefreshSecret),
		AccessTTL:     c.AccessTokenTTL,
		RefreshTTL:    c.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}

	app.userService = services.NewUserService(app.store, hasher, codec, app.dispatcher, logger, app.metrics, services.Options{
		RefreshTTL:     c.RefreshTokenTTL,
		AtomicRotation: c.AtomicRotation,
		WriteTimeout:   c.StoreWriteTimeout,
		Now:            time.Now,
	})

	if c.InternalAPIToken == "" {
		logger.Warn(ctx, "internal API token not set, /revoke and the gRPC API are unprotected")
	}
	app.handler = httpapi.NewRouter(httpapi.NewHandlers(app.userService, app.store, logger), httpapi.RouterConfig{
		InternalToken: c.InternalAPIToken,
		Metrics:       app.metrics,
	})

	return app, nil
}

func (app *App) openStore(ctx context.Context) (repomanager.Store, error) {
	if app.config.Storage == config.StorageMemory {
		app.logger.Warn(ctx, "using in-memory storage, data is lost on restart")
		return memory.NewStore(), nil
	}

	db, err := repomanager.OpenPostgres(ctx, app.config.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.closers = append(app.closers, db.Close)

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}
	return repomanager.NewPostgresStore(db, m), nil
}

func (app *App) openPublisher(ctx context.Context) events.Publisher {
	if app.config.RedisAddr == "" {
		app.logger.Info(ctx, "redis not configured, registration events are discarded")
		return events.NopPublisher{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     app.config.RedisAddr,
		Password: app.config.RedisPassword,
		DB:       app.config.RedisDB,
	})
	app.closers = append(app.closers, client.Close)

	// events are best effort, so an unreachable broker is not fatal
	if err := client.Ping(ctx).Err(); err != nil {
		app.logger.Warn(ctx, "redis ping failed", "addr", app.config.RedisAddr, "error", err)
	}
	return events.NewRedisStreamPublisher(client, app.config.EventStream, app.config.EventStreamMaxLen)
}

// Handler is the HTTP handler served by Run.
func (app *App) Handler() http.Handler {
	return app.handler
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// everything down.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	lis, err := net.Listen("tcp", app.config.HTTPAddr)
	if err != nil {
		_ = app.Close()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.serveHTTP(gctx, lis)
	})

	if app.config.GRPCAddr != "" {
		g.Go(func() error {
			return gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.userService, app.config.InternalAPIToken).Run(gctx)
		})
	}

	err = g.Wait()
	if cerr := app.Close(); cerr != nil {
		app.logger.Error(ctx, "shutdown error", "error", cerr)
	}
	app.logger.Info(ctx, "App stopped")
	return err
}

func (app *App) serveHTTP(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close drains the event queue and releases connections. It is safe to
// call more than once.
func (app *App) Close() error {
	var errs []error
	if app.dispatcher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		errs = append(errs, app.dispatcher.Close(ctx))
		cancel()
	}
	for i := len(app.closers) - 1; i >= 0; i-- {
		errs = append(errs, app.closers[i]())
	}
	app.closers = nil
	return errors.Join(errs...)
}
