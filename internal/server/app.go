// Package server initializes and runs the tipkeeper server: the REST API,
// the admin gRPC listener and, when enabled, the transfer event relay.
// It owns process wiring and graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/tipkeeper/internal/logging"
	"github.com/dmitrijs2005/tipkeeper/internal/netx"
	"github.com/dmitrijs2005/tipkeeper/internal/server/chain"
	"github.com/dmitrijs2005/tipkeeper/internal/server/config"
	"github.com/dmitrijs2005/tipkeeper/internal/server/custody"
	"github.com/dmitrijs2005/tipkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/tipkeeper/internal/server/relay"
	"github.com/dmitrijs2005/tipkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tipkeeper/internal/server/rest"
	"github.com/dmitrijs2005/tipkeeper/internal/server/services"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/tipkeeper/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	metrics *metrics.Registry

	closers []io.Closer

	rest  *rest.Server
	grpc  *gs.GRPCServer
	relay *relay.Supervisor
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func NewApp(ctx context.Context, c *config.Config) (_ *App, err error) {
	log, logCloser := logging.New(logging.Options{Level: c.LogLevel, File: c.LogFile, MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 30})

	// route stray stdlib log output (goose, net/http) through the same handler
	slog.SetDefault(log.Slog())

	app := &App{config: c, logger: log, metrics: metrics.New(), closers: []io.Closer{logCloser}}
	defer func() {
		if err != nil {
			app.close()
		}
	}()

	profile, err := custody.ParseProfile(c.Environment)
	if err != nil {
		return nil, err
	}
	if err := c.CheckSecrets(); err != nil {
		return nil, err
	}

	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.closers = append(app.closers, db)

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	provider, err := custody.NewProviderFromConfig(ctx, c)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, provider)

	cs, err := custody.NewService(provider, custody.KeyRefFromConfig(c).Name(), []byte(c.AppSecret), profile, app.metrics, log)
	if err != nil {
		return nil, err
	}

	tc, err := app.chainClient(ctx)
	if err != nil {
		return nil, err
	}

	role, err := chain.ParseRole(c.RequiredRole)
	if err != nil {
		return nil, fmt.Errorf("required role: %w", err)
	}

	var notifier services.AddressNotifier
	if n := netx.NewNotifier(c.NotifyURL, c.NotifyWebhookID, c.NotifyToken, c.NotifyRPS); n.Enabled() {
		notifier = n
	}

	ws := services.NewWalletService(db, rm, cs, notifier, tc, app.metrics, log)
	orchestrator := services.NewTipOrchestrator(tc, app.metrics, log)
	ts := services.NewTipService(db, rm, cs, tc, orchestrator, role)

	app.rest = rest.NewServer(c.EndpointAddrHTTP, ws, ts, app.metrics, c.SecretKey, c.ShutdownTimeout, log)
	app.grpc = gs.NewGRPCServer(c.EndpointAddrGRPC, log, c.SecretKey)

	if c.RelayEnabled {
		if app.relay, err = app.relaySupervisor(ctx, tc.Codec()); err != nil {
			return nil, err
		}
	}

	log.Info(ctx, "app initialized", "environment", profile.String(), "relay", c.RelayEnabled, "notify", notifier != nil)
	return app, nil
}

func (app *App) chainClient(ctx context.Context) (*chain.Client, error) {
	rpc, err := ethclient.DialContext(ctx, app.config.ChainRPCURL)
	if err != nil {
		return nil, fmt.Errorf("chain rpc: %w", err)
	}
	app.closers = append(app.closers, closerFunc(func() error { rpc.Close(); return nil }))

	artifact, err := chain.LoadArtifact(ctx, app.config)
	if err != nil {
		return nil, err
	}
	return chain.NewClient(rpc, app.config.ChainID, artifact)
}

func (app *App) relaySupervisor(ctx context.Context, codec *chain.Codec) (*relay.Supervisor, error) {
	c := app.config

	wsc, err := ethclient.DialContext(ctx, c.ChainWSURL)
	if err != nil {
		return nil, fmt.Errorf("chain ws: %w", err)
	}
	app.closers = append(app.closers, closerFunc(func() error { wsc.Close(); return nil }))

	rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB})
	app.closers = append(app.closers, rdb)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	var secret []byte
	if c.RelayEncrypt {
		secret = []byte(c.AppSecret)
	}

	l := relay.NewListener(wsc, codec, relay.NewRedisCursorStore(rdb, c.RelayCursorKey), app.metrics, app.logger)
	r := relay.NewRelay(relay.NewRedisPublisher(rdb, c.RelayStream), secret, app.metrics, app.logger)
	return relay.NewSupervisor(l, r, c.RelayBackoff, app.logger), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a signal arrives or one of the listeners fails, then
// shuts everything down and releases the app's resources.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.rest.Run(gctx) })
	g.Go(func() error { return app.grpc.Run(gctx) })
	if app.relay != nil {
		g.Go(func() error { return app.relay.Run(gctx) })
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	app.logger.Info(context.Background(), "App stopped")
	app.close()
	return err
}

// close releases resources in reverse order of acquisition.
func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			app.logger.Error(context.Background(), "close", "error", err)
		}
	}
	app.closers = nil
}
