package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restobar-be/internal/audit"
	"restobar-be/internal/auth"
	"restobar-be/internal/cache"
	"restobar-be/internal/cart"
	"restobar-be/internal/config"
	"restobar-be/internal/dashboard"
	"restobar-be/internal/db"
	"restobar-be/internal/handler"
	"restobar-be/internal/logger"
	"restobar-be/internal/metrics"
	"restobar-be/internal/middleware"
	"restobar-be/internal/order"
	"restobar-be/internal/product"
	"restobar-be/internal/realtime"
	"restobar-be/internal/user"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	auditBuffer     = 256
	brokerBuffer    = 16
	productCacheTTL = 5 * time.Minute
	shutdownTimeout = 10 * time.Second
)

// changeFeed is the source of table change notifications.
type changeFeed interface {
	Run(ctx context.Context) error
	Close() error
}

var (
	initDBFunc      = db.InitDB
	newRedisFunc    = cache.NewRedisClient
	newListenerFunc = func(dsn string, b *realtime.Broker) (changeFeed, error) {
		return realtime.NewPGListener(dsn, b)
	}
	startServerFunc = func(srv *http.Server) error {
		return srv.ListenAndServe()
	}
)

type app struct {
	handler  http.Handler
	broker   *realtime.Broker
	audit    *audit.Logger
	limiter  *middleware.RateLimiter
	counters *metrics.Set
}

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database := initDBFunc(cfg)

	rdb, err := newRedisFunc(ctx, cfg.RedisURL)
	if err != nil {
		return multierr.Append(err, database.Close())
	}

	a, err := newServer(cfg, database, rdb)
	if err != nil {
		return multierr.Combine(err, rdb.Close(), database.Close())
	}

	go a.limiter.Run(ctx)
	go a.listen(ctx, db.BuildDSN(cfg))

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- startServerFunc(srv) }()
	logger.L().Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	case <-ctx.Done():
		logger.L().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = srv.Shutdown(shutdownCtx)
	}
	stop()

	return multierr.Combine(err, a.Close(), rdb.Close(), database.Close())
}

func newServer(cfg *config.Config, database *sql.DB, rdb *redis.Client) (*app, error) {
	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, err
	}

	counters := metrics.NewSet()
	auditLog := audit.NewLogger(audit.NewRepository(database), auditBuffer, counters)

	userSvc := user.NewService(user.NewRepository(database), issuer, auth.NewRedisRevoker(rdb), auditLog)
	productSvc := product.NewService(product.NewCachedRepository(product.NewRepository(database), rdb, productCacheTTL))
	orderSvc := order.NewService(order.NewRepository(database), auditLog)

	broker := realtime.NewBroker(brokerBuffer, counters)
	secure := cfg.AppEnv == "production"

	h := handler.New(handler.Deps{
		Users:         userSvc,
		Products:      productSvc,
		Orders:        orderSvc,
		Carts:         cart.NewManager(cart.NewRedisStorage(rdb, cfg.CartTTL), orderSvc),
		Feed:          dashboard.NewFeed(orderSvc, broker),
		Upgrader:      dashboard.NewUpgrader(cfg.CORSOrigin),
		Counters:      counters,
		SecureCookies: secure,
	})

	limiter := middleware.NewRateLimiter(cfg.InternalSecretKey)

	return &app{
		handler: setupRouter(h, handler.RouterConfig{
			Authenticator: middleware.NewAuthenticator(issuer, auth.NewRedisRevoker(rdb), userSvc),
			Limiter:       limiter,
			CORSOrigin:    cfg.CORSOrigin,
			SecureCookies: secure,
		}),
		broker:   broker,
		audit:    auditLog,
		limiter:  limiter,
		counters: counters,
	}, nil
}

func setupRouter(h *handler.Handler, rc handler.RouterConfig) http.Handler {
	return handler.NewRouter(h, rc)
}

// listen keeps the change feed running. Dashboards stay usable without it,
// they just stop refreshing until the feed comes back.
func (a *app) listen(ctx context.Context, dsn string) {
	log := logger.L().With(zap.String("layer", "realtime"))

	feed, err := newListenerFunc(dsn, a.broker)
	if err != nil {
		log.Error("change feed unavailable", zap.Error(err))
		return
	}
	defer feed.Close()

	if err := feed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("change feed stopped", zap.Error(err))
	}
}

func (a *app) Close() error {
	a.broker.Close()
	err := a.audit.Close()
	logger.L().Info("counters at shutdown", zap.Any("counters", a.counters.Snapshot()))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return multierr.Append(err, a.counters.Shutdown(ctx))
}
