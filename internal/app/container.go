package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/dig"

	"service-dispatch/internal/auth"
	"service-dispatch/internal/config"
	"service-dispatch/internal/http/handlers"
	"service-dispatch/internal/http/middleware/ratelimit"
	"service-dispatch/internal/http/pprofserver"
	"service-dispatch/internal/http/router"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/metrics"
	"service-dispatch/internal/repository"
	"service-dispatch/internal/service/dispatch"
	"service-dispatch/internal/service/identity"
	"service-dispatch/internal/service/orders"
	"service-dispatch/internal/service/partners"
	"service-dispatch/internal/transport/kafka"
)

type dbConnectFunc func(context.Context, logx.Logger, string, int, time.Duration) (*pgxpool.Pool, error)

type migrateFunc func(context.Context, *pgxpool.Pool) error

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	dbConnect dbConnectFunc
	migrate   migrateFunc
	logFatalf func(string, ...interface{})
}

// NewContainerBuilder returns a new dig container builder
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		dbConnect: connectDbWithRetry,
		migrate:   repository.Migrate,
		logFatalf: log.Fatalf,
	}
}

// WithDBConnect sets the database connection function
func (b *ContainerBuilder) WithDBConnect(fn dbConnectFunc) *ContainerBuilder {
	if fn != nil {
		b.dbConnect = fn
	}
	return b
}

// WithMigrate sets the schema migration function
func (b *ContainerBuilder) WithMigrate(fn migrateFunc) *ContainerBuilder {
	if fn != nil {
		b.migrate = fn
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds and returns a new dig container
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerDb(container, b.dbConnect, b.migrate); err != nil {
		return nil, fmt.Errorf("DB: %w", err)
	}
	if err := registerService(container); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds and returns a new dig container
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context) error {
	return provideAll(container,
		func() context.Context { return ctx },
		config.Load,
		NewLogger,
	)
}

func registerDb(container *dig.Container, dbConnect dbConnectFunc, migrate migrateFunc) error {
	providerDB := func(ctx context.Context, cfg *config.Config, logger logx.Logger) (*pgxpool.Pool, error) {
		pool, err := dbConnect(ctx, logger, cfg.DB.DSN(), 10, time.Second)
		if err != nil {
			return nil, err
		}
		if err := migrate(ctx, pool); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return pool, nil
	}
	return provideAll(container, providerDB)
}

type metricsOut struct {
	dig.Out

	Registry       *prometheus.Registry
	RateLimited    prometheus.Counter `name:"rate_limit_exceeded_total"`
	LoginLimited   prometheus.Counter `name:"login_rate_limit_exceeded_total"`
	PublishRetries prometheus.Counter `name:"events_publish_retries_total"`
	Commands       *prometheus.CounterVec
}

func newMetrics() (metricsOut, error) {
	out := metricsOut{
		Registry:       prometheus.NewRegistry(),
		RateLimited:    metrics.NewRateLimitExceededTotal(),
		LoginLimited:   metrics.NewLoginRateLimitExceededTotal(),
		PublishRetries: metrics.NewEventsPublishRetriesTotal(),
		Commands:       metrics.NewDispatchCommandsTotal(),
	}
	for _, c := range []prometheus.Collector{out.RateLimited, out.LoginLimited, out.PublishRetries, out.Commands} {
		if err := out.Registry.Register(c); err != nil {
			return metricsOut{}, fmt.Errorf("register metric: %w", err)
		}
	}
	return out, nil
}

func newEventProducer(cfg *config.Config) (*kafka.Producer, error) {
	return kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
}

type publisherIn struct {
	dig.In

	Config   *config.Config
	Logger   logx.Logger
	Producer *kafka.Producer
	Retries  prometheus.Counter `name:"events_publish_retries_total"`
}

func newEventPublisher(in publisherIn) dispatch.EventPublisher {
	if in.Producer == nil {
		return nil
	}
	return kafka.NewRetryingPublisher(in.Producer, in.Logger, in.Retries, kafka.RetryConfig{
		MaxAttempts: in.Config.Events.MaxAttempts,
		BaseDelay:   in.Config.Events.BaseDelay,
		MaxDelay:    in.Config.Events.MaxDelay,
	})
}

type dispatcherIn struct {
	dig.In

	Resolver  *identity.Resolver
	Accounts  *identity.Accounts
	Registry  *partners.Registry
	Engine    *orders.Engine
	Publisher dispatch.EventPublisher
	Commands  *prometheus.CounterVec
	Logger    logx.Logger
}

func newDispatcher(in dispatcherIn) *dispatch.Dispatcher {
	return dispatch.New(dispatch.Deps{
		Resolver:  in.Resolver,
		Accounts:  in.Accounts,
		Registry:  in.Registry,
		Engine:    in.Engine,
		Publisher: in.Publisher,
		Commands:  in.Commands,
		Logger:    in.Logger,
	})
}

func registerService(container *dig.Container) error {
	return provideAll(container,
		repository.NewAccountRepo,
		repository.NewOrderRepo,
		repository.NewPartnerRepo,
		func(cfg *config.Config) *auth.TokenManager {
			return auth.NewTokenManager(cfg.Auth.JWTSecret)
		},
		auth.NewBcryptHasher,
		func(repo *repository.AccountRepo, tokens *auth.TokenManager, cfg *config.Config) *identity.Resolver {
			return identity.NewResolver(repo, tokens, cfg.OperationTimeout)
		},
		func(
			repo *repository.AccountRepo,
			tokens *auth.TokenManager,
			hasher *auth.BcryptHasher,
			cfg *config.Config,
			logger logx.Logger,
		) *identity.Accounts {
			return identity.NewAccounts(repo, tokens, hasher, cfg.OperationTimeout, logger)
		},
		func(repo *repository.PartnerRepo, hasher *auth.BcryptHasher, cfg *config.Config, logger logx.Logger) *partners.Registry {
			return partners.NewRegistry(repo, hasher, cfg.OperationTimeout, logger)
		},
		func(repo *repository.OrderRepo, cfg *config.Config, logger logx.Logger) *orders.Engine {
			return orders.NewEngine(repo, cfg.OperationTimeout, logger)
		},
		newMetrics,
		newEventProducer,
		newEventPublisher,
		newDispatcher,
	)
}

type routerIn struct {
	dig.In

	Config     *config.Config
	Logger     logx.Logger
	Base       *handlers.Handlers
	Auth       *handlers.AuthHandler
	Orders     *handlers.OrderHandler
	Partners   *handlers.PartnerHandler
	Resolver   *identity.Resolver
	RateLimit  *ratelimit.Middleware
	LoginLimit loginLimit
	Registry   *prometheus.Registry
}

func newRouter(in routerIn) http.Handler {
	d := router.Deps{
		Base:     in.Base,
		Auth:     in.Auth,
		Orders:   in.Orders,
		Partners: in.Partners,
		Resolver: in.Resolver,
		Logger:   in.Logger,
		Metrics: promhttp.HandlerFor(
			prometheus.Gatherers{in.Registry, prometheus.DefaultGatherer},
			promhttp.HandlerOpts{},
		),
	}
	if in.Config.RateLimit.Enabled {
		d.RateLimit = in.RateLimit.Handler()
	}
	if in.LoginLimit != nil {
		d.LoginLimit = in.LoginLimit
	}
	return router.New(d)
}

type serversOut struct {
	dig.Out

	Main  *http.Server
	Pprof *http.Server `name:"pprof_server"`
}

func newServers(cfg *config.Config, mux http.Handler) serversOut {
	return serversOut{
		Main: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		Pprof: pprofserver.NewServer(pprofserver.Config{
			Addr: cfg.Pprof.Addr,
			User: cfg.Pprof.User,
			Pass: cfg.Pprof.Pass,
		}),
	}
}

func registerHTTP(container *dig.Container) error {
	return provideAll(container,
		handlers.New,
		func(logger logx.Logger, d *dispatch.Dispatcher) *handlers.AuthHandler {
			return handlers.NewAuthHandler(logger, d)
		},
		func(logger logx.Logger, d *dispatch.Dispatcher) *handlers.OrderHandler {
			return handlers.NewOrderHandler(logger, d)
		},
		func(logger logx.Logger, d *dispatch.Dispatcher) *handlers.PartnerHandler {
			return handlers.NewPartnerHandler(logger, d)
		},
		newRateLimitClock,
		newRateLimiter,
		newRateLimitMiddleware,
		newRedisClient,
		newLoginLimit,
		newRouter,
		newServers,
	)
}
