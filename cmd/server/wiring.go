package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/timebank/internal/adapter/http"
	"github.com/iho/timebank/internal/adapter/http/handler"
	"github.com/iho/timebank/internal/adapter/http/middleware"
	"github.com/iho/timebank/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/timebank/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/timebank/internal/adapter/repository/redis"
	"github.com/iho/timebank/internal/infrastructure/config"
	"github.com/iho/timebank/internal/infrastructure/eventpublisher"
	"github.com/iho/timebank/internal/infrastructure/metrics"
	"github.com/iho/timebank/internal/infrastructure/postgres"
	"github.com/iho/timebank/internal/infrastructure/redis"
	"github.com/iho/timebank/internal/usecase"
)

// dependencies holds the storage driver's repositories and the clients behind
// them.
type dependencies struct {
	txManager      usecase.TransactionManager
	accounts       usecase.AccountRepository
	listings       usecase.ListingRepository
	participations usecase.ParticipationRepository
	entries        usecase.EntryRepository
	transfers      usecase.TransferRepository
	outbox         usecase.OutboxRepository
	idempotency    usecase.IdempotencyStore
	// retrier stays nil for the memory driver; its transactions never
	// deadlock.
	retrier usecase.Retrier

	redisClient *goredis.Client
	checks      map[string]handler.ReadinessCheck
	closers     []func()
}

// Close releases every client in reverse order of opening.
func (d *dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func openDependencies(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log zerolog.Logger) (*dependencies, error) {
	var (
		deps *dependencies
		err  error
	)

	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		deps = openMemory()
		log.Warn().Msg("using in-memory storage; data is lost on restart")
	default:
		deps, err = openPostgres(ctx, cfg, m, log)
		if err != nil {
			return nil, err
		}
	}

	if cfg.EventSink == config.EventSinkRedis && deps.redisClient == nil {
		if err := deps.connectRedis(ctx, cfg.RedisURL, log); err != nil {
			deps.Close()
			return nil, err
		}
	}

	if cfg.EventSink == config.EventSinkNone {
		deps.outbox = postgresRepo.NewNullOutboxRepository()
	}

	return deps, nil
}

func openMemory() *dependencies {
	store := memory.NewStore()

	return &dependencies{
		txManager:      memory.NewTxManager(store),
		accounts:       memory.NewAccountRepository(store),
		listings:       memory.NewListingRepository(store),
		participations: memory.NewParticipationRepository(store),
		entries:        memory.NewEntryRepository(store),
		transfers:      memory.NewTransferRepository(store),
		outbox:         memory.NewOutboxRepository(store),
		idempotency:    memory.NewIdempotencyStore(),
		checks:         map[string]handler.ReadinessCheck{},
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log zerolog.Logger) (*dependencies, error) {
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	log.Info().Msg("connected to postgres")

	deps := &dependencies{
		txManager:      postgresRepo.NewTxManager(pool),
		accounts:       postgresRepo.NewAccountRepository(pool),
		listings:       postgresRepo.NewListingRepository(pool),
		participations: postgresRepo.NewParticipationRepository(pool),
		entries:        postgresRepo.NewEntryRepository(pool),
		transfers:      postgresRepo.NewTransferRepository(pool),
		outbox:         postgresRepo.NewOutboxRepository(pool),
		retrier:        postgresRepo.NewRetrier(log, m),
		checks: map[string]handler.ReadinessCheck{
			"postgres": pingPool(pool),
		},
		closers: []func(){pool.Close},
	}

	if err := deps.connectRedis(ctx, cfg.RedisURL, log); err != nil {
		deps.Close()
		return nil, err
	}
	deps.idempotency = redisRepo.NewIdempotencyStore(deps.redisClient)

	return deps, nil
}

func (d *dependencies) connectRedis(ctx context.Context, url string, log zerolog.Logger) error {
	client, err := redis.NewClient(ctx, url)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	log.Info().Msg("connected to redis")

	d.redisClient = client
	d.checks["redis"] = func(ctx context.Context) error { return redis.Ping(ctx, client) }
	d.closers = append(d.closers, func() { client.Close() })
	return nil
}

func pingPool(pool *pgxpool.Pool) handler.ReadinessCheck {
	return func(ctx context.Context) error { return pool.Ping(ctx) }
}

// application is the wired set of use cases.
type application struct {
	ledger         *usecase.LedgerUseCase
	accounts       *usecase.AccountUseCase
	listings       *usecase.ListingUseCase
	participations *usecase.ParticipationUseCase
	settlement     *usecase.SettlementUseCase
	reconciliation *usecase.ReconciliationUseCase
	publisher      *eventpublisher.EventPublisher

	deps *dependencies
	log  zerolog.Logger
	m    *metrics.Metrics
}

func newApplication(cfg *config.Config, deps *dependencies, m *metrics.Metrics, log zerolog.Logger) *application {
	idGen := postgresRepo.NewULIDGenerator()

	ledger := usecase.NewLedgerUseCase(deps.txManager, deps.accounts, deps.entries, deps.transfers, deps.retrier, m, log,
		usecase.LedgerConfig{
			InitialCredit:    cfg.InitialCredit,
			ReciprocityLimit: cfg.ReciprocityLimit,
		})

	app := &application{
		ledger:   ledger,
		accounts: usecase.NewAccountUseCase(deps.txManager, deps.accounts, ledger, idGen, m),
		listings: usecase.NewListingUseCase(deps.txManager, deps.accounts, deps.listings, idGen),
		participations: usecase.NewParticipationUseCase(deps.txManager, deps.accounts, deps.listings, deps.participations,
			deps.outbox, usecase.NewCapacityArbiter(deps.listings, m), idGen, deps.retrier, m, log),
		settlement: usecase.NewSettlementUseCase(deps.txManager, deps.accounts, deps.listings, deps.participations,
			deps.entries, deps.transfers, deps.outbox, ledger, idGen, deps.retrier, m, log),
		reconciliation: usecase.NewReconciliationUseCase(deps.accounts, deps.entries, ledger, log),
		deps:           deps,
		log:            log,
		m:              m,
	}

	if pub := newPublisher(cfg, deps, log); pub != nil {
		app.publisher = eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo:      deps.outbox,
			Publisher:       pub,
			Metrics:         m,
			Logger:          log,
			BatchSize:       cfg.EventBatchSize,
			Interval:        cfg.EventPollInterval,
			Retention:       cfg.EventRetention,
			CleanupInterval: cfg.EventCleanupInterval,
		})
	}

	return app
}

// newPublisher picks the outbox sink. EVENT_SINK=none returns nil and no
// publisher runs.
func newPublisher(cfg *config.Config, deps *dependencies, log zerolog.Logger) eventpublisher.Publisher {
	switch cfg.EventSink {
	case config.EventSinkRedis:
		return eventpublisher.NewRedisStreamPublisher(deps.redisClient, cfg.EventStream)
	case config.EventSinkLog:
		return eventpublisher.NewLogPublisher(log)
	default:
		return nil
	}
}

func (a *application) router(cfg *config.Config, limiter *middleware.RateLimiter, gatherer prometheus.Gatherer) http.Handler {
	return httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:       handler.NewAccountHandler(a.accounts),
		ListingHandler:       handler.NewListingHandler(a.listings),
		ParticipationHandler: handler.NewParticipationHandler(a.participations, a.settlement),
		TransferHandler:      handler.NewTransferHandler(a.ledger, a.settlement),
		EntryHandler:         handler.NewEntryHandler(a.ledger),
		LedgerHandler:        handler.NewLedgerHandler(a.ledger, a.reconciliation),
		HealthHandler:        handler.NewHealthHandler(a.deps.checks),
		IdempotencyStore:     a.deps.idempotency,
		IdempotencyTTL:       cfg.IdempotencyTTL,
		RateLimiter:          limiter,
		Metrics:              a.m,
		Gatherer:             gatherer,
		Logger:               a.log,
	})
}
