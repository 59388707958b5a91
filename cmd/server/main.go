package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/ucubank/bankaccounts/internal/adapter/http"
	"github.com/ucubank/bankaccounts/internal/adapter/http/handler"
	"github.com/ucubank/bankaccounts/internal/adapter/http/middleware"
	"github.com/ucubank/bankaccounts/internal/adapter/repository/memory"
	postgresRepo "github.com/ucubank/bankaccounts/internal/adapter/repository/postgres"
	redisRepo "github.com/ucubank/bankaccounts/internal/adapter/repository/redis"
	"github.com/ucubank/bankaccounts/internal/infrastructure/auth"
	"github.com/ucubank/bankaccounts/internal/infrastructure/config"
	"github.com/ucubank/bankaccounts/internal/infrastructure/logger"
	"github.com/ucubank/bankaccounts/internal/infrastructure/metrics"
	"github.com/ucubank/bankaccounts/internal/infrastructure/postgres"
	"github.com/ucubank/bankaccounts/internal/infrastructure/redis"
	"github.com/ucubank/bankaccounts/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "bankaccounts",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := newApp(ctx, cfg, logger, reg)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.rateLimiter != nil {
		go a.rateLimiter.Run(ctx, 5*time.Minute)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      a.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("port", cfg.HTTPPort).
			Str("storage", cfg.StorageBackend).
			Bool("auth", cfg.AuthEnabled).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info().Msg("server stopped")
	return nil
}

// app is the wired HTTP handler plus the connections it owns.
type app struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
	closers     []func()
}

// Close releases connections in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

type storage struct {
	txManager   usecase.TransactionManager
	accountRepo usecase.AccountRepository
	userRepo    usecase.UserRepository
	receiptRepo usecase.ReceiptRepository
	retrier     usecase.Retrier
	checks      []handler.Check
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, reg *prometheus.Registry) (a *app, err error) {
	a = &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	m := metrics.New(reg)

	store, err := newStorage(ctx, cfg, logger, m, a)
	if err != nil {
		return nil, err
	}

	var (
		redisClient      *goredis.Client
		idempotencyStore usecase.IdempotencyStore
		locker           usecase.AccountLocker
	)
	if cfg.RedisEnabled {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		logger.Info().Msg("connected to redis")

		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		if cfg.DistributedLocks {
			locker = redisRepo.NewAccountLocker(redisClient, cfg.LockTTL, cfg.LockWait)
		}
		store.checks = append(store.checks, handler.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	idGen := postgresRepo.NewULIDGenerator()

	// Initialize use cases
	userUC := usecase.NewUserUseCase(store.userRepo, idGen)
	accountUC := usecase.NewAccountUseCase(store.txManager, store.accountRepo, store.userRepo, idGen).
		WithMetrics(m)
	transferUC := usecase.NewTransferUseCase(store.txManager, store.accountRepo, store.userRepo, store.receiptRepo, idGen).
		WithMetrics(m).
		WithTimeout(cfg.TransferTimeout)
	receiptUC := usecase.NewReceiptUseCase(store.receiptRepo)

	if store.retrier != nil {
		accountUC.WithRetrier(store.retrier)
		transferUC.WithRetrier(store.retrier)
	}
	if locker != nil {
		transferUC.WithAccountLocker(locker)
	}

	authenticate := middleware.TrustedHeaderAuth
	if cfg.AuthEnabled {
		authenticate = middleware.AuthMiddleware(auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration))
	}

	if cfg.RateLimitRPS > 0 {
		a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithMetrics(m)
	}

	routerCfg := httpAdapter.RouterConfig{
		Logger:           logger,
		Metrics:          m,
		Gatherer:         reg,
		UserHandler:      handler.NewUserHandler(userUC),
		AccountHandler:   handler.NewAccountHandler(accountUC),
		TransferHandler:  handler.NewTransferHandler(transferUC),
		ReceiptHandler:   handler.NewReceiptHandler(receiptUC),
		HealthHandler:    handler.NewHealthHandler(store.checks...),
		Authenticator:    authenticate,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      a.rateLimiter,
		IdempotencyStore: idempotencyStore,
	}

	a.handler = httpAdapter.NewRouter(routerCfg)
	return a, nil
}

func newStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics, a *app) (*storage, error) {
	if cfg.StorageBackend == config.StorageMemory {
		s := memory.NewStore()
		logger.Warn().Msg("using in-memory storage, data is lost on restart")
		return &storage{
			txManager:   memory.NewTxManager(s),
			accountRepo: memory.NewAccountRepository(s),
			userRepo:    memory.NewUserRepository(s),
			receiptRepo: memory.NewReceiptRepository(s),
			checks:      []handler.Check{{Name: "memory", Ping: s.Ping}},
		}, nil
	}

	if cfg.RunMigrations {
		if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, logger).Up(); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:     cfg.DatabaseURL,
		MaxConns:        cfg.DatabaseMaxConns,
		MinConns:        cfg.DatabaseMinConns,
		MaxConnLifetime: cfg.DatabaseMaxConnLifetime,
		MaxConnIdleTime: cfg.DatabaseMaxConnIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	logger.Info().Msg("connected to postgres")

	return &storage{
		txManager:   postgresRepo.NewTxManager(pool).WithLockTimeout(cfg.DatabaseLockTimeout),
		accountRepo: postgresRepo.NewAccountRepository(pool),
		userRepo:    postgresRepo.NewUserRepository(pool),
		receiptRepo: postgresRepo.NewReceiptRepository(pool),
		retrier:     postgresRepo.NewRetrier(logger).WithMetrics(m),
		checks:      []handler.Check{{Name: "postgres", Ping: pool.Ping}},
	}, nil
}
