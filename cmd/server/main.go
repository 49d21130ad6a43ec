// Package main is the entry point for the retailcore API server.
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

	"github.com/redis/go-redis/v9"

	"retailcore/internal/config"
	"retailcore/internal/core/idempotency"
	"retailcore/internal/core/security"
	"retailcore/internal/domain/auth"
	"retailcore/internal/domain/cashbox"
	"retailcore/internal/domain/inventory"
	"retailcore/internal/domain/reports"
	"retailcore/internal/domain/restocks"
	"retailcore/internal/domain/returns"
	"retailcore/internal/domain/sales"
	"retailcore/internal/domain/suppliers"
	"retailcore/internal/infrastructure/cache"
	v1 "retailcore/internal/infrastructure/http/v1"
	"retailcore/internal/infrastructure/http/v1/handlers"
	"retailcore/internal/infrastructure/http/v1/middleware"
	"retailcore/internal/infrastructure/storage/postgres"
	"retailcore/internal/infrastructure/storage/postgres/catalog_repo"
	"retailcore/internal/infrastructure/storage/postgres/document_repo"
	"retailcore/internal/infrastructure/storage/postgres/register_repo"
	"retailcore/internal/infrastructure/storage/postgres/report_repo"
	"retailcore/pkg/logger"
	"retailcore/pkg/numerator"
	"retailcore/pkg/phone"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()
	log.Infow("starting retailcore server", "env", cfg.App.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DB.URL)
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.MinConns = cfg.DB.MinConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Redis (optional) ---
	var (
		redisClient  *redis.Client
		balanceCache cashbox.BalanceCache
		idemStore    idempotency.Store
	)
	if cfg.Redis.Enabled() {
		redisClient, err = cache.NewClient(ctx, cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close()

		balanceCache = cache.NewBalanceCache(redisClient, cfg.BalanceCacheTTL)
		idemStore = cache.NewIdempotencyStore(redisClient, cfg.Idempotency.TTL)
		log.Infow("redis enabled", "addr", cfg.Redis.Addr)
	} else {
		idemStore = postgres.NewIdempotencyStore(txManager, cfg.Idempotency.TTL)
		log.Info("redis disabled; idempotency keys kept in postgres, balances uncached")
	}

	// --- Repositories ---
	parties := catalog_repo.NewPartyRepo(txManager)
	stock := catalog_repo.NewInventoryRepo(txManager)
	saleRepo := document_repo.NewSaleRepo(txManager)
	restockRepo := document_repo.NewRestockRepo(txManager, parties)
	returnRepo := document_repo.NewReturnRepo(txManager)
	cashboxRepo := register_repo.NewCashboxRepo(txManager)
	reportRepo := report_repo.NewReportRepo(txManager, parties)

	auditStore, err := postgres.NewAuditStore(txManager)
	if err != nil {
		log.Fatalw("failed to create audit store", "error", err)
	}

	numbers := numerator.New(func(ctx context.Context) numerator.Querier {
		return txManager.GetQuerier(ctx)
	}, numerator.DefaultConfig())

	// --- Services ---
	cash := cashbox.NewLedger(cashboxRepo, txManager, balanceCache)
	salesService := sales.NewService(saleRepo, parties, stock, cash, numbers, txManager,
		sales.WithAuditor(auditStore),
		sales.WithPhoneNormalizer(phone.NewNormalizer(cfg.PhoneRegion)),
	)
	restockService := restocks.NewService(restockRepo, parties, stock, cash, numbers, txManager)
	supplierService := suppliers.NewService(restockRepo, restockService, cash, txManager)
	returnService := returns.NewService(returnRepo, stock, parties, txManager)
	rollService := inventory.NewRollService(stock, txManager)
	reportService := reports.NewService(reportRepo)

	// --- Auth ---
	policy, err := security.NewActorPolicy(cfg.ActorOverrideRule)
	if err != nil {
		log.Fatalw("invalid ACTOR_OVERRIDE_RULE", "error", err)
	}
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWT.Secret, cfg.JWT.Issuer))

	// --- Rate limiting ---
	rateLimit, err := middleware.RateLimit(cfg.HTTP.RateLimit, redisClient)
	if err != nil {
		log.Fatalw("invalid RATE_LIMIT", "error", err)
	}

	checks := map[string]handlers.Pinger{"database": txManager}
	if redisClient != nil {
		checks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	// --- Router ---
	router, err := v1.NewRouter(v1.RouterConfig{
		Logger:              log,
		HealthChecks:        checks,
		JWTValidator:        jwtService,
		ActorPolicy:         policy,
		Idempotency:         idemStore,
		RateLimit:           rateLimit,
		CORSAllowedOrigins:  cfg.HTTP.CORSAllowedOrigins,
		StatusOverrideRoles: cfg.HTTP.StatusOverrideRoles,
		Development:         cfg.App.Development(),
		Sales:               salesService,
		Restocks:            restockService,
		Suppliers:           supplierService,
		Returns:             returnService,
		Cashboxes:           cash,
		Rolls:               rollService,
		Reports:             reportService,
		Audit:               auditStore,
	})
	if err != nil {
		log.Fatalw("failed to build router", "error", err)
	}

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
