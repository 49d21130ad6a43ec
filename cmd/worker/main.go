// Package main is the entry point for the retailcore background worker.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"retailcore/internal/config"
	"retailcore/internal/infrastructure/cache"
	"retailcore/internal/infrastructure/storage/postgres"
	"retailcore/pkg/logger"
)

const (
	cleanupInterval   = time.Hour
	poolStatsInterval = 5 * time.Minute
	cleanupLockKey    = "retailcore:worker:cleanup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting retailcore worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DB.URL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	worker := &Worker{
		pool:        pool,
		idempotency: postgres.NewIdempotencyStore(postgres.NewTxManager(pool), cfg.Idempotency.TTL),
		log:         log.WithComponent("worker"),
	}

	if cfg.Redis.Enabled() {
		var redisClient *redis.Client
		redisClient, err = cache.NewClient(ctx, cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close()
		worker.locker = redislock.New(redisClient)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker runs periodic maintenance against the database.
type Worker struct {
	pool        *postgres.Pool
	idempotency *postgres.IdempotencyStore
	// locker is nil without Redis; cleanup then runs unguarded.
	locker *redislock.Client
	log    *logger.Logger
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	cleanupTicker := time.NewTicker(cleanupInterval)
	defer cleanupTicker.Stop()

	statsTicker := time.NewTicker(poolStatsInterval)
	defer statsTicker.Stop()

	w.cleanupIdempotency(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-cleanupTicker.C:
			w.cleanupIdempotency(ctx)
		case <-statsTicker.C:
			postgres.LogPoolStats(ctx, w.pool.Pool)
		}
	}
}

func (w *Worker) cleanupIdempotency(ctx context.Context) {
	if w.locker != nil {
		lock, err := w.locker.Obtain(ctx, cleanupLockKey, cleanupInterval/2, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			w.log.Debug("cleanup already running elsewhere")
			return
		}
		if err != nil {
			w.log.Errorw("failed to obtain cleanup lock", "error", err)
			return
		}
		defer func() { _ = lock.Release(context.WithoutCancel(ctx)) }()
	}

	removed, err := w.idempotency.CleanupExpired(ctx)
	if err != nil {
		w.log.Errorw("failed to clean up idempotency keys", "error", err)
		return
	}
	if removed > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", removed)
	}
}
