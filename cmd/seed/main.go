// Package main provides a CLI tool for migrating the database and seeding
// the default cashboxes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"retailcore/internal/config"
	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/auth"
	"retailcore/internal/domain/cashbox"
	"retailcore/internal/infrastructure/storage/postgres"
	"retailcore/internal/infrastructure/storage/postgres/register_repo"
	"retailcore/pkg/logger"
)

func main() {
	migrate := flag.Bool("migrate", true, "apply embedded migrations before seeding")
	tokenUser := flag.Int64("token-user", 0, "print a development access token for this user id")
	tokenRoles := flag.String("token-roles", "admin", "comma-separated roles for -token-user")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DB.URL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)

	if *migrate {
		if err := postgres.Migrate(ctx, txManager); err != nil {
			log.Fatalw("failed to apply migrations", "error", err)
		}
		log.Info("migrations applied")
	}

	created, err := seedCashboxes(ctx, register_repo.NewCashboxRepo(txManager))
	if err != nil {
		log.Fatalw("failed to seed cashboxes", "error", err)
	}
	log.Infow("cashboxes seeded", "created", created)

	if *tokenUser != 0 {
		jwtService := auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWT.Secret, cfg.JWT.Issuer))
		token, expires, err := jwtService.GenerateAccessToken(id.ID(*tokenUser), "", strings.Split(*tokenRoles, ","))
		if err != nil {
			log.Fatalw("failed to issue token", "error", err)
		}
		log.Infow("development token issued", "user", *tokenUser, "expires", expires)
		fmt.Println(token)
	}
}

// seedCashboxes creates the default cashboxes that do not exist yet.
func seedCashboxes(ctx context.Context, repo *register_repo.CashboxRepo) (int, error) {
	created := 0
	for _, cb := range cashbox.Defaults() {
		_, err := repo.GetCashboxByCode(ctx, cb.Code)
		if err == nil {
			continue
		}
		if !apperror.IsNotFound(err) {
			return created, fmt.Errorf("lookup cashbox %s: %w", cb.Code, err)
		}
		if err := repo.CreateCashbox(ctx, &cb); err != nil {
			return created, fmt.Errorf("create cashbox %s: %w", cb.Code, err)
		}
		logger.Info(ctx, "cashbox created", "code", cb.Code, "id", cb.ID)
		created++
	}
	return created, nil
}
