package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/practicehq/auth-service/internal/api"
	"github.com/practicehq/auth-service/internal/controller"
	"github.com/practicehq/auth-service/internal/migrations"
	"github.com/practicehq/auth-service/internal/service"
	"github.com/practicehq/auth-service/internal/storage/postgres"
	"github.com/practicehq/auth-service/internal/storage/redis"
	"github.com/practicehq/auth-service/internal/util"

	_ "github.com/lib/pq"
)

func main() {
	ctx := context.Background()
	logger := util.NewZapLogger()

	db, dbCleanup, err := util.NewDBConnection(logger)
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	if err := migrations.RunMigrations(db, logger, "./internal/migrations"); err != nil {
		logger.Fatal(zap.Error(err))
	}

	redisClient, redisCleanup, err := util.NewRedisClient(logger, util.NewRedisConfig())
	if err != nil {
		logger.Fatal(zap.Error(err))
	}

	apiKeyService := service.NewAPIKeyService(redisClient, logger)
	if err := apiKeyService.SyncAPIKey(ctx); err != nil {
		logger.Fatal(zap.Error(err))
	}

	storage := postgres.NewStorage(db)
	cleanupFuncs := []func(){dbCleanup, redisCleanup}

	denylist := redis.NewAccessTokenDenylist(redisClient)
	tokenService := service.NewTokenService(util.NewTokenConfig(), storage, denylist, logger)
	verifier := service.NewPasswordVerifier(service.DefaultScryptParams())
	webhookService := service.NewWebhookService(logger, util.GetWebhookURL())
	authService := service.NewAuthService(tokenService, verifier, storage, webhookService, logger)

	controller := controller.NewController(logger, authService)

	apiServer := api.NewAPI(controller, authService, apiKeyService, util.NewServerConfig(), logger, cleanupFuncs)
	apiServer.Run(ctx)
}
