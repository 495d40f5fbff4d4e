package main

import (
	"listkeeper/config"
	"listkeeper/internal/api"
	"listkeeper/internal/db"
	"listkeeper/internal/repository"
	"listkeeper/internal/service/auth"
	"listkeeper/internal/service/subscription"
	"listkeeper/internal/service/token"
	"listkeeper/pkg/logger"
	"listkeeper/pkg/mq"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Init RabbitMQ publisher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("MQ publisher initialization failed", zap.Error(err))
	}
	defer publisher.Close()

	// Init repositories
	userRepo := repository.NewUserRepository(dbConn)
	listRepo := repository.NewMailingListRepository(dbConn)
	subscriberRepo := repository.NewSubscriberRepository(dbConn)

	// Init services
	tokenService := token.NewService(cfg.Token.Secret, cfg.Token.TTL)
	authService := auth.NewService(userRepo, cfg.JWT.Secret)
	subscriptionService := subscription.NewService(
		subscriberRepo,
		listRepo,
		mq.NewConfirmationQueue(publisher),
		tokenService,
		log,
	)

	// Init handlers
	authHandler := api.NewAuthHandler(authService)
	listHandler := api.NewListHandler(subscriptionService)
	subscriberHandler := api.NewSubscriberHandler(subscriptionService)

	router := api.NewRouter(authHandler, listHandler, subscriberHandler, cfg.JWT.Secret)

	log.Info("Starting API server", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("server start failed", zap.Error(err))
	}
}
