package main

import (
	"time"

	"listkeeper/config"
	"listkeeper/internal/db"
	"listkeeper/internal/mailer"
	"listkeeper/internal/mqhandler"
	"listkeeper/internal/repository"
	"listkeeper/internal/service/token"
	"listkeeper/pkg/logger"
	"listkeeper/pkg/mq"
	redisclient "listkeeper/pkg/redis"
	"listkeeper/pkg/util"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting confirmation worker...")

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Init Redis
	rdb := redisclient.NewClient(cfg.Redis)
	defer rdb.Close()

	attempts := util.NewAttemptCounter(rdb, 24*time.Hour)

	// Init RabbitMQ publisher (DLQ) and consumer
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("MQ publisher initialization failed", zap.Error(err))
	}
	defer publisher.Close()

	consumer, err := mq.NewConsumer(cfg.MQ.URL, "confirmation-worker", mq.RoutingKeyConfirmation, log)
	if err != nil {
		log.Fatal("MQ consumer initialization failed", zap.Error(err))
	}
	defer consumer.Close()

	// Init dependencies of the dispatch handler
	listRepo := repository.NewMailingListRepository(dbConn)
	subscriberRepo := repository.NewSubscriberRepository(dbConn)
	tokenService := token.NewService(cfg.Token.Secret, cfg.Token.TTL)
	transport := mailer.NewSMTPTransport(cfg.SMTP.Addr, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
	composer := mailer.NewComposer(cfg.Server.BaseURL)

	handler := mqhandler.NewConfirmationHandler(
		subscriberRepo,
		listRepo,
		tokenService,
		transport,
		composer,
		attempts,
		publisher,
		mqhandler.Config{
			MaxAttempts:   cfg.Dispatch.MaxAttempts,
			Backoff:       cfg.Dispatch.Backoff,
			MaxDeliveries: cfg.Dispatch.MaxDeliveries,
		},
		log,
	)

	consumer.SetHandler(handler.Handle)

	if err := consumer.StartConsuming(); err != nil {
		log.Fatal("consumer stopped", zap.Error(err))
	}
}
