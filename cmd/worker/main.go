package main

import (
	"time"

	"go.uber.org/zap"

	"stylemail/internal/config"
	"stylemail/internal/db"
	"stylemail/internal/extractor"
	"stylemail/internal/mq"
	"stylemail/internal/mqhandler"
	redisclient "stylemail/internal/redis"
	"stylemail/internal/repository"
	"stylemail/internal/service"
	"stylemail/internal/util"
	"stylemail/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting stylemail worker...")

	rdb := redisclient.NewClient(cfg.Redis)
	defer rdb.Close()

	deduper := util.NewDeduper(rdb, 24*time.Hour, log)

	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	profileRepo := repository.NewProfileRepository(dbConn)
	extractorClient := extractor.NewClient(
		cfg.Extractor.BaseURL,
		time.Duration(cfg.Extractor.TimeoutSeconds)*time.Second,
		log,
	)
	profileService := service.NewProfileService(profileRepo, extractorClient, log)

	producer, err := mq.NewProducer(cfg.MQ.URL)
	if err != nil {
		log.Fatal("failed to init producer", zap.Error(err))
	}
	defer producer.Close()

	emailSentHandler := mqhandler.NewEmailSentHandler(profileService, deduper, producer, log)

	consumer, err := mq.NewConsumer(cfg.MQ.URL, "email.sent.style.q", mq.RoutingKeyEmailSent, log)
	if err != nil {
		log.Fatal("failed to init email.sent consumer", zap.Error(err))
	}
	consumer.SetHandler(emailSentHandler.HandleEmailSent)
	defer consumer.Close()

	go func() {
		log.Info("Starting email.sent consumer")
		if err := consumer.StartConsuming(); err != nil {
			log.Fatal("email.sent consumer failed", zap.Error(err))
		}
	}()

	log.Info("Worker ready to fold outgoing emails into style profiles")

	select {}
}
