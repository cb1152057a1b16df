package main

import (
	"time"

	"go.uber.org/zap"

	"stylemail/internal/config"
	"stylemail/internal/db"
	"stylemail/internal/extractor"
	"stylemail/internal/handler"
	"stylemail/internal/httpserver"
	"stylemail/internal/repository"
	"stylemail/internal/service"
	"stylemail/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting stylemail API server...")

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
	profileHandler := handler.NewProfileHandler(profileService, log)

	router := httpserver.NewRouter(profileHandler, cfg.JWT.Secret, dbConn)

	log.Info("API server listening", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}
