package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/vedthemaster/lexsy-backend/internal/config"
	httpserver "github.com/vedthemaster/lexsy-backend/internal/http"
	"github.com/vedthemaster/lexsy-backend/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	srv, err := httpserver.NewServer(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	logger.Info("server starting", "port", cfg.Port)
	if err := srv.Run(); err != nil {
		log.Fatalf("server stopped with error: %v", err)
	}
}
