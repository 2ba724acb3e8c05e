package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	_ "modernc.org/sqlite"

	"github.com/pogoda34/weather-bot/internal/app"
	"github.com/pogoda34/weather-bot/internal/config"
	"github.com/pogoda34/weather-bot/pkg/logger"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.New()
	if err != nil {
		log.Panicf("failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogsPath, "weather-bot", zerolog.InfoLevel)

	application := app.New(*cfg, l)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		log.Panic(err)
	}
}
