package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/softvape/shop-bot/internal/app"
	config "github.com/softvape/shop-bot/internal/cfg"
	"github.com/softvape/shop-bot/pkg/logger"
)

func main() {
	log := logger.NewSlogLogger()

	// Локальная разработка: переменные окружения из .env, если файл есть.
	if err := godotenv.Load(); err != nil {
		log.Debugf(".env file not loaded: %v", err)
	}

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	if err := app.Run(cfg, log); err != nil {
		os.Exit(1)
	}
}
