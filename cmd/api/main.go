package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bastianbaeza/JackdawSoft/internal/infra/app"
	"github.com/bastianbaeza/JackdawSoft/internal/infra/config"
	"github.com/bastianbaeza/JackdawSoft/internal/infra/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Init("production").Fatal("load config", zap.Error(err))
	}

	log := logger.Init(cfg.App.Env)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Error("initialize application", zap.Error(err))
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		log.Error("run application", zap.Error(err))
		os.Exit(1)
	}

	log.Info("shutdown complete")
}
