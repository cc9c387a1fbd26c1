package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/app"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/platform/logger"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("warning: Error loading .env file (this is fine in production): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗しました: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, lg)
	if err != nil {
		lg.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}
	if err := a.Run(ctx); err != nil {
		lg.Error("server exited", "error", err)
		os.Exit(1)
	}
}
