package main

import (
	"log"

	"go.uber.org/zap"

	"github.com/you/retaildash/internal/app"
	"github.com/you/retaildash/internal/config"
	"github.com/you/retaildash/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := app.Run(cfg, zl); err != nil {
		zl.Fatal("app", zap.Error(err))
	}
}
