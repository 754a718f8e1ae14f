// Package main is the entry point for the rate match service.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	_ "ratematch/internal/api/docs"
	"ratematch/internal/config"
	"ratematch/internal/logger"
)

// @title Rate Match API
// @version 1.0
// @description Matches a numeric value to the currency whose exchange rate is nearest to it, against a selectable base, and streams a short fact about the match.
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	sugar, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = sugar.Sync() }()

	sugar.Infow("Starting Rate Match Service", "port", cfg.Server.Port, "base", cfg.Table.StartingCurrency)

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalw("Failed to initialize app", "error", err)
	}

	if err := app.Run(ctx); err != nil {
		sugar.Fatalw("Application error", "error", err)
	}
}
