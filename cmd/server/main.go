package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/praxislearn/praxis/internal/app"
	"github.com/praxislearn/praxis/internal/config"
	"github.com/praxislearn/praxis/internal/logger"
	"go.uber.org/zap"
)

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.Initialize(cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting praxis",
		zap.Int("port", cfg.Server.Port),
		zap.String("ollama", cfg.Ollama.BaseURL),
		zap.String("proof_model", cfg.Models.Proof),
		zap.String("problem_model", cfg.Models.Problem),
		zap.String("general_model", cfg.Models.General))

	application, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("Failed to build application", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application.Start(ctx)

	if err := application.Serve(ctx); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
	log.Info("Shutdown complete")
}
