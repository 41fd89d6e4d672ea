package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/localsolutions/board-api/internal/infra/app"
	"github.com/localsolutions/board-api/internal/infra/config"
)

// Exit codes let a supervisor tell bad configuration apart from a runtime failure.
const (
	exitOK = iota
	exitRuntime
	exitConfig
	exitStartup
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := godotenv.Load(); err == nil {
		log.Print("board-api: loaded environment from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("board-api: invalid configuration: %v", err)
		return exitConfig
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Printf("board-api: startup failed (env=%s): %v", cfg.App.Env, err)
		return exitStartup
	}

	if err := application.Run(ctx); err != nil {
		log.Printf("board-api: stopped with error: %v", err)
		return exitRuntime
	}
	return exitOK
}
