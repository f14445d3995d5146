package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ascension-ai/backend/src/app"

	"github.com/joho/godotenv"
)

const (
	AppName    = "Ascension Funnel Backend"
	AppVersion = "0.1.0"
	AppBuild   = "dev"
)

func main() {
	// .env is optional outside development
	_ = godotenv.Load()

	// Setup app configuration
	cfg := app.NewAppConfig()

	// Create root logger
	rootLogger := app.InitLogger(*cfg.LogLevel)

	// Create root context, cancelled on SIGINT/SIGTERM
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	rootCtx = rootLogger.WithContext(rootCtx)

	rootLogger.Info().
		Str("version", AppVersion).
		Str("build", AppBuild).
		Msgf("Launching %s", AppName)

	application := app.NewApplication(rootCtx, *cfg)
	if application == nil {
		rootLogger.Fatal().Msg("failed to initialize application")
		os.Exit(1)
	}
	defer application.Shutdown(rootCtx)

	var wg sync.WaitGroup

	wg.Add(1)
	go application.RunHTTPServer(rootCtx, &wg)

	wg.Add(1)
	go application.RunReverifyWorker(rootCtx, &wg)

	wg.Wait()
}
