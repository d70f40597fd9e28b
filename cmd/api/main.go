package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brandforge-app/brandforge/internal/app"
	"github.com/brandforge-app/brandforge/internal/config"
	"github.com/brandforge-app/brandforge/internal/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		<-c
		cancel()
	}()

	cfg := config.LoadConfig()
	lg, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer lg.Sync()

	application, err := app.NewApp(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("startup failed", "error", err)
	}

	go func() {
		if err := application.Server.Start(); err != nil {
			lg.Fatal("server error", "error", err)
		}
	}()

	lg.Info("brandforge is running")
	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		lg.Warn("server shutdown error", "error", err)
	}
	application.Close(shutdownCtx)
	lg.Info("shutdown complete")
}
