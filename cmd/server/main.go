// File: cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iyunix/go-sage/internal/config"
	"github.com/iyunix/go-sage/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: configuration error: %v", err)
	}

	logger := services.NewLogger("sage", cfg.Environment, cfg.LogLevel)
	if zl, ok := logger.(*services.ZapLogger); ok {
		defer zl.Sync()
	}

	app, err := buildApplication(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	// --- Server Configuration ---
	port := ":8080"
	if cfg.ServerPort != "" {
		port = ":" + cfg.ServerPort
	}
	srv := &http.Server{
		Addr:              port,
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("server starting",
		"port", port,
		"env", cfg.Environment,
		"store_backend", cfg.StoreBackend,
		"ai_provider", cfg.AIProvider,
		"default_model", cfg.DefaultModel,
	)

	// --- Start Server in Goroutine ---
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server startup failed", "error", err)
			os.Exit(1)
		}
	}()

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down server gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	app.Close()
	logger.Info("server stopped gracefully")
}
