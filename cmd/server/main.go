// Package main is the entry point for the insdr-dispatch HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/popeskul/insdr-dispatch/internal/app"
	"github.com/popeskul/insdr-dispatch/internal/config"
	"github.com/popeskul/insdr-dispatch/internal/handler"
	"github.com/popeskul/insdr-dispatch/internal/middleware"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	application, err := app.New(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	svc := application.Service

	rateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.Middleware.RateLimit), cfg.Middleware.RateLimitBurst)
	defer rateLimiter.Stop()

	router := setupRouter(handler.NewHandler(svc, logger), application.Authenticator, rateLimiter, logger)

	middlewareConfig := &middleware.Config{
		Logger:         logger,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
	}
	if cfg.Middleware.EnableCORS {
		middlewareConfig.CORS = middleware.NewCORSConfig(cfg.Middleware.AllowedOrigins)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      middleware.Chain(middlewareConfig)(router),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// The certification session is refreshed in the background; deposits
	// still log in on demand if it is not running.
	if err := svc.Session.Start(); err != nil {
		logger.Error("Failed to start certification session refresh", zap.Error(err))
	} else {
		logger.Info("Certification session refresh started")
	}

	go func() {
		logger.Info("Starting server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if svc.Session.IsRunning() {
		if err := svc.Session.Stop(); err != nil {
			logger.Error("Failed to stop certification session refresh", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
