package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-imaging-assistant/internal/config"
	"go-imaging-assistant/internal/container"
	"go-imaging-assistant/internal/logger"
	"go-imaging-assistant/internal/telemetry"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

const serviceName = "imaging-assistant"

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load config")
	}

	logger.Configure(cfg.LogLevel)

	shutdownTracing, err := telemetry.Init(context.Background(), serviceName, cfg.ServiceVersion)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialise tracing")
	}

	// Initialize dependency injection container
	c, err := container.NewContainer(context.Background(), cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize container")
	}

	// Uploads are read in full before the request deadline starts to matter,
	// so the write timeout leaves room for the response after it.
	server := &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           c.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.WithFields(logrus.Fields{
			"address": cfg.ServerAddress(),
			"timeout": cfg.RequestTimeout.String(),
			"version": cfg.ServiceVersion,
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.WithError(err).Warn("Tracer shutdown failed")
	}

	logger.Info("Server exited")
}
