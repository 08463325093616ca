package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/unalkalkan/s3provider/internal/api"
	"github.com/unalkalkan/s3provider/internal/config"
	"github.com/unalkalkan/s3provider/internal/health"
	"github.com/unalkalkan/s3provider/internal/logging"
	"github.com/unalkalkan/s3provider/internal/metrics"
	"github.com/unalkalkan/s3provider/pkg/storage"
	"github.com/unalkalkan/s3provider/pkg/types"
)

const version = "0.2.0"

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/dev.example.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting s3provider server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Metrics registry
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Initialize storage provider
	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	provider, err := storage.Init(initCtx, cfg.Provider,
		storage.WithLogger(logger.Named("storage")),
		storage.WithObserver(m),
	)
	cancelInit()
	if err != nil {
		logger.Fatal("failed to initialize storage provider", zap.Error(err))
	}
	logger.Info("storage provider initialized",
		zap.String("bucket", cfg.Provider.Bucket),
		zap.String("region", cfg.Provider.Region),
		zap.String("folder", cfg.Provider.Folder),
	)

	// Health checks
	healthHandler := health.NewHandler(version)
	healthHandler.Register("bucket", health.PingCheck(provider))

	// Set up HTTP server and routes
	mux := http.NewServeMux()
	healthHandler.Routes(mux)
	api.NewFileHandler(provider, cfg.Server.MaxUploadSize, logger.Named("api")).Routes(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /api/v1/info", infoHandler(version, provider.Config()))

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("server stopped")
}

// infoHandler returns basic server information
func infoHandler(version string, cfg types.ProviderConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"version":  version,
			"bucket":   cfg.Bucket,
			"region":   cfg.Region,
			"folder":   cfg.Folder,
			"base_url": cfg.BaseURL,
		})
	}
}
