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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/nakanohidekatsu/pos-terminal/internal/catalog"
	"github.com/nakanohidekatsu/pos-terminal/internal/config"
	h "github.com/nakanohidekatsu/pos-terminal/internal/http"
	"github.com/nakanohidekatsu/pos-terminal/internal/pos"
	"github.com/nakanohidekatsu/pos-terminal/internal/register"
	"github.com/nakanohidekatsu/pos-terminal/internal/scanner"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	httpClient := &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	productCache := catalog.NewMemoryCache(cfg.CacheTTL)
	defer productCache.Close()

	catalogService := catalog.NewService(
		catalog.NewHTTPClient(cfg.APIBaseURL, httpClient, logger),
		productCache,
		logger,
	)
	recorder := register.NewClient(cfg.APIBaseURL, httpClient, logger)

	simulator := scanner.NewSimulator(logger)
	defer simulator.Stop()

	session := pos.NewSession(catalogService, recorder, simulator, pos.Identity{
		EmpCD:   cfg.EmpCD,
		StoreCD: cfg.StoreCD,
		PosNo:   cfg.PosNo,
	}, logger)

	router := h.NewRouter(
		h.NewSessionHandler(session, logger, cfg.RequestTimeout),
		h.NewScannerHandler(simulator),
		cfg.RequestTimeout,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("pos terminal starting",
			zap.String("port", cfg.HTTPPort),
			zap.String("api_base_url", cfg.APIBaseURL),
			zap.String("store_cd", cfg.StoreCD),
			zap.String("pos_no", cfg.PosNo))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
}
