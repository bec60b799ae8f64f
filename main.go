package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/seoaudit/analyzer"
	"github.com/seo-optimizer/seoaudit/compare"
	"github.com/seo-optimizer/seoaudit/config"
	"github.com/seo-optimizer/seoaudit/history"
	"github.com/seo-optimizer/seoaudit/logging"
	"github.com/seo-optimizer/seoaudit/middleware"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	logger := logging.NewLogger(os.Stderr, cfg.GinMode == gin.DebugMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		stop()
		os.Exit(1)
	}
}

// run serves the API until ctx is cancelled. Every resource it opens is
// released before it returns, including on startup failures.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := history.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open history in %s: %w", cfg.DataDir, err)
	}
	defer store.Close()

	seoAnalyzer, err := analyzer.New(cfg.AnalyzerOptions(logger))
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}
	defer func() {
		if err := seoAnalyzer.Shutdown(); err != nil {
			logger.Warn("failed to shut down analyzer", "error", err)
		}
	}()

	stats := logging.NewStatistics(filepath.Join(cfg.DataDir, logging.StatisticsFile), cfg.DevMode)
	defer func() {
		if err := stats.Save(); err != nil {
			logger.Warn("failed to save statistics", "error", err)
		}
	}()

	srv := &server{
		analyzer: seoAnalyzer,
		namer:    compare.NewNamer(),
		history:  store,
		stats:    stats,
		logger:   logger,
		devMode:  cfg.DevMode,
	}
	router := srv.routes(middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst))

	listener, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", cfg.Port, err)
	}

	httpServer := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", listener.Addr().String())
		serveErr <- httpServer.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}
	return nil
}
