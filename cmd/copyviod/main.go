// Package main runs the copyvio check service: a shared worker pool behind
// an HTTP API.
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

	"github.com/theassyrian/earwigbot/internal/api"
	"github.com/theassyrian/earwigbot/internal/clock/system"
	"github.com/theassyrian/earwigbot/internal/config"
	"github.com/theassyrian/earwigbot/internal/copyvios"
	"github.com/theassyrian/earwigbot/internal/domains"
	"github.com/theassyrian/earwigbot/internal/extract"
	"github.com/theassyrian/earwigbot/internal/fetch"
	"github.com/theassyrian/earwigbot/internal/logging"
	"github.com/theassyrian/earwigbot/internal/markov"
	"github.com/theassyrian/earwigbot/internal/ratelimit"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher := fetch.New(fetch.Config{
		Extractor: extract.NewHTML(),
		UserAgent: cfg.HTTP.UserAgent,
		Logger:    logger,
	})
	limiter := ratelimit.New(ratelimit.Config{
		DefaultRPS:   cfg.HTTP.DomainRPS,
		DefaultBurst: cfg.HTTP.DomainBurst,
	})
	pool, err := copyvios.NewPool(copyvios.PoolConfig{
		Workers: cfg.Pool.Workers,
		Fetcher: fetcher,
		Limiter: limiter,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("start pool failed", zap.Error(err))
	}
	defer pool.Shutdown()

	server := api.NewServer(pool, markov.Model{}, domains.PublicSuffix{}, system.New(), cfg, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("copyviod listening", zap.Int("port", cfg.Server.Port), zap.Int("workers", cfg.Pool.Workers))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
}
