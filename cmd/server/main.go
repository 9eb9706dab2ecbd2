package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/utopialabs/utopia/internal/config"
	"github.com/utopialabs/utopia/internal/logging"
	"github.com/utopialabs/utopia/internal/query"
	"github.com/utopialabs/utopia/internal/report"
	"github.com/utopialabs/utopia/internal/server"
	"github.com/utopialabs/utopia/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	st, err := store.Open(cfg.Store.Dir, true)
	if err != nil {
		logger.Error("failed to open reference store", "dir", cfg.Store.Dir, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("closing reference store failed", "error", err)
		}
	}()

	var signer *report.Signer
	if cfg.Report.Certificate != "" && cfg.Report.PrivateKey != "" {
		signer, err = report.NewSignerFromFiles(cfg.Report.Certificate, cfg.Report.PrivateKey)
		if err != nil {
			logger.Error("failed to load signing material", "error", err)
			os.Exit(1)
		}
		logger.Info("report signing enabled", "certificate", cfg.Report.Certificate)
	}
	serializer := report.NewSerializer(signer)

	engine := query.NewEngine(st, cfg.Query.LogPath, logger)

	var cache *query.ResultCache
	if cfg.Query.CacheDir != "" {
		cache = query.NewResultCache(cfg.Query.CacheDir)
	}

	apiHandlers := server.NewAPIHandlers(logger, engine, cache, serializer, st)

	router := server.NewRouter(logger, server.RouterDependencies{
		Health: server.StoreHealthService{Store: st},
		API:    apiHandlers,
	})

	srv := server.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
