package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"awstatus/internal/catalog"
	"awstatus/internal/config"
	"awstatus/internal/feed"
	"awstatus/internal/observability"
	web "awstatus/internal/server"
	"awstatus/internal/store"
	"awstatus/internal/worker"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutting down server...")
		cancel()
	}()

	client := feed.NewClient(
		feed.WithURLs(cfg.DataURL, cfg.ServicesURL),
		feed.WithTimeout(cfg.FetchTimeout),
	)
	metrics := observability.NewMetrics()
	cat := catalog.New(client)
	st := store.New(client, logger, store.WithMetrics(metrics))

	refresher := worker.NewRefresher(st, cat, logger, cfg.RefreshInterval)
	go refresher.Start(ctx)

	srv := web.NewServer(st, cat, logger)
	go func() {
		if err := srv.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}
}
