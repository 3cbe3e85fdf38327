package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/example/ride-assistant/internal/assistant"
	"github.com/example/ride-assistant/internal/backend"
	"github.com/example/ride-assistant/internal/config"
	"github.com/example/ride-assistant/internal/dispatch"
	"github.com/example/ride-assistant/internal/eventloop"
	httpapi "github.com/example/ride-assistant/internal/http"
	"github.com/example/ride-assistant/internal/logging"
)

func main() {
	cfg, err := config.LoadClientConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if cfg.MapsAPIKey == "" {
		logger.Warn("MAPS_API_KEY not set; map embeds will not load")
	}

	loop := eventloop.New()
	api := backend.NewClient(cfg.BaseURL, cfg.HTTPTimeout, logging.Component(logger, "backend"))
	hub := dispatch.NewWSRegistry(logger)
	client := assistant.New(cfg, loop, api, httpapi.NewAlertSink(hub), logger)
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpapi.NewServer(client, loop, hub, api, logger),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := loop.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		logger.Info("ride-assistant listening", "addr", cfg.HTTPAddr, "platform", cfg.Platform, "backend", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
