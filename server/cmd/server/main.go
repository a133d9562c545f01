package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/obsidianstack/todos/server/internal/api"
	"github.com/obsidianstack/todos/server/internal/config"
	"github.com/obsidianstack/todos/server/internal/metrics"
	"github.com/obsidianstack/todos/server/internal/notify"
	"github.com/obsidianstack/todos/server/internal/store"
	"github.com/obsidianstack/todos/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file; defaults are used if it does not exist")
	flag.Parse()

	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	slog.Info("todos-server starting", "config", *configPath)

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level.Set(cfg.Server.Level())

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"log_level", cfg.Server.LogLevel,
		"allowed_origins", cfg.Server.CORS.AllowedOrigins,
		"default_limit", cfg.Server.Pagination.DefaultLimit,
		"webhooks", len(cfg.Server.Webhooks),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st := store.New()
	reg := metrics.New(st.Len)
	webhooks := notify.NewWebhooks(cfg.Server.Webhooks)

	// WebSocket hub: full list every interval, change events as they happen.
	hub := ws.New(st, cfg.Server.Stream.Interval, cfg.Server.CORS.AllowedOrigins)
	go hub.Run(ctx)

	handler := api.New(st, api.Options{
		DefaultLimit:   cfg.Server.Pagination.DefaultLimit,
		AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
		Notifier:       notify.Fanout{webhooks, hub},
		Metrics:        reg,
		Stream:         hub,
	})

	// Hot reload applies the log level and webhook targets; everything else
	// needs a restart.
	if _, err := os.Stat(*configPath); err == nil {
		go func() {
			err := config.Watch(ctx, *configPath, func(c *config.Config) {
				level.Set(c.Server.Level())
				webhooks.SetTargets(c.Server.Webhooks)
			})
			if err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("todos-server shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	webhooks.Wait()
}
