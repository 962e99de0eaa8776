package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bookstore/internal/config"
	"bookstore/internal/core"
	"bookstore/internal/feed"
	"bookstore/internal/logging"
	"bookstore/internal/store"
	"bookstore/internal/web"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present (Overload overwrites existing env vars).
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"store_path", cfg.Store.Path,
		"feed_url", cfg.Feed.URL,
	)

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	client := feed.NewClient(cfg.Feed.URL, cfg.Feed.Timeout)
	service := core.NewService(st, client, cfg)
	server := web.NewServer(service, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
