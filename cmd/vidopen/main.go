package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/vidopen/api"
	"github.com/use-agent/vidopen/cache"
	"github.com/use-agent/vidopen/config"
	"github.com/use-agent/vidopen/opener"
	"github.com/use-agent/vidopen/scraper"
	"github.com/use-agent/vidopen/store"
	"github.com/use-agent/vidopen/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("vidopen starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"store", cfg.Store.Backend,
		"opener", cfg.Opener.Mode,
	)

	// ── 3. Open the selector store ──────────────────────────────────
	kv, err := store.Open(cfg.Store)
	if err != nil {
		slog.Error("failed to open selector store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	sel := store.NewSelectorStore(kv)
	defer sel.Close()

	// ── 4. Initialise scraper (launches browser) and engines ────────
	sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper, cfg.Engine.HTTPTimeout)
	if err != nil {
		slog.Error("failed to initialise scraper", "error", err)
		os.Exit(1)
	}
	defer sc.Close()
	sc.UseEngines(cfg.Engine)

	// ── 5. Opener, cache, webhook ───────────────────────────────────
	var tabs opener.TabOpener
	if sc.HasBrowser() {
		tabs = sc
	}
	op, err := opener.New(cfg.Opener.Mode, tabs)
	if err != nil {
		slog.Error("failed to configure opener", "error", err)
		os.Exit(1)
	}
	cc := cache.New(cfg.Cache.MaxEntries)
	hooks := webhook.NewSender(cfg.Webhook.URL, cfg.Webhook.Secret)

	// ── 6. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(api.Services{
		Pages:    sc,
		Stats:    sc,
		Selector: sel,
		Opener:   op,
		Cache:    cc,
		Webhook:  hooks,
	}, cfg, startTime)

	// ── 7. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("vidopen stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
