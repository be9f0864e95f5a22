package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/use-agent/vidopen/config"
	"github.com/use-agent/vidopen/control"
	"github.com/use-agent/vidopen/models"
	"github.com/use-agent/vidopen/opener"
	"github.com/use-agent/vidopen/scraper"
	"github.com/use-agent/vidopen/store"
	"github.com/use-agent/vidopen/tui"
	"github.com/use-agent/vidopen/webhook"
	"golang.org/x/net/html"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	cfg := config.Load()

	pageURL := flag.String("url", os.Getenv("VIDOPEN_PAGE_URL"), "page the control is attached to")
	fetchMode := flag.String("fetch", "auto", "fetch mode: auto, http or browser")
	openMode := flag.String("open", "system", "opener: system, browser or none")
	logPath := flag.String("log", "", "write logs to this file (default: discard)")
	flag.Parse()

	if *pageURL == "" {
		fmt.Fprintln(os.Stderr, "vidopen-tui: -url or VIDOPEN_PAGE_URL is required")
		return 2
	}

	closeLog, err := initLogger(cfg.Log, *logPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vidopen-tui:", err)
		return 1
	}
	defer closeLog()

	if err := run(cfg, *pageURL, *fetchMode, *openMode); err != nil {
		slog.Error("vidopen-tui exited", "error", err)
		fmt.Fprintln(os.Stderr, "vidopen-tui:", err)
		return 1
	}
	return 0
}

func run(cfg *config.Config, pageURL, fetchMode, openMode string) error {
	kv, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("open selector store: %w", err)
	}
	sel := store.NewSelectorStore(kv)
	defer sel.Close()

	// The browser is only needed to render pages or to host opened tabs.
	cfg.Browser.Enabled = cfg.Browser.Enabled && (fetchMode != "http" || openMode == "browser")
	sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper, cfg.Engine.HTTPTimeout)
	if err != nil {
		return fmt.Errorf("start scraper: %w", err)
	}
	defer sc.Close()
	sc.UseEngines(cfg.Engine)

	var tabs opener.TabOpener
	if sc.HasBrowser() {
		tabs = sc
	}
	op, err := opener.New(openMode, tabs)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge := &tui.Bridge{}
	var notifier control.Notifier = bridge
	if hooks := webhook.NewSender(cfg.Webhook.URL, cfg.Webhook.Secret); hooks != nil {
		notifier = control.Notifiers{bridge, webhook.Notifier{Sender: hooks}}
	}

	ctl := control.New(control.Options{
		Store: sel,
		Page: control.PageFunc(func(ctx context.Context) (*html.Node, string, error) {
			page, err := sc.Load(ctx, &models.LoadRequest{URL: pageURL, FetchMode: fetchMode})
			if err != nil {
				return nil, "", err
			}
			return page.Doc, page.URL, nil
		}),
		Opener:     op,
		Prompter:   bridge,
		Notifier:   notifier,
		Background: cfg.Opener.Background,
	})

	p := tea.NewProgram(tui.New(ctx, ctl))
	bridge.Attach(p.Send)

	slog.Info("control attached", "url", pageURL, "fetch", fetchMode, "opener", openMode)
	_, err = p.Run()
	return err
}

// initLogger configures slog like the server does, but never writes to the
// terminal the program draws on.
func initLogger(cfg config.LogConfig, path string) (func(), error) {
	var out io.Writer = io.Discard
	closeFn := func() {}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closeFn = func() { f.Close() }
	}

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
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	slog.SetDefault(slog.New(handler))
	return closeFn, nil
}
