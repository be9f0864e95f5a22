package scraper

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/vidopen/config"
	"github.com/use-agent/vidopen/engine"
	"github.com/use-agent/vidopen/models"
)

// Scraper loads the documents selectors are evaluated against. It owns the
// browser lifecycle, the page pool and the fetch engines, and is safe for
// concurrent use.
type Scraper struct {
	browser     *rod.Browser // nil when the browser is disabled
	pagePool    rod.Pool[rod.Page]
	browserCfg  config.BrowserConfig
	scraperCfg  config.ScraperConfig
	httpEngine  *engine.HTTPEngine
	dispatcher  *engine.Dispatcher
	memory      *engine.DomainMemory
	activePages atomic.Int32
	startTime   time.Time
}

// NewScraper creates a Scraper. When browserCfg.Enabled is set it launches
// Chromium and initialises the reusable page pool; otherwise only the HTTP
// engine is available.
func NewScraper(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig, httpTimeout time.Duration) (*Scraper, error) {
	s := &Scraper{
		browserCfg: browserCfg,
		scraperCfg: scraperCfg,
		httpEngine: engine.NewHTTPEngine(browserCfg.DefaultProxy, httpTimeout),
		startTime:  time.Now(),
	}
	if !browserCfg.Enabled {
		slog.Info("browser disabled, documents are fetched over plain HTTP only")
		return s, nil
	}

	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.DefaultProxy != "" {
		l = l.Proxy(browserCfg.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("no-first-run"))
	// Autoplaying players would otherwise fetch media we never read.
	l.Set(flags.Flag("autoplay-policy"), "user-gesture-required")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL, "headless", browserCfg.Headless)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	s.browser = browser
	s.pagePool = rod.NewPagePool(browserCfg.MaxPages)
	slog.Info("page pool created", "maxPages", browserCfg.MaxPages)
	return s, nil
}

// HasBrowser reports whether Chromium is running.
func (s *Scraper) HasBrowser() bool {
	return s.browser != nil
}

// UseEngines installs the multi-engine dispatcher for fetch mode "auto":
// plain HTTP first, then the browser, then the browser with stealth.
// Without a browser only the HTTP engine takes part.
func (s *Scraper) UseEngines(cfg config.EngineConfig) {
	if !cfg.EnableMultiEngine {
		return
	}
	engines := []engine.Engine{s.httpEngine}
	if s.browser != nil {
		engines = append(engines,
			engine.NewRodEngine(s.Render, false),
			engine.NewRodEngine(s.Render, true),
		)
	}
	s.memory = engine.NewDomainMemory(cfg.DomainMemoryTTL)
	s.dispatcher = engine.NewDispatcher(engines, cfg.EscalationDelays, s.memory)
	slog.Info("multi-engine dispatcher enabled",
		"engines", s.dispatcher.Engines(),
		"delays", cfg.EscalationDelays,
	)
}

// Stats returns a snapshot of the pool's current state.
func (s *Scraper) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    s.browserCfg.MaxPages,
		ActivePages: int(s.activePages.Load()),
		Browser:     s.browser != nil,
	}
}

// Close drains the page pool and kills the browser process.
// Call this on graceful shutdown to prevent zombie Chrome processes.
func (s *Scraper) Close() {
	if s.memory != nil {
		s.memory.Stop()
	}
	if s.browser == nil {
		return
	}
	slog.Info("scraper shutting down: draining page pool")
	s.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	slog.Info("scraper shutting down: closing browser")
	if err := s.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	slog.Info("scraper shutdown complete")
}
