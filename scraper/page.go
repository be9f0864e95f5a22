package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/vidopen/engine"
	"github.com/use-agent/vidopen/models"
	"github.com/ysmood/gson"
)

// Render loads req.URL in a pooled browser tab and returns the live DOM.
// Its signature matches engine.RenderFunc.
//
// Lifecycle:
//
//  1. Acquire page           – borrow a tab from the pool (or create one)
//  2. DEFER: cleanup         – about:blank + return to pool
//  3. Stealth injection      – before navigation, or it has no effect
//  4. Headers and cookies
//  5. Hijack mount           – block images/CSS/fonts/media bytes
//  6. Navigate + wait        – DOM stable, so player markup has been inserted
//  7. Extract                – page.HTML() + location.href
func (s *Scraper) Render(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	if s.browser == nil {
		return nil, models.NewError(models.ErrCodeBrowserCrash, "browser is disabled", nil)
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	// ── 1. Acquire page from pool ─────────────────────────────────────
	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	page, err := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, models.NewError(models.ErrCodeBrowserCrash, "failed to acquire page from pool", err)
	}

	// ── 2. Cleanup uses the page without the request context, so it
	// still runs after the deadline has passed.
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		s.pagePool.Put(page)
	}()

	// ── 3. Stealth injection ──────────────────────────────────────────
	if req.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}

	// ── 4. Headers (with a search Referer) and cookies ────────────────
	extraHeaders := make(map[string]string, len(req.Headers)+1)
	if _, ok := req.Headers["Referer"]; !ok {
		if u, parseErr := url.Parse(req.URL); parseErr == nil {
			extraHeaders["Referer"] = "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
		}
	}
	for k, v := range req.Headers {
		extraHeaders[k] = v
	}
	_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(extraHeaders)}.Call(page)

	for _, c := range req.Cookies {
		domain := c.Domain
		if domain == "" {
			if u, parseErr := url.Parse(req.URL); parseErr == nil {
				domain = u.Host
			}
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		_, _ = proto.NetworkSetCookie{Name: c.Name, Value: c.Value, Domain: domain, Path: path}.Call(page)
	}

	// ── 5. Block resources whose bytes are never inspected ────────────
	if router := setupHijack(page, s.scraperCfg.BlockedResourceTypes); router != nil {
		defer func() { _ = router.Stop() }()
	}

	// ── 6. Navigate and wait for the DOM to settle ────────────────────
	p := page.Context(ctx)
	if err := p.Navigate(req.URL); err != nil {
		return nil, categorizeError(err, "navigation to target URL failed")
	}
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", stableErr)
	}

	// ── 7. Extract ────────────────────────────────────────────────────
	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to extract page HTML")
	}
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	return &engine.FetchResult{
		HTML:       rawHTML,
		StatusCode: navigationStatus(p),
		FinalURL:   finalURL,
		EngineName: "browser",
	}, nil
}

// OpenTab opens mediaURL as a new top-level target in the managed browser.
// A background tab does not take focus.
func (s *Scraper) OpenTab(ctx context.Context, mediaURL string, background bool) error {
	if s.browser == nil {
		return models.NewError(models.ErrCodeOpenFailed, "browser is disabled", nil)
	}
	_, err := proto.TargetCreateTarget{
		URL:        mediaURL,
		Background: background,
	}.Call(s.browser.Context(ctx))
	if err != nil {
		return models.NewError(models.ErrCodeOpenFailed, "failed to open tab", err)
	}
	slog.Debug("tab opened", "url", mediaURL, "background", background)
	return nil
}

// navigationStatus reads the HTTP status of the main document from the
// Navigation Timing API, without CDP network listeners (they conflict with
// the hijack router's Fetch domain). Best-effort: 0 when unavailable.
func navigationStatus(p *rod.Page) int {
	res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch (e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors.
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed errors so the API layer can map
// them to HTTP status codes.
func categorizeError(err error, msg string) *models.Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewError(models.ErrCodeNavigation, msg, err)
	}
}
