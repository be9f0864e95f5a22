package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/vidopen/engine"
	"github.com/use-agent/vidopen/models"
	"github.com/use-agent/vidopen/resolver"
	"golang.org/x/net/html"
)

// Page is a loaded document ready for selector evaluation.
type Page struct {
	// Doc is the parsed DOM.
	Doc *html.Node

	// URL is the page URL after redirects. Relative attribute values
	// resolve against it; a <base> element in the document is ignored.
	URL string

	Title      string
	StatusCode int
	EngineUsed string
}

// Load fetches req.URL with the requested fetch mode and parses the result.
//
//	"http":    plain HTTP only, no JavaScript
//	"browser": always render in Chromium
//	"auto":    the dispatcher when configured, else HTTP
func (s *Scraper) Load(ctx context.Context, req *models.LoadRequest) (*Page, error) {
	timeout := time.Duration(req.Timeout) * time.Second
	if timeout <= 0 {
		timeout = s.scraperCfg.DefaultTimeout
	}
	if s.scraperCfg.MaxTimeout > 0 && timeout > s.scraperCfg.MaxTimeout {
		timeout = s.scraperCfg.MaxTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fetchReq := &engine.FetchRequest{
		URL:     req.URL,
		Headers: req.Headers,
		Timeout: timeout,
		Stealth: req.Stealth,
	}

	var (
		result *engine.FetchResult
		err    error
	)
	switch req.FetchMode {
	case "http":
		result, err = s.httpEngine.Fetch(ctx, fetchReq)
	case "browser":
		result, err = s.Render(ctx, fetchReq)
	default:
		if s.dispatcher != nil {
			result, err = s.dispatcher.Dispatch(ctx, fetchReq)
		} else {
			result, err = s.httpEngine.Fetch(ctx, fetchReq)
		}
	}
	if err != nil {
		var typed *models.Error
		if errors.As(err, &typed) {
			return nil, typed
		}
		return nil, categorizeError(err, fmt.Sprintf("failed to load %s", req.URL))
	}

	doc, err := resolver.ParseDocumentString(result.HTML)
	if err != nil {
		return nil, models.NewError(models.ErrCodeNavigation, "failed to parse page HTML", err)
	}

	finalURL := result.FinalURL
	if finalURL == "" {
		finalURL = req.URL
	}
	page := &Page{
		Doc:        doc,
		URL:        finalURL,
		Title:      resolver.DocumentTitle(doc),
		StatusCode: result.StatusCode,
		EngineUsed: result.EngineName,
	}
	slog.Debug("page loaded", "url", page.URL, "engine", page.EngineUsed)
	return page, nil
}
