package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/vidopen/cache"
	"github.com/use-agent/vidopen/models"
	"github.com/use-agent/vidopen/opener"
	"github.com/use-agent/vidopen/resolver"
	"github.com/use-agent/vidopen/scraper"
	"github.com/use-agent/vidopen/store"
	"github.com/use-agent/vidopen/webhook"
)

// Loader fetches and parses a page. *scraper.Scraper implements it.
type Loader interface {
	Load(ctx context.Context, req *models.LoadRequest) (*scraper.Page, error)
}

// Resolver bundles what the resolve and open handlers share.
type Resolver struct {
	Loader   Loader
	Selector *store.SelectorStore
	Cache    *cache.Cache    // optional
	Webhook  *webhook.Sender // optional
}

// Resolve returns a handler for POST /api/v1/resolve.
//
// Flow:
//  1. Bind the request, apply defaults, fall back to the saved selector.
//  2. Serve from cache when max_age allows.
//  3. Load the page            (records load_ms)
//  4. Evaluate and resolve     (records resolve_ms)
func Resolve(rv *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := rv.handle(c)
		if err != nil {
			respondError(c, err, resp)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Open returns a handler for POST /api/v1/open. It resolves exactly like
// Resolve and then hands the media URL to op. background is the default
// policy when the request does not set one.
func Open(rv *Resolver, op opener.Opener, background bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		resp, err := rv.handle(c)
		if err != nil {
			respondError(c, err, resp)
			return
		}

		bg := background
		if v, ok := c.Get(backgroundKey); ok {
			bg = v.(bool)
		}
		if err := op.Open(c.Request.Context(), resp.MediaURL, bg); err != nil {
			resp.Timing.TotalMs = time.Since(totalStart).Milliseconds()
			respondError(c, models.NewError(models.ErrCodeOpenFailed, "failed to open media URL", err), resp)
			return
		}
		resp.Opened = true
		resp.Timing.TotalMs = time.Since(totalStart).Milliseconds()
		c.JSON(http.StatusOK, resp)
	}
}

const backgroundKey = "vidopen.background"

// handle runs the shared resolve flow. The returned response is never nil
// so failures can still report timing and the evaluated xpath.
func (rv *Resolver) handle(c *gin.Context) (*models.ResolveResponse, error) {
	totalStart := time.Now()
	resp := &models.ResolveResponse{}

	var req models.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return resp, models.NewError(models.ErrCodeInvalidInput, err.Error(), err)
	}
	req.Defaults()
	if req.Background != nil {
		c.Set(backgroundKey, *req.Background)
	}

	ctx := c.Request.Context()

	xpath := req.XPath
	if xpath == "" {
		saved, ok, err := rv.Selector.Get(ctx)
		if err != nil {
			return resp, storeError(err)
		}
		if !ok {
			return resp, models.NewError(models.ErrCodeInvalidInput,
				"no xpath in request and no saved selector", nil)
		}
		xpath = saved
	}
	resp.XPath = xpath
	resp.PageURL = req.URL

	var cacheKey string
	if rv.Cache != nil && req.MaxAge > 0 {
		cacheKey = cache.Key(req.URL, xpath, req.FetchMode)
		if cached, hit := rv.Cache.Get(cacheKey, req.MaxAge); hit {
			cached.CacheStatus = "hit"
			cached.Timing = models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
			return cached, nil
		}
	}

	loadStart := time.Now()
	page, err := rv.Loader.Load(ctx, req.LoadRequest())
	resp.Timing.LoadMs = time.Since(loadStart).Milliseconds()
	if err != nil {
		resp.Timing.TotalMs = time.Since(totalStart).Milliseconds()
		rv.Webhook.Emit(webhook.EventMediaFailed, failurePayload(req.URL, xpath, err))
		return resp, err
	}
	resp.PageURL = page.URL
	resp.PageTitle = page.Title
	resp.EngineUsed = page.EngineUsed

	resolveStart := time.Now()
	res, err := resolver.Resolve(xpath, page.Doc, page.URL)
	resp.Timing.ResolveMs = time.Since(resolveStart).Milliseconds()
	resp.Timing.TotalMs = time.Since(totalStart).Milliseconds()
	if err != nil {
		rv.Webhook.Emit(webhook.EventMediaFailed, failurePayload(req.URL, xpath, err))
		return resp, err
	}

	resp.Success = true
	resp.MediaURL = res.URL
	resp.Attribute = res.Attribute

	if cacheKey != "" {
		rv.Cache.Set(cacheKey, resp)
		resp.CacheStatus = "miss"
	}
	rv.Webhook.Emit(webhook.EventMediaResolved, *resp)
	return resp, nil
}

func failurePayload(pageURL, xpath string, err error) map[string]interface{} {
	return map[string]interface{}{
		"page_url": pageURL,
		"xpath":    xpath,
		"error":    asError(err).ToDetail(),
	}
}
