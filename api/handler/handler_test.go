package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/vidopen/cache"
	"github.com/use-agent/vidopen/control"
	"github.com/use-agent/vidopen/models"
	"github.com/use-agent/vidopen/opener"
	"github.com/use-agent/vidopen/resolver"
	"github.com/use-agent/vidopen/scraper"
	"github.com/use-agent/vidopen/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeLoader struct {
	html  string
	err   error
	calls int
}

func (f *fakeLoader) Load(_ context.Context, req *models.LoadRequest) (*scraper.Page, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	doc, err := resolver.ParseDocumentString(f.html)
	if err != nil {
		return nil, err
	}
	return &scraper.Page{
		Doc:        doc,
		URL:        req.URL,
		StatusCode: http.StatusOK,
		EngineUsed: "http",
	}, nil
}

type fakeStats struct{ stats models.PoolStats }

func (f fakeStats) Stats() models.PoolStats { return f.stats }

type testServer struct {
	engine *gin.Engine
	loader *fakeLoader
	sel    *store.SelectorStore
	opened []string
	bg     []bool
}

func newTestServer(t *testing.T, page string) *testServer {
	t.Helper()
	ts := &testServer{
		loader: &fakeLoader{html: page},
		sel:    store.NewSelectorStore(store.NewMemory()),
	}
	rv := &Resolver{Loader: ts.loader, Selector: ts.sel, Cache: cache.New(10)}
	op := opener.Func(func(_ context.Context, url string, bg bool) error {
		if url == "https://example.com/blocked.mp4" {
			return errors.New("popup blocked")
		}
		ts.opened = append(ts.opened, url)
		ts.bg = append(ts.bg, bg)
		return nil
	})

	r := gin.New()
	r.GET("/health", Health(fakeStats{models.PoolStats{MaxPages: 5, ActivePages: 5, Browser: true}}, "memory", time.Now()))
	r.GET("/selector", GetSelector(ts.sel))
	r.PUT("/selector", PutSelector(ts.sel, nil))
	r.DELETE("/selector", DeleteSelector(ts.sel, nil))
	r.POST("/resolve", Resolve(rv))
	r.POST("/open", Open(rv, op, true))
	ts.engine = r
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

const page = `<html><head><base href="https://cdn.example.com/media/"></head>
<body><video data-src="clip.mp4"></video><a id="dl" href="/blocked.mp4">x</a></body></html>`

func TestResolve_Success(t *testing.T) {
	ts := newTestServer(t, page)
	w := ts.do(t, http.MethodPost, "/resolve", map[string]string{
		"url": "https://example.com/watch", "xpath": "//video",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.ResolveResponse](t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "https://example.com/clip.mp4", resp.MediaURL, "<base href> is ignored")
	assert.Equal(t, "data-src", resp.Attribute)
	assert.Equal(t, "https://example.com/watch", resp.PageURL)
	assert.Equal(t, "http", resp.EngineUsed)
	assert.False(t, resp.Opened)
	assert.Empty(t, ts.opened)
}

func TestResolve_FallsBackToSavedSelector(t *testing.T) {
	ts := newTestServer(t, page)
	require.NoError(t, ts.sel.Set(context.Background(), "//video"))

	w := ts.do(t, http.MethodPost, "/resolve", map[string]string{"url": "https://example.com/watch"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "//video", decode[models.ResolveResponse](t, w).XPath)
}

func TestResolve_NoSelector(t *testing.T) {
	ts := newTestServer(t, page)
	w := ts.do(t, http.MethodPost, "/resolve", map[string]string{"url": "https://example.com/watch"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.ErrCodeInvalidInput, decode[models.ResolveResponse](t, w).Error.Code)
	assert.Zero(t, ts.loader.calls)
}

func TestResolve_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		xpath string
		code  string
		want  int
	}{
		{"not found", page, "//audio", models.ErrCodeElementNotFound, http.StatusNotFound},
		{"invalid xpath", page, "//video[", models.ErrCodeElementNotFound, http.StatusNotFound},
		{"no attribute", `<p id="x">hi</p>`, "//p", models.ErrCodeNoURLAttribute, http.StatusUnprocessableEntity},
		{"bad url", `<video src="http://[::1"></video>`, "//video", models.ErrCodeURLResolution, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.html)
			w := ts.do(t, http.MethodPost, "/resolve", map[string]string{
				"url": "https://example.com/watch", "xpath": tt.xpath,
			})
			assert.Equal(t, tt.want, w.Code)
			resp := decode[models.ResolveResponse](t, w)
			require.NotNil(t, resp.Error)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, models.RetryHint, resp.Error.Hint)
			assert.Equal(t, tt.xpath, resp.XPath)
		})
	}
}

func TestResolve_LoadErrors(t *testing.T) {
	ts := newTestServer(t, page)
	ts.loader.err = models.NewError(models.ErrCodeTimeout, "page load timed out", context.DeadlineExceeded)
	w := ts.do(t, http.MethodPost, "/resolve", map[string]string{
		"url": "https://example.com/watch", "xpath": "//video",
	})
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Empty(t, decode[models.ResolveResponse](t, w).Error.Hint)

	ts.loader.err = errors.New("boom")
	w = ts.do(t, http.MethodPost, "/resolve", map[string]string{
		"url": "https://example.com/watch", "xpath": "//video",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestResolve_InvalidBody(t *testing.T) {
	ts := newTestServer(t, page)
	w := ts.do(t, http.MethodPost, "/resolve", map[string]string{"url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolve_Cache(t *testing.T) {
	ts := newTestServer(t, page)
	body := map[string]interface{}{"url": "https://example.com/watch", "xpath": "//video", "max_age": 60000}

	first := decode[models.ResolveResponse](t, ts.do(t, http.MethodPost, "/resolve", body))
	second := decode[models.ResolveResponse](t, ts.do(t, http.MethodPost, "/resolve", body))

	assert.Equal(t, "miss", first.CacheStatus)
	assert.Equal(t, "hit", second.CacheStatus)
	assert.Equal(t, first.MediaURL, second.MediaURL)
	assert.Equal(t, 1, ts.loader.calls)
}

func TestResolve_CacheSeparatesFetchModes(t *testing.T) {
	ts := newTestServer(t, page)
	body := map[string]interface{}{"url": "https://example.com/watch", "xpath": "//video", "max_age": 60000, "fetch_mode": "http"}

	first := decode[models.ResolveResponse](t, ts.do(t, http.MethodPost, "/resolve", body))
	body["fetch_mode"] = "browser"
	second := decode[models.ResolveResponse](t, ts.do(t, http.MethodPost, "/resolve", body))
	third := decode[models.ResolveResponse](t, ts.do(t, http.MethodPost, "/resolve", body))

	assert.Equal(t, "miss", first.CacheStatus)
	assert.Equal(t, "miss", second.CacheStatus, "http result must not answer a browser request")
	assert.Equal(t, "hit", third.CacheStatus)
	assert.Equal(t, 2, ts.loader.calls)
}

func TestOpen(t *testing.T) {
	ts := newTestServer(t, page)
	w := ts.do(t, http.MethodPost, "/open", map[string]interface{}{
		"url": "https://example.com/watch", "xpath": "//video", "background": false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[models.ResolveResponse](t, w).Opened)
	assert.Equal(t, []string{"https://example.com/clip.mp4"}, ts.opened)
	assert.Equal(t, []bool{false}, ts.bg)

	ts.do(t, http.MethodPost, "/open", map[string]string{"url": "https://example.com/watch", "xpath": "//video"})
	assert.Equal(t, []bool{false, true}, ts.bg, "server policy applies when the request is silent")
}

func TestOpen_Failures(t *testing.T) {
	ts := newTestServer(t, page)

	w := ts.do(t, http.MethodPost, "/open", map[string]string{"url": "https://example.com/watch", "xpath": "//audio"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, ts.opened, "nothing opens when resolution fails")

	w = ts.do(t, http.MethodPost, "/open", map[string]string{"url": "https://example.com/watch", "xpath": "//a[@id='dl']"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, models.ErrCodeOpenFailed, decode[models.ResolveResponse](t, w).Error.Code)
}

func TestSelectorLifecycle(t *testing.T) {
	ts := newTestServer(t, page)

	got := decode[models.SelectorResponse](t, ts.do(t, http.MethodGet, "/selector", nil))
	assert.False(t, got.Saved)
	assert.Equal(t, control.LabelUnset, got.Label)

	w := ts.do(t, http.MethodPut, "/selector", models.SelectorRequest{XPath: "//video"})
	require.Equal(t, http.StatusOK, w.Code)
	got = decode[models.SelectorResponse](t, ts.do(t, http.MethodGet, "/selector", nil))
	assert.True(t, got.Saved)
	assert.Equal(t, "//video", got.XPath)
	assert.Equal(t, control.LabelSaved, got.Label)

	got = decode[models.SelectorResponse](t, ts.do(t, http.MethodDelete, "/selector", nil))
	assert.False(t, got.Saved)
	assert.Equal(t, control.ClearedNotif, got.Message)

	ts.do(t, http.MethodPut, "/selector", models.SelectorRequest{XPath: "//video"})
	got = decode[models.SelectorResponse](t, ts.do(t, http.MethodPut, "/selector", models.SelectorRequest{XPath: ""}))
	assert.False(t, got.Saved, "empty xpath unsets")
}

func TestPutSelector_InvalidXPathStoredWithWarning(t *testing.T) {
	ts := newTestServer(t, page)

	got := decode[models.SelectorResponse](t, ts.do(t, http.MethodPut, "/selector", models.SelectorRequest{XPath: "//video["}))
	assert.True(t, got.Saved)
	assert.Equal(t, "//video[", got.XPath)
	assert.NotEmpty(t, got.Warning)

	got = decode[models.SelectorResponse](t, ts.do(t, http.MethodPut, "/selector", models.SelectorRequest{XPath: "//video"}))
	assert.Empty(t, got.Warning)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, page)
	resp := decode[models.HealthResponse](t, ts.do(t, http.MethodGet, "/health", nil))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "memory", resp.StoreBackend)
	assert.Equal(t, Version, resp.Version)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusTooManyRequests, statusFor(models.NewError(models.ErrCodeRateLimited, "", nil)))
	assert.Equal(t, http.StatusUnauthorized, statusFor(models.NewError(models.ErrCodeUnauthorized, "", nil)))
	assert.Equal(t, http.StatusBadGateway, statusFor(models.NewError(models.ErrCodeNavigation, "", nil)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(models.NewError(models.ErrCodeStore, "", nil)))
}
