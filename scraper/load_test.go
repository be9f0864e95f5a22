package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/use-agent/vidopen/config"
	"github.com/use-agent/vidopen/engine"
	"github.com/use-agent/vidopen/models"
	"github.com/use-agent/vidopen/resolver"
)

func newHTTPOnly(t *testing.T) *Scraper {
	t.Helper()
	s, err := NewScraper(
		config.BrowserConfig{Enabled: false},
		config.ScraperConfig{DefaultTimeout: 5 * time.Second, MaxTimeout: 10 * time.Second},
		5*time.Second,
	)
	if err != nil {
		t.Fatalf("NewScraper: %v", err)
	}
	return s
}

func TestLoad_IgnoresBaseElement(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><base href="https://cdn.example.net/x/"></head><body><video data-src="/clip.mp4"></video></body></html>`))
	}))
	defer srv.Close()

	s := newHTTPOnly(t)
	defer s.Close()

	page, err := s.Load(context.Background(), &models.LoadRequest{URL: srv.URL + "/watch", FetchMode: "http"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if page.Doc == nil {
		t.Fatal("nil document")
	}
	if page.URL != srv.URL+"/watch" {
		t.Errorf("URL = %q", page.URL)
	}
	if page.EngineUsed != engine.NameHTTP {
		t.Errorf("EngineUsed = %q", page.EngineUsed)
	}

	res, err := resolver.Resolve("//video", page.Doc, page.URL)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if want := srv.URL + "/clip.mp4"; res.URL != want {
		t.Errorf("URL = %q, want %q", res.URL, want)
	}
}

func TestLoad_BrowserModeWithoutBrowser(t *testing.T) {
	s := newHTTPOnly(t)

	_, err := s.Load(context.Background(), &models.LoadRequest{URL: "https://example.com/", FetchMode: "browser"})
	var typed *models.Error
	if !errors.As(err, &typed) || typed.Code != models.ErrCodeBrowserCrash {
		t.Errorf("err = %v, want BROWSER_CRASH", err)
	}
}

func TestLoad_NavigationFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := newHTTPOnly(t)
	_, err := s.Load(context.Background(), &models.LoadRequest{URL: srv.URL, FetchMode: "auto"})
	var typed *models.Error
	if !errors.As(err, &typed) || typed.Code != models.ErrCodeNavigation {
		t.Errorf("err = %v, want NAVIGATION_FAILED", err)
	}
}

func TestOpenTab_WithoutBrowser(t *testing.T) {
	s := newHTTPOnly(t)
	err := s.OpenTab(context.Background(), "https://example.com/a.mp4", true)
	var typed *models.Error
	if !errors.As(err, &typed) || typed.Code != models.ErrCodeOpenFailed {
		t.Errorf("err = %v, want OPEN_FAILED", err)
	}
}

func TestBlockedSet(t *testing.T) {
	got := blockedSet([]string{"Image", "Media", "Bogus"})
	if len(got) != 2 {
		t.Errorf("len = %d, want 2 (unknown names ignored)", len(got))
	}
}

func TestUseEngines_HTTPOnly(t *testing.T) {
	s := newHTTPOnly(t)
	defer s.Close()

	s.UseEngines(config.EngineConfig{EnableMultiEngine: false})
	if s.dispatcher != nil {
		t.Fatal("dispatcher installed while disabled")
	}

	s.UseEngines(config.EngineConfig{
		EnableMultiEngine: true,
		EscalationDelays:  []time.Duration{0, 2 * time.Second},
		DomainMemoryTTL:   time.Hour,
	})
	if got := s.dispatcher.Engines(); len(got) != 1 || got[0] != engine.NameHTTP {
		t.Errorf("engines = %v, want [http]", got)
	}
}
