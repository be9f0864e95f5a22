// Package engine fetches the HTML document a selector is evaluated against.
// Several engines of increasing weight race through a Dispatcher.
package engine

import (
	"context"
	"net/http"
	"time"
)

// Engine names reported in FetchResult.EngineName.
const (
	NameHTTP       = "http"
	NameRod        = "rod"
	NameRodStealth = "rod-stealth"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http", "rod", "rod-stealth").
	Name() string

	// Fetch retrieves the page document for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Cookies []http.Cookie
	Timeout time.Duration
	Stealth bool
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML       string
	StatusCode int
	// FinalURL is the document URL after redirects; relative attribute
	// values resolve against it.
	FinalURL   string
	EngineName string
}

// withTimeout bounds ctx by the request timeout when one is set.
func withTimeout(ctx context.Context, req *FetchRequest) (context.Context, context.CancelFunc) {
	if req.Timeout > 0 {
		return context.WithTimeout(ctx, req.Timeout)
	}
	return context.WithCancel(ctx)
}
