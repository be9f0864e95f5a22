package models

// ResolveRequest is the payload for POST /api/v1/resolve and POST /api/v1/open.
type ResolveRequest struct {
	// URL is the page containing the media element. Required.
	URL string `json:"url" binding:"required,url"`

	// XPath selects the media element. When empty the saved selector is used.
	XPath string `json:"xpath,omitempty"`

	// FetchMode controls how the page document is obtained.
	// "auto" (default): multi-engine dispatcher, HTTP first with browser escalation.
	// "http": plain HTTP only (no JavaScript).
	// "browser": always render in Chromium.
	FetchMode string `json:"fetch_mode,omitempty" binding:"omitempty,oneof=auto browser http"`

	// Timeout is the maximum duration in seconds for loading the page.
	// Default: 30. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`

	// Stealth enables anti-bot-detection evasions in the browser path.
	Stealth bool `json:"stealth,omitempty"`

	// Headers are sent with the page request.
	Headers map[string]string `json:"headers,omitempty"`

	// Background opens the tab without stealing focus (POST /open only).
	// Default: the server's configured opener policy.
	Background *bool `json:"background,omitempty"`

	// MaxAge enables the resolution cache: a cached result younger than
	// MaxAge milliseconds is returned without loading the page again.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Defaults applies default values to unset fields.
func (r *ResolveRequest) Defaults() {
	if r.Timeout == 0 {
		r.Timeout = 30
	}
	if r.FetchMode == "" {
		r.FetchMode = "auto"
	}
}

// LoadRequest describes a page load for the scraper. It is built from a
// ResolveRequest or by the terminal control.
type LoadRequest struct {
	URL       string
	FetchMode string
	Timeout   int
	Stealth   bool
	Headers   map[string]string
}

// LoadRequest extracts the page-loading part of the request.
func (r *ResolveRequest) LoadRequest() *LoadRequest {
	return &LoadRequest{
		URL:       r.URL,
		FetchMode: r.FetchMode,
		Timeout:   r.Timeout,
		Stealth:   r.Stealth,
		Headers:   r.Headers,
	}
}

// SelectorRequest is the payload for PUT /api/v1/selector.
// An empty XPath is equivalent to clearing the selector.
type SelectorRequest struct {
	XPath string `json:"xpath"`
}
