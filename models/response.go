package models

// ResolveResponse is the response for POST /api/v1/resolve and POST /api/v1/open.
type ResolveResponse struct {
	// Success indicates whether a media URL was resolved.
	Success bool `json:"success"`

	// MediaURL is the absolute media resource URL.
	MediaURL string `json:"media_url,omitempty"`

	// Attribute names the candidate attribute the URL was read from.
	Attribute string `json:"attribute,omitempty"`

	// XPath is the expression that was evaluated.
	XPath string `json:"xpath"`

	// PageURL is the page URL after following redirects.
	PageURL string `json:"page_url,omitempty"`

	// PageTitle is the document title.
	PageTitle string `json:"page_title,omitempty"`

	// EngineUsed indicates which fetch engine produced the document
	// (e.g. "http", "rod", "rod-stealth", "browser").
	EngineUsed string `json:"engine_used,omitempty"`

	// Opened is true when the media URL was handed to the tab opener.
	Opened bool `json:"opened,omitempty"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// SelectorResponse reports the persisted selector and the control state
// derived from it.
type SelectorResponse struct {
	Saved   bool   `json:"saved"`
	XPath   string `json:"xpath,omitempty"`
	Label   string `json:"label"`
	Message string `json:"message,omitempty"`

	// Warning flags a saved xpath that does not compile. It is stored
	// anyway and will fail with ELEMENT_NOT_FOUND when resolved.
	Warning string `json:"warning,omitempty"`

	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// LoadMs is the time spent fetching or rendering the page.
	LoadMs int64 `json:"load_ms"`

	// ResolveMs is the time spent evaluating the XPath and resolving the URL.
	ResolveMs int64 `json:"resolve_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status       string    `json:"status"` // "healthy" or "degraded"
	Uptime       string    `json:"uptime"`
	PoolStats    PoolStats `json:"pool_stats"`
	StoreBackend string    `json:"store_backend"`
	Version      string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int  `json:"max_pages"`
	ActivePages int  `json:"active_pages"`
	Browser     bool `json:"browser"`
}

// ErrorResponse is written by middleware that rejects a request before it
// reaches a handler.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}
