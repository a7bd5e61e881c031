package models

// ScrapeResponse is the response for POST /api/v1/scrape.
type ScrapeResponse struct {
	// Success indicates whether the pipeline produced a usable record.
	// It is false only for hard failures (invalid input, unsupported
	// source); a degraded record with Source == "error" still returns
	// Success true so the frontend can offer manual completion.
	Success bool `json:"success"`

	// Car is the best-effort record for the calculator and results UI.
	Car *CarData `json:"car,omitempty"`

	// FetchedWith names the fetch strategy that produced the HTML
	// (browser-local, browser-hosted, http-fallback, third-party-proxy).
	FetchedWith string `json:"fetched_with,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching disabled).
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// FetchMs is the time spent obtaining the page HTML.
	FetchMs int64 `json:"fetch_ms"`

	// ExtractMs is the time spent in the extraction layers.
	ExtractMs int64 `json:"extract_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status     string   `json:"status"` // "healthy" or "degraded"
	Uptime     string   `json:"uptime"`
	FetchOrder []string `json:"fetch_order"`
	AIEnabled  bool     `json:"ai_enabled"`
	Version    string   `json:"version"`
}
