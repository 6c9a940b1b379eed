package models

// ScrapeRequest is the payload for POST /api/v1/scrape.
type ScrapeRequest struct {
	// URL is the target page. Required; only http and https are accepted.
	URL string `json:"url" binding:"required,url"`

	// CSSSelector optionally restricts extraction to the matching subtrees.
	CSSSelector string `json:"css_selector,omitempty"`

	// IncludeMarkdown asks for a Markdown rendering of every section.
	IncludeMarkdown bool `json:"include_markdown,omitempty"`
}

// ScrapeResponse wraps the result as the sole payload field.
type ScrapeResponse struct {
	Result *ScrapeResult `json:"result,omitempty"`

	// Error is only set when the request was rejected before the pipeline ran.
	Error *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status       string       `json:"status"` // "healthy" or "degraded"
	Uptime       string       `json:"uptime"`
	SessionStats SessionStats `json:"session_stats"`
	Version      string       `json:"version"`
}

// SessionStats reports browser session usage.
type SessionStats struct {
	MaxSessions    int `json:"max_sessions"`
	ActiveSessions int `json:"active_sessions"`
}
