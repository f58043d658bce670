package models

// PagesResponse is the response for GET /api/pages.
type PagesResponse struct {
	Pages []PageInfo `json:"pages"`
}

// AccountResponse is the response for POST /api/add-instagram-account and
// POST /api/refresh-page-token.
type AccountResponse struct {
	Message string      `json:"message"`
	Account AccountView `json:"account"`
}

// AccountsResponse is the response for GET /api/instagram-accounts.
type AccountsResponse struct {
	Accounts []AccountView `json:"accounts"`
}

// RemovedResponse is the response for DELETE /api/instagram-accounts/:pageId.
type RemovedResponse struct {
	Message string `json:"message"`
	PageID  string `json:"pageId"`
}

// Paging carries the opaque next-page cursor from the upstream API.
// NextCursor is null when there are no further pages.
type Paging struct {
	NextCursor *string `json:"next_cursor"`
}

// PostsResponse is the response for GET /api/instagram-posts/:instagramId.
type PostsResponse struct {
	Data   []Post `json:"data"`
	Paging Paging `json:"paging"`
}

// ScrapeResponse is the response for the scraping endpoints
// (/api/login, /api/public-profile, /api/refresh).
// Error carries the raw message the UI surfaces; Code is the stable
// machine-readable error code.
type ScrapeResponse struct {
	Success   bool          `json:"success"`
	Posts     []ScrapedPost `json:"posts,omitempty"`
	SessionID string        `json:"sessionId,omitempty"`
	Message   string        `json:"message,omitempty"`
	Error     string        `json:"error,omitempty"`
	Code      string        `json:"code,omitempty"`
}

// ErrorResponse is the structured error for the Graph API path and the
// media proxy. Error is the raw message the UI surfaces.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// HealthResponse is the response for GET /api/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}
