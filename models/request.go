package models

// AddAccountRequest is the payload for POST /api/add-instagram-account
// and POST /api/refresh-page-token.
type AddAccountRequest struct {
	PageID string `json:"pageId" binding:"required"`
}

// LoginRequest is the payload for POST /api/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// PublicProfileRequest is the payload for POST /api/public-profile.
type PublicProfileRequest struct {
	Username string `json:"username" binding:"required"`
}

// RefreshRequest is the payload for POST /api/refresh.
type RefreshRequest struct {
	Username  string `json:"username" binding:"required"`
	SessionID string `json:"sessionId" binding:"required"`
}
