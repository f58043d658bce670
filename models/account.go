package models

import "time"

// Account maps a Facebook Page to its linked Instagram Business account.
// The store keys accounts by PageID; re-adding the same page replaces the
// record in place. PageToken is a bearer credential and must never reach
// the client — View strips it before serialization.
type Account struct {
	PageID      string
	PageToken   string
	InstagramID string
	Name        string
	AddedAt     time.Time
	UpdatedAt   time.Time
}

// AccountView is the client-safe projection of an Account.
type AccountView struct {
	PageID      string    `json:"pageId"`
	InstagramID string    `json:"instagramId"`
	Name        string    `json:"name"`
	AddedAt     time.Time `json:"addedAt"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// View returns the Account without its token.
func (a Account) View() AccountView {
	return AccountView{
		PageID:      a.PageID,
		InstagramID: a.InstagramID,
		Name:        a.Name,
		AddedAt:     a.AddedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// PageInfo describes a Facebook Page visible to the configured system user,
// augmented best-effort with its page token and linked Instagram account id.
type PageInfo struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	PageAccessToken string `json:"page_access_token"`
	InstagramID     string `json:"instagram_id"`
}

// Session holds the browser cookies captured after a successful
// authenticated scrape, so a later refresh can skip the login flow.
// Cookies stay valid only as long as the upstream site honors them;
// the next failed scrape is the only expiry signal.
type Session struct {
	Username   string
	Cookies    []Cookie
	CapturedAt time.Time
}

// Cookie is a browser cookie detached from any automation library type.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  float64
	Secure   bool
	HTTPOnly bool
}
