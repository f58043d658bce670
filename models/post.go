package models

import "time"

// Media types reported by the Graph API.
const (
	MediaTypeImage    = "IMAGE"
	MediaTypeVideo    = "VIDEO"
	MediaTypeCarousel = "CAROUSEL_ALBUM"
)

// Post is a normalized Instagram Business media item fetched through the
// Graph API. MediaURL is guaranteed non-empty: items with neither a
// media_url nor a thumbnail_url are dropped during normalization.
type Post struct {
	ID        string `json:"id"`
	Caption   string `json:"caption"`
	MediaURL  string `json:"media_url"`
	Permalink string `json:"permalink"`
	MediaType string `json:"media_type"`
	Timestamp string `json:"timestamp"`
}

// ScrapedPost is a post recovered from the rendered profile page.
// Captions are unreliable via DOM scraping and default to empty.
// Timestamp is the scrape time, not the true post time, except on the
// JSON fast path where the real time is available.
type ScrapedPost struct {
	ImageURL  string    `json:"imageUrl"`
	PostURL   string    `json:"url"`
	Caption   string    `json:"caption"`
	Timestamp time.Time `json:"timestamp"`
}
