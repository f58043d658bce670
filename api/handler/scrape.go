package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/instagrid/instagrid/models"
	"github.com/instagrid/instagrid/store"
)

// ProfileScraper is the scraping surface the handlers need. *scraper.Scraper
// satisfies it; tests substitute a stub so no browser is involved.
type ProfileScraper interface {
	Login(ctx context.Context, username, password string) ([]models.ScrapedPost, []models.Cookie, error)
	PublicProfile(ctx context.Context, username string) ([]models.ScrapedPost, error)
	Refresh(ctx context.Context, username string, cookies []models.Cookie) ([]models.ScrapedPost, []models.Cookie, error)
}

// Login returns a handler for POST /api/login.
//
// On success the captured browser session is stored server-side and only an
// opaque session id goes back to the client; cookies never cross the wire.
func Login(sc ProfileScraper, sessions *store.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondScrapeError(c, models.NewFeedError(models.ErrCodeInvalidInput,
				"username and password are required", err))
			return
		}

		posts, cookies, err := sc.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			respondScrapeError(c, err)
			return
		}

		sessionID := sessions.Put(models.Session{
			Username:   req.Username,
			Cookies:    cookies,
			CapturedAt: time.Now().UTC(),
		})

		c.JSON(http.StatusOK, models.ScrapeResponse{
			Success:   true,
			Posts:     posts,
			SessionID: sessionID,
			Message:   "logged in and scraped profile",
		})
	}
}

// PublicProfile returns a handler for POST /api/public-profile: scrape a
// public profile without credentials.
func PublicProfile(sc ProfileScraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PublicProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondScrapeError(c, models.NewFeedError(models.ErrCodeInvalidInput,
				"username is required", err))
			return
		}

		posts, err := sc.PublicProfile(c.Request.Context(), req.Username)
		if err != nil {
			respondScrapeError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.ScrapeResponse{
			Success: true,
			Posts:   posts,
		})
	}
}

// Refresh returns a handler for POST /api/refresh: re-scrape using a stored
// session. The session id stays stable across refreshes; only the cookie
// set behind it rotates.
func Refresh(sc ProfileScraper, sessions *store.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondScrapeError(c, models.NewFeedError(models.ErrCodeInvalidInput,
				"username and sessionId are required", err))
			return
		}

		sess, ok := sessions.Get(req.SessionID)
		if !ok {
			respondScrapeError(c, models.NewFeedError(models.ErrCodeSessionExpired,
				"unknown or expired session; log in again", nil))
			return
		}

		posts, rotated, err := sc.Refresh(c.Request.Context(), req.Username, sess.Cookies)
		if err != nil {
			if fe := asFeedError(err); fe.Code == models.ErrCodeSessionExpired {
				sessions.Delete(req.SessionID)
			}
			respondScrapeError(c, err)
			return
		}

		sessions.Replace(req.SessionID, models.Session{
			Username:   sess.Username,
			Cookies:    rotated,
			CapturedAt: time.Now().UTC(),
		})

		c.JSON(http.StatusOK, models.ScrapeResponse{
			Success:   true,
			Posts:     posts,
			SessionID: req.SessionID,
			Message:   "session refreshed",
		})
	}
}
