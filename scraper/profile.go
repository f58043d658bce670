package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/instagrid/instagrid/models"
)

const (
	loginURL        = "https://www.instagram.com/accounts/login/"
	profileURLBase  = "https://www.instagram.com/"
	usernameField   = `input[name="username"]`
	passwordField   = `input[name="password"]`
	submitButton    = `button[type="submit"]`
	postLoginSettle = 5 * time.Second
)

// Login signs into the platform with the given credentials, scrapes the
// user's own profile grid, and returns the posts together with the session
// cookies captured after authentication.
func (s *Scraper) Login(ctx context.Context, username, password string) ([]models.ScrapedPost, []models.Cookie, error) {
	var posts []models.ScrapedPost
	var cookies []models.Cookie

	err := s.withPage(ctx, func(p *rod.Page) error {
		if err := s.navigate(p, loginURL); err != nil {
			return err
		}

		if err := submitLoginForm(p, username, password); err != nil {
			return err
		}

		if err := settle(p, postLoginSettle); err != nil {
			return categorizeError(err, "waiting for login to complete")
		}

		// The login form still being present means the credentials were
		// rejected (or a challenge was raised).
		if stillOnLogin, _, _ := p.Has(usernameField); stillOnLogin {
			return models.NewFeedError(models.ErrCodeAuthFailed,
				"login failed; check credentials or resolve a checkpoint challenge", nil)
		}

		if err := s.navigate(p, profileURLBase+username+"/"); err != nil {
			return err
		}

		var err error
		posts, err = s.collectPosts(p, profileURLBase+username+"/")
		if err != nil {
			return err
		}

		raw, cookieErr := p.Cookies(nil)
		if cookieErr != nil {
			slog.Warn("could not capture session cookies", "error", cookieErr)
		} else {
			cookies = protoCookies(raw)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return posts, cookies, nil
}

func submitLoginForm(p *rod.Page, username, password string) error {
	userEl, err := p.Element(usernameField)
	if err != nil {
		return categorizeError(err, "login form not found")
	}
	if err := userEl.Input(username); err != nil {
		return categorizeError(err, "typing username failed")
	}

	passEl, err := p.Element(passwordField)
	if err != nil {
		return categorizeError(err, "password field not found")
	}
	if err := passEl.Input(password); err != nil {
		return categorizeError(err, "typing password failed")
	}

	btn, err := p.Element(submitButton)
	if err != nil {
		return categorizeError(err, "submit button not found")
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return categorizeError(err, "clicking submit failed")
	}
	return nil
}

// PublicProfile scrapes a public profile without authenticating. The JSON
// fast path is tried first; the browser only spins up when the endpoint is
// blocked or returns nothing usable.
func (s *Scraper) PublicProfile(ctx context.Context, username string) ([]models.ScrapedPost, error) {
	if s.fastpath != nil {
		posts, err := s.fetchProfileJSON(ctx, username)
		if err == nil && len(posts) > 0 {
			slog.Info("profile served via JSON fast path", "username", username, "posts", len(posts))
			return posts, nil
		}
		if fe, ok := err.(*models.FeedError); ok && fe.Code == models.ErrCodeProfilePrivate {
			return nil, err
		}
		slog.Debug("JSON fast path unavailable, falling back to browser",
			"username", username, "error", err)
	}

	var posts []models.ScrapedPost
	err := s.withPage(ctx, func(p *rod.Page) error {
		profileURL := profileURLBase + username + "/"
		if err := s.navigate(p, profileURL); err != nil {
			return err
		}

		if IsPrivateMarker(bodyText(p)) {
			return models.NewFeedError(models.ErrCodeProfilePrivate,
				fmt.Sprintf("profile %q is private; posts cannot be scraped without following", username), nil)
		}

		var err error
		posts, err = s.collectPosts(p, profileURL)
		return err
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Refresh re-scrapes a profile using previously captured session cookies
// and returns the fresh posts plus the possibly rotated cookie set.
func (s *Scraper) Refresh(ctx context.Context, username string, cookies []models.Cookie) ([]models.ScrapedPost, []models.Cookie, error) {
	var posts []models.ScrapedPost
	var rotated []models.Cookie

	err := s.withPage(ctx, func(p *rod.Page) error {
		// Cookies must be installed before navigation so the first request
		// is already authenticated.
		if err := p.SetCookies(cookieParams(cookies)); err != nil {
			return categorizeError(err, "restoring session cookies failed")
		}

		profileURL := profileURLBase + username + "/"
		if err := s.navigate(p, profileURL); err != nil {
			return err
		}

		if onLogin, _, _ := p.Has(usernameField); onLogin {
			return models.NewFeedError(models.ErrCodeSessionExpired,
				"stored session no longer valid; log in again", nil)
		}

		var err error
		posts, err = s.collectPosts(p, profileURL)
		if err != nil {
			return err
		}

		raw, cookieErr := p.Cookies(nil)
		if cookieErr != nil {
			slog.Warn("could not capture rotated cookies, keeping previous set", "error", cookieErr)
			rotated = cookies
		} else {
			rotated = protoCookies(raw)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return posts, rotated, nil
}

// collectPosts runs the extraction cascade against the loaded profile page,
// scrolling and re-settling between attempts so lazy-loaded tiles make it
// into the DOM. Exhausting the attempt budget is a typed error, not an
// empty success.
func (s *Scraper) collectPosts(p *rod.Page, profileURL string) ([]models.ScrapedPost, error) {
	attempts := s.scraperCfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := settle(p, s.scraperCfg.SettleTime); err != nil {
			return nil, categorizeError(err, "waiting for page content")
		}

		htmlStr, err := p.HTML()
		if err != nil {
			return nil, categorizeError(err, "reading page HTML failed")
		}

		posts := ExtractPosts(htmlStr, profileURL)
		if len(posts) > 0 {
			slog.Info("posts extracted", "attempt", attempt, "posts", len(posts))
			return posts, nil
		}

		slog.Debug("no posts extracted, scrolling and retrying",
			"attempt", attempt, "maxAttempts", attempts)
		scrollToBottom(p)
	}

	return nil, models.NewFeedError(models.ErrCodeExtractionExhausted,
		fmt.Sprintf("no posts extracted after %d attempts; the page layout may have changed", attempts), nil)
}
