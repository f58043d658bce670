package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/instagrid/instagrid/models"
	"github.com/ysmood/gson"
)

// mobileUA matches the original widget's mobile emulation; the mobile site
// renders a simpler grid that the cascade handles better than the desktop
// layout.
const mobileUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 14_7_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.2 Mobile/15E148 Safari/604.1"

// browserHeaders mimic a real mobile browser session.
var browserHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
	"Cache-Control":   "no-cache",
	"Pragma":          "no-cache",
}

// withPage runs fn with a prepared page borrowed from the pool.
//
// Lifecycle:
//
//  1. Overall deadline guard for the whole scrape operation
//  2. Acquire page from pool
//  3. DEFER: about:blank + return to pool, on every exit path
//  4. Stealth injection + mobile emulation + headers (before navigation!)
//  5. Hijack mount for resource blocking (before navigation!)
//  6. Context binding so the deadline reaches all Rod operations
//
// Step 3's about:blank uses the ORIGINAL page reference (without request
// context), so cleanup succeeds even if the request context has expired.
func (s *Scraper) withPage(ctx context.Context, fn func(p *rod.Page) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.scraperCfg.OverallTimeout)
	defer cancel()

	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	page, acquireErr := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if acquireErr != nil {
		return models.NewFeedError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			acquireErr,
		)
	}

	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		s.pagePool.Put(page)
	}()

	if s.scraperCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}

	_ = proto.NetworkSetUserAgentOverride{UserAgent: mobileUA}.Call(page)
	_ = proto.EmulationSetDeviceMetricsOverride{
		Width:             375,
		Height:            667,
		DeviceScaleFactor: 2,
		Mobile:            true,
	}.Call(page)
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(browserHeaders),
	}.Call(page)

	router := setupHijack(page, s.scraperCfg.BlockedResourceTypes)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	return fn(page.Context(ctx))
}

// navigate loads a URL with the per-navigation timeout and waits for the
// DOM to settle.
func (s *Scraper) navigate(p *rod.Page, url string) error {
	np := p.Timeout(s.scraperCfg.NavigationTimeout)
	if err := np.Navigate(url); err != nil {
		return categorizeError(err, "navigation to "+url+" failed")
	}
	if stableErr := np.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", stableErr)
	}
	return nil
}

// settle waits for lazy content to render, honoring the page context.
func settle(p *rod.Page, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-p.GetContext().Done():
		return p.GetContext().Err()
	}
}

// scrollToBottom forces infinite-scroll content into the DOM.
func scrollToBottom(p *rod.Page) {
	_, _ = p.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
}

// bodyText returns the rendered visible text of the page, used by the
// private-profile check. Best-effort: an eval failure reads as empty.
func bodyText(p *rod.Page) string {
	res, err := p.Eval(`() => document.body ? document.body.innerText : ""`)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// protoCookies converts captured browser cookies into the library-agnostic
// session representation.
func protoCookies(cookies []*proto.NetworkCookie) []models.Cookie {
	out := make([]models.Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, models.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  float64(c.Expires),
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		})
	}
	return out
}

// cookieParams converts stored session cookies back into the form the
// browser accepts.
func cookieParams(cookies []models.Cookie) []*proto.NetworkCookieParam {
	out := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  proto.TimeSinceEpoch(c.Expires),
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		})
	}
	return out
}

// categorizeError wraps raw errors into typed FeedErrors so the API layer
// can map them to appropriate HTTP status codes.
func categorizeError(err error, msg string) *models.FeedError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewFeedError(models.ErrCodeExtractionExhausted, msg+": deadline exceeded", err)
	case errors.Is(err, context.Canceled):
		return models.NewFeedError(models.ErrCodeExtractionExhausted, "request canceled", err)
	default:
		return models.NewFeedError(models.ErrCodeBrowserCrash, msg, err)
	}
}
