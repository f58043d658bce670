package mediaproxy

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/instagrid/instagrid/cache"
	"github.com/instagrid/instagrid/fetcher"
	"github.com/instagrid/instagrid/models"
)

// allowedHostSuffixes whitelist the CDN domains media may be proxied from.
// Everything else is refused before any upstream request is made, so the
// proxy cannot be used as an open relay.
var allowedHostSuffixes = []string{
	"cdninstagram.com",
	"fbcdn.net",
	"akamaihd.net",
	"instagram.com",
}

// upstreamHeaders make the proxy's requests look like a browser loading the
// image from a profile page; CDN edges refuse bare requests.
var upstreamHeaders = map[string]string{
	"Accept":          "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
	"Referer":         "https://www.instagram.com/",
}

// Fetcher fetches an upstream resource. *fetcher.Client satisfies it; tests
// substitute a counting stub.
type Fetcher interface {
	Get(ctx context.Context, targetURL string, extraHeaders map[string]string) (*fetcher.Result, error)
}

// Result is a proxied media item ready to be written to the widget.
type Result struct {
	Body        []byte
	ContentType string
}

// Proxy fetches CDN media on the widget's behalf, caching bodies so repeat
// grid renders do not hammer the upstream.
type Proxy struct {
	cache   *cache.Cache
	fetcher Fetcher
}

// New creates a media proxy backed by the given cache and fetch client.
func New(c *cache.Cache, f Fetcher) *Proxy {
	return &Proxy{cache: c, fetcher: f}
}

// Fetch validates the target URL, then serves the media from cache or
// upstream. The host check runs before any network activity.
func (p *Proxy) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	target, err := url.Parse(rawURL)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return nil, models.NewFeedError(models.ErrCodeInvalidInput,
			"url parameter must be an absolute http(s) URL", err)
	}

	if !hostAllowed(target.Hostname()) {
		return nil, models.NewFeedError(models.ErrCodeForbiddenHost,
			fmt.Sprintf("host %q is not an allowed media CDN", target.Hostname()), nil)
	}

	if entry, ok := p.cache.Get(rawURL); ok {
		slog.Debug("media cache hit", "host", target.Hostname())
		return &Result{Body: entry.Body, ContentType: entry.ContentType}, nil
	}

	res, err := p.fetcher.Get(ctx, rawURL, upstreamHeaders)
	if err != nil {
		return nil, models.NewUpstreamError("fetching media from CDN failed", 0, err)
	}
	if res.StatusCode >= 400 {
		return nil, models.NewUpstreamError(
			fmt.Sprintf("CDN returned HTTP %d", res.StatusCode), res.StatusCode, nil)
	}

	contentType := res.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	p.cache.Set(rawURL, res.Body, contentType)
	return &Result{Body: res.Body, ContentType: contentType}, nil
}

// hostAllowed matches the hostname against the suffix allowlist. A suffix
// matches the apex domain itself or any subdomain of it, never a mere
// substring ("evilinstagram.com" does not pass).
func hostAllowed(hostname string) bool {
	h := strings.ToLower(hostname)
	for _, suffix := range allowedHostSuffixes {
		if h == suffix || strings.HasSuffix(h, "."+suffix) {
			return true
		}
	}
	return false
}
