package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/instagrid/instagrid/config"
	"github.com/instagrid/instagrid/models"
	"github.com/instagrid/instagrid/store"
)

// defaultLimit is the page size for media fetches when the client asks for none.
const defaultLimit = 8

// Client talks to the Facebook Graph API on behalf of the configured
// system user and keeps the account store up to date.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userToken  string
	businessID string
	accounts   *store.AccountStore
}

// New creates a Graph client. cfg.BaseURL overrides the live endpoint,
// which is how tests point the client at a fixture server.
func New(cfg config.GraphConfig, accounts *store.AccountStore) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = "https://graph.facebook.com/" + cfg.Version
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
		userToken:  cfg.UserToken,
		businessID: cfg.BusinessID,
		accounts:   accounts,
	}
}

// errorEnvelope is the Graph API's error shape.
type errorEnvelope struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// get issues one GET against the Graph API and decodes the JSON body into
// out. HTTP failures and API error envelopes both surface as UpstreamError
// carrying the upstream message and status; there is no retry.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.NewFeedError(models.ErrCodeInternal, "building Graph API request failed", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.NewUpstreamError("Graph API request failed", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.NewUpstreamError("reading Graph API response failed", resp.StatusCode, err)
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return models.NewUpstreamError(
			fmt.Sprintf("invalid JSON from Graph API (HTTP %d)", resp.StatusCode),
			resp.StatusCode, err,
		)
	}
	if resp.StatusCode >= 400 || envelope.Error != nil {
		msg := fmt.Sprintf("Graph API error (HTTP %d)", resp.StatusCode)
		if envelope.Error != nil && envelope.Error.Message != "" {
			msg = envelope.Error.Message
			if envelope.Error.Code != 0 {
				msg = fmt.Sprintf("%s (code %d)", msg, envelope.Error.Code)
			}
		}
		return models.NewUpstreamError(msg, resp.StatusCode, nil)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return models.NewUpstreamError("unexpected Graph API response shape", resp.StatusCode, err)
	}
	return nil
}

type pageFields struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	AccessToken              string `json:"access_token"`
	InstagramBusinessAccount *struct {
		ID string `json:"id"`
	} `json:"instagram_business_account"`
}

// ResolveAccount looks up a Page's linked Instagram Business account and a
// page-scoped token, and upserts the combined Account into the store.
// Nothing is upserted unless both lookups succeed.
func (c *Client) ResolveAccount(ctx context.Context, pageID string) (models.Account, error) {
	var page pageFields
	q := url.Values{
		"fields":       {"instagram_business_account,name"},
		"access_token": {c.userToken},
	}
	if err := c.get(ctx, "/"+pageID, q, &page); err != nil {
		return models.Account{}, err
	}

	if page.InstagramBusinessAccount == nil || page.InstagramBusinessAccount.ID == "" {
		return models.Account{}, models.NewFeedError(models.ErrCodeNoLinkedAccount,
			"no Instagram Business/Creator account linked to this Page (or missing permissions); "+
				"ensure the account is Business/Creator type and the system user has access", nil)
	}

	pageToken, err := c.fetchPageToken(ctx, pageID)
	if err != nil {
		return models.Account{}, err
	}

	name := page.Name
	if name == "" {
		name = pageID
	}
	now := time.Now().UTC()
	account := models.Account{
		PageID:      pageID,
		PageToken:   pageToken,
		InstagramID: page.InstagramBusinessAccount.ID,
		Name:        name,
		AddedAt:     now,
		UpdatedAt:   now,
	}
	c.accounts.Upsert(account)

	slog.Info("instagram account resolved",
		"pageId", pageID,
		"instagramId", account.InstagramID,
	)
	return account, nil
}

// fetchPageToken asks the Graph API for the page's own access token using
// the system user credential.
func (c *Client) fetchPageToken(ctx context.Context, pageID string) (string, error) {
	var tokenInfo struct {
		AccessToken string `json:"access_token"`
	}
	q := url.Values{
		"fields":       {"access_token"},
		"access_token": {c.userToken},
	}
	if err := c.get(ctx, "/"+pageID, q, &tokenInfo); err != nil {
		return "", err
	}
	if tokenInfo.AccessToken == "" {
		return "", models.NewFeedError(models.ErrCodeTokenUnavailable,
			"could not fetch the Page access token; ensure the system user has "+
				"pages_show_list permission for this Page", nil)
	}
	return tokenInfo.AccessToken, nil
}

// RefreshToken re-fetches only the page access token for an account that
// was already added, overwriting the stored credential.
func (c *Client) RefreshToken(ctx context.Context, pageID string) (models.Account, error) {
	account, ok := c.accounts.Get(pageID)
	if !ok {
		return models.Account{}, models.NewFeedError(models.ErrCodeAccountNotFound,
			"account not found in store", nil)
	}

	pageToken, err := c.fetchPageToken(ctx, pageID)
	if err != nil {
		return models.Account{}, err
	}

	account.PageToken = pageToken
	account.UpdatedAt = time.Now().UTC()
	c.accounts.Upsert(account)
	return account, nil
}

type pageListing struct {
	Data []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		AccessToken string `json:"access_token"`
	} `json:"data"`
}

// ListPages returns the pages visible to the system user (or owned by the
// configured business), each augmented best-effort with its linked
// Instagram account id and page token. Per-page lookup failures are
// logged and skipped so one broken page does not hide the rest.
func (c *Client) ListPages(ctx context.Context) ([]models.PageInfo, error) {
	listPath := "/me/accounts"
	if c.businessID != "" {
		listPath = "/" + c.businessID + "/owned_pages"
	}

	var listing pageListing
	q := url.Values{"access_token": {c.userToken}}
	if err := c.get(ctx, listPath, q, &listing); err != nil {
		return nil, err
	}

	pages := make([]models.PageInfo, 0, len(listing.Data))
	for _, p := range listing.Data {
		info := models.PageInfo{
			ID:              p.ID,
			Name:            p.Name,
			PageAccessToken: p.AccessToken,
		}

		var detail pageFields
		dq := url.Values{
			"fields":       {"instagram_business_account"},
			"access_token": {c.userToken},
		}
		if err := c.get(ctx, "/"+p.ID, dq, &detail); err != nil {
			slog.Warn("page detail lookup failed", "pageId", p.ID, "error", err)
		} else if detail.InstagramBusinessAccount != nil {
			info.InstagramID = detail.InstagramBusinessAccount.ID
		}

		if info.PageAccessToken == "" {
			if token, err := c.fetchPageToken(ctx, p.ID); err == nil {
				info.PageAccessToken = token
			}
		}

		pages = append(pages, info)
	}
	return pages, nil
}

type mediaListing struct {
	Data []struct {
		ID           string `json:"id"`
		Caption      string `json:"caption"`
		MediaURL     string `json:"media_url"`
		ThumbnailURL string `json:"thumbnail_url"`
		Permalink    string `json:"permalink"`
		MediaType    string `json:"media_type"`
		Timestamp    string `json:"timestamp"`
		Children     *struct {
			Data []struct {
				MediaURL     string `json:"media_url"`
				ThumbnailURL string `json:"thumbnail_url"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
	Paging struct {
		Cursors struct {
			After string `json:"after"`
		} `json:"cursors"`
	} `json:"paging"`
}

// FetchPosts fetches one page of media for a resolved Instagram Business
// account using its stored page token. after is the opaque cursor from a
// previous call, passed through unmodified.
func (c *Client) FetchPosts(ctx context.Context, instagramID string, limit int, after string) ([]models.Post, string, error) {
	account, ok := c.accounts.GetByInstagramID(instagramID)
	if !ok {
		return nil, "", models.NewFeedError(models.ErrCodeAccountNotFound,
			"account not found; add it first", nil)
	}

	if limit <= 0 {
		limit = defaultLimit
	}

	q := url.Values{
		"fields":       {"id,caption,media_url,thumbnail_url,permalink,media_type,timestamp,children{media_url,thumbnail_url}"},
		"limit":        {fmt.Sprintf("%d", limit)},
		"access_token": {account.PageToken},
	}
	if after != "" {
		q.Set("after", after)
	}

	var listing mediaListing
	if err := c.get(ctx, "/"+instagramID+"/media", q, &listing); err != nil {
		return nil, "", err
	}

	posts := make([]models.Post, 0, len(listing.Data))
	for _, m := range listing.Data {
		// Prefer media_url; video posts commonly expose only thumbnail_url,
		// and carousels may carry no top-level image at all, in which case
		// the first child's is used. Items with no renderable URL are
		// dropped rather than shipped as broken tiles.
		mediaURL := m.MediaURL
		if mediaURL == "" {
			mediaURL = m.ThumbnailURL
		}
		if mediaURL == "" && m.Children != nil && len(m.Children.Data) > 0 {
			child := m.Children.Data[0]
			mediaURL = child.MediaURL
			if mediaURL == "" {
				mediaURL = child.ThumbnailURL
			}
		}
		if mediaURL == "" {
			slog.Debug("dropping media item with no renderable URL", "id", m.ID)
			continue
		}

		posts = append(posts, models.Post{
			ID:        m.ID,
			Caption:   m.Caption,
			MediaURL:  mediaURL,
			Permalink: m.Permalink,
			MediaType: m.MediaType,
			Timestamp: m.Timestamp,
		})
	}

	return posts, listing.Paging.Cursors.After, nil
}

// DebugPage passes a raw field list through to the Graph API and returns
// the undecoded response. Wired only in non-release mode.
func (c *Client) DebugPage(ctx context.Context, pageID, fields string) (map[string]any, error) {
	if fields == "" {
		fields = "instagram_business_account,name"
	}
	var out map[string]any
	q := url.Values{
		"fields":       {fields},
		"access_token": {c.userToken},
	}
	if err := c.get(ctx, "/"+pageID, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}
