package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/instagrid/instagrid/models"
)

// webProfileURL is the mobile web app's own profile JSON endpoint. It serves
// the first page of a public profile's grid without rendering anything, which
// makes it far cheaper than a browser session when it works.
const webProfileURL = "https://i.instagram.com/api/v1/users/web_profile_info/?username="

// igAppID is the web app id the endpoint requires; requests without it get
// an HTML login wall instead of JSON.
const igAppID = "936619743392459"

type webProfileEnvelope struct {
	Data struct {
		User *struct {
			IsPrivate bool `json:"is_private"`
			Timeline  struct {
				Edges []struct {
					Node struct {
						Shortcode       string `json:"shortcode"`
						DisplayURL      string `json:"display_url"`
						TakenAtUnix     int64  `json:"taken_at_timestamp"`
						EdgeMediaToCapt struct {
							Edges []struct {
								Node struct {
									Text string `json:"text"`
								} `json:"node"`
							} `json:"edges"`
						} `json:"edge_media_to_caption"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"edge_owner_to_timeline_media"`
		} `json:"user"`
	} `json:"data"`
}

// fetchProfileJSON pulls a public profile's first grid page from the web
// profile endpoint using the fingerprinted fetch client.
func (s *Scraper) fetchProfileJSON(ctx context.Context, username string) ([]models.ScrapedPost, error) {
	res, err := s.fastpath.Get(ctx, webProfileURL+url.QueryEscape(username), map[string]string{
		"x-ig-app-id": igAppID,
		"Accept":      "application/json",
		"Referer":     profileURLBase + username + "/",
	})
	if err != nil {
		return nil, models.NewUpstreamError("web profile request failed", 0, err)
	}
	if res.StatusCode == 404 {
		return nil, models.NewFeedError(models.ErrCodeAccountNotFound,
			fmt.Sprintf("profile %q not found", username), nil)
	}
	if res.StatusCode >= 400 {
		return nil, models.NewUpstreamError(
			fmt.Sprintf("web profile endpoint returned HTTP %d", res.StatusCode),
			res.StatusCode, nil)
	}

	var envelope webProfileEnvelope
	if err := json.Unmarshal(res.Body, &envelope); err != nil {
		// The endpoint serves HTML when it decides to challenge the client.
		return nil, models.NewUpstreamError("web profile endpoint returned non-JSON", res.StatusCode, err)
	}

	user := envelope.Data.User
	if user == nil {
		return nil, models.NewUpstreamError("web profile response carried no user", res.StatusCode, nil)
	}
	if user.IsPrivate {
		return nil, models.NewFeedError(models.ErrCodeProfilePrivate,
			fmt.Sprintf("profile %q is private; posts cannot be scraped without following", username), nil)
	}

	posts := make([]models.ScrapedPost, 0, len(user.Timeline.Edges))
	for _, edge := range user.Timeline.Edges {
		node := edge.Node
		if node.DisplayURL == "" || node.Shortcode == "" {
			continue
		}
		var caption string
		if len(node.EdgeMediaToCapt.Edges) > 0 {
			caption = node.EdgeMediaToCapt.Edges[0].Node.Text
		}
		posts = append(posts, models.ScrapedPost{
			ImageURL:  node.DisplayURL,
			PostURL:   "https://www.instagram.com/p/" + node.Shortcode + "/",
			Caption:   caption,
			Timestamp: time.Unix(node.TakenAtUnix, 0).UTC(),
		})
		if len(posts) == maxPosts {
			break
		}
	}
	return posts, nil
}
