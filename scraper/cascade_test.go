package scraper

import (
	"fmt"
	"strings"
	"testing"

	"github.com/instagrid/instagrid/models"
)

const profileBase = "https://www.instagram.com/natgeo/"

func TestExtractBySelectors_AnchorWithImage(t *testing.T) {
	html := `<html><body>
		<div><a href="/p/AAA/"><img src="https://scontent.cdninstagram.com/a.jpg" alt="sunset"/></a></div>
		<div><a href="/p/BBB/"><img src="https://scontent.cdninstagram.com/b.jpg"/></a></div>
	</body></html>`

	posts := extractBySelectors(html, profileBase)
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].PostURL != "https://www.instagram.com/p/AAA/" {
		t.Errorf("unexpected post URL: %s", posts[0].PostURL)
	}
	if posts[0].ImageURL != "https://scontent.cdninstagram.com/a.jpg" {
		t.Errorf("unexpected image URL: %s", posts[0].ImageURL)
	}
	if posts[0].Caption != "sunset" {
		t.Errorf("alt text should become the caption, got %q", posts[0].Caption)
	}
}

func TestExtractBySelectors_SiblingImage(t *testing.T) {
	html := `<html><body>
		<div>
			<a href="/p/AAA/">view post</a>
			<img src="https://scontent.cdninstagram.com/a.jpg"/>
		</div>
	</body></html>`

	posts := extractBySelectors(html, profileBase)
	if len(posts) != 1 {
		t.Fatalf("expected 1 post via sibling image, got %d", len(posts))
	}
	if posts[0].ImageURL != "https://scontent.cdninstagram.com/a.jpg" {
		t.Errorf("unexpected image URL: %s", posts[0].ImageURL)
	}
}

func TestExtractBySelectors_DropsImagelessEntries(t *testing.T) {
	html := `<html><body>
		<div><a href="/p/AAA/"><img src="https://scontent.cdninstagram.com/a.jpg"/></a></div>
		<div><a href="/p/XXX/">no image anywhere</a></div>
	</body></html>`

	posts := extractBySelectors(html, profileBase)
	if len(posts) != 1 {
		t.Fatalf("imageless entry should be dropped, got %d posts", len(posts))
	}
	if posts[0].PostURL != "https://www.instagram.com/p/AAA/" {
		t.Errorf("unexpected surviving post: %s", posts[0].PostURL)
	}
}

// A layout where the image lives two containers above the anchor defeats the
// structured strategy (descendant/sibling only) but not the generic scan,
// which climbs ancestors.
const ancestorImageFixture = `<html><body>
	<div>
		<img src="https://scontent.cdninstagram.com/deep.jpg"/>
		<div>
			<a href="/p/DEEP/">view</a>
		</div>
	</div>
</body></html>`

func TestRunCascade_FallsThroughToLinkScan(t *testing.T) {
	calls := make([]int, 4)
	defaults := Strategies()
	counted := make([]Strategy, len(defaults))
	for i, st := range defaults {
		i, st := i, st
		counted[i] = Strategy{
			Name: st.Name,
			Extract: func(rawHTML, baseURL string) []models.ScrapedPost {
				calls[i]++
				return st.Extract(rawHTML, baseURL)
			},
		}
	}

	posts := RunCascade(counted, ancestorImageFixture, profileBase)
	if len(posts) != 1 {
		t.Fatalf("expected 1 post from fallback strategy, got %d", len(posts))
	}
	if posts[0].ImageURL != "https://scontent.cdninstagram.com/deep.jpg" {
		t.Errorf("unexpected image URL: %s", posts[0].ImageURL)
	}
	if calls[0] != 1 || calls[1] != 1 {
		t.Errorf("strategies 1 and 2 should each run once, got %v", calls)
	}
	if calls[2] != 0 || calls[3] != 0 {
		t.Errorf("later strategies must not run after a success, got %v", calls)
	}
}

func TestExtractPosts_DeduplicatesByPostURL(t *testing.T) {
	html := `<html><body>
		<div><a href="/p/SAME/"><img src="https://scontent.cdninstagram.com/1.jpg"/></a></div>
		<div><a href="/p/SAME/?igsh=track"><img src="https://scontent.cdninstagram.com/2.jpg"/></a></div>
	</body></html>`

	posts := ExtractPosts(html, profileBase)
	if len(posts) != 1 {
		t.Fatalf("same permalink should dedupe regardless of query, got %d posts", len(posts))
	}
}

func TestExtractPosts_CapsAtTwelve(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, `<div><a href="/p/POST%d/"><img src="https://scontent.cdninstagram.com/%d.jpg"/></a></div>`, i, i)
	}
	b.WriteString("</body></html>")

	posts := ExtractPosts(b.String(), profileBase)
	if len(posts) != maxPosts {
		t.Fatalf("expected cap of %d posts, got %d", maxPosts, len(posts))
	}
}

func TestExtractPosts_StampsScrapeTime(t *testing.T) {
	html := `<div><a href="/p/AAA/"><img src="https://scontent.cdninstagram.com/a.jpg"/></a></div>`
	posts := ExtractPosts(html, profileBase)
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
	if posts[0].Timestamp.IsZero() {
		t.Error("scraped posts must carry the scrape time, got zero")
	}
}

func TestExtractBySourcePatterns_PositionalPairing(t *testing.T) {
	raw := `<script>var data = {
		"first": "https://www.instagram.com/p/ONE/",
		"second": "https://www.instagram.com/p/TWO/",
		"img1": "https://scontent.cdninstagram.com/one.jpg?sig=x",
		"img2": "https://scontent.cdninstagram.com/two.jpg?sig=y"
	};</script>`

	posts := extractBySourcePatterns(raw, profileBase)
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts from source patterns, got %d", len(posts))
	}
	if posts[0].PostURL != "https://www.instagram.com/p/ONE/" {
		t.Errorf("unexpected first post URL: %s", posts[0].PostURL)
	}
	if !strings.Contains(posts[0].ImageURL, "one.jpg") {
		t.Errorf("first post should pair with the first image, got %s", posts[0].ImageURL)
	}
}

func TestExtractByMediaSweep_SyntheticTargets(t *testing.T) {
	html := `<html><body>
		<img src="https://scontent.cdninstagram.com/loose.jpg" alt="loose tile"/>
		<img src="https://static.example.com/logo.png"/>
	</body></html>`

	posts := extractByMediaSweep(html, profileBase)
	if len(posts) != 1 {
		t.Fatalf("only recognized media hosts should survive the sweep, got %d", len(posts))
	}
	if posts[0].PostURL != "#post-0" {
		t.Errorf("anchorless image should get a synthetic target, got %s", posts[0].PostURL)
	}
	if posts[0].Caption != "loose tile" {
		t.Errorf("unexpected caption: %s", posts[0].Caption)
	}
}

func TestResolvePostURL(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{"relative post", "/p/ABC123/", "https://www.instagram.com/p/ABC123/"},
		{"relative reel", "/reel/XYZ/", "https://www.instagram.com/reel/XYZ/"},
		{"absolute with tracking", "https://www.instagram.com/p/ABC/?igsh=track", "https://www.instagram.com/p/ABC/"},
		{"foreign host", "https://evil.example.com/p/ABC/", ""},
		{"lookalike host", "https://evilinstagram.com.example.net/p/ABC/", ""},
		{"profile link, not a post", "/natgeo/", ""},
		{"javascript scheme", "javascript:void(0)", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolvePostURL(tt.href, profileBase)
			if got != tt.want {
				t.Errorf("resolvePostURL(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}

func TestIsPrivateMarker(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"This Account is Private. Follow to see their photos.", true},
		{"this account is private", true},
		{"Follow 123 followers 456 following", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsPrivateMarker(tt.text); got != tt.want {
			t.Errorf("IsPrivateMarker(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
