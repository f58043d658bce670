package scraper

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/instagrid/instagrid/models"
	"golang.org/x/net/html"
)

// maxPosts bounds every strategy's output; the grid widget never shows more.
const maxPosts = 12

var (
	// postPathRe matches post and reel permalink paths.
	postPathRe = regexp.MustCompile(`/(?:p|reel)/[A-Za-z0-9_-]+/?$`)

	// absPostURLRe finds absolute post/reel permalinks in raw page source.
	absPostURLRe = regexp.MustCompile(`https://www\.instagram\.com/(?:p|reel)/[A-Za-z0-9_-]+/?`)

	// imageURLRe finds image URLs in raw page source.
	imageURLRe = regexp.MustCompile(`https://[^"'\s\\]+\.(?:jpg|jpeg|png|webp)[^"'\s\\]*`)
)

// mediaHostFragments identify image sources belonging to the platform's CDNs.
var mediaHostFragments = []string{"cdninstagram", "fbcdn", "instagram"}

// Strategy is one stateless extraction approach over the rendered page HTML.
// Strategies run in a fixed priority order; the first non-empty result wins
// and later strategies are never invoked. This is a fallback chain, not a
// voting system: there is no ground truth to score merged results against.
type Strategy struct {
	Name    string
	Extract func(rawHTML, baseURL string) []models.ScrapedPost
}

// Strategies returns the default cascade in priority order.
func Strategies() []Strategy {
	return []Strategy{
		{Name: "structured-selectors", Extract: extractBySelectors},
		{Name: "generic-link-scan", Extract: extractByLinkScan},
		{Name: "source-patterns", Extract: extractBySourcePatterns},
		{Name: "media-sweep", Extract: extractByMediaSweep},
	}
}

// RunCascade tries each strategy in order and returns the first non-empty
// result. A strategy that yields nothing logs and falls through.
func RunCascade(strategies []Strategy, rawHTML, baseURL string) []models.ScrapedPost {
	for _, st := range strategies {
		posts := st.Extract(rawHTML, baseURL)
		if len(posts) > 0 {
			slog.Debug("extraction strategy succeeded", "strategy", st.Name, "posts", len(posts))
			return posts
		}
		slog.Debug("extraction strategy yielded nothing, falling through", "strategy", st.Name)
	}
	return nil
}

// ExtractPosts runs the default cascade.
func ExtractPosts(rawHTML, baseURL string) []models.ScrapedPost {
	return RunCascade(Strategies(), rawHTML, baseURL)
}

// privateMarkers are the rendered-text phrases that identify a private
// profile. Checked before the cascade runs: scraping a private profile
// cannot succeed and must not consume the retry budget.
var privateMarkers = []string{
	"this account is private",
	"account is private",
}

// IsPrivateMarker reports whether rendered body text flags a private profile.
func IsPrivateMarker(text string) bool {
	t := strings.ToLower(text)
	for _, m := range privateMarkers {
		if strings.Contains(t, m) {
			return true
		}
	}
	return false
}

// selectorPriority is the ordered list of selectors believed to target post
// anchors, most specific layouts last; the markup shifts often enough that
// none of these is authoritative.
var selectorPriority = []string{
	`a[href*="/p/"]`,
	`a[href*="/reel/"]`,
	`div[role="button"] a[href*="/p/"]`,
	`div[role="button"] a[href*="/reel/"]`,
	`article a[href*="/p/"]`,
	`article a[href*="/reel/"]`,
}

// extractBySelectors is strategy 1: walk the prioritized selector list and,
// for the first selector matching at least one element, take each anchor's
// target plus the nearest descendant or sibling image.
func extractBySelectors(rawHTML, baseURL string) []models.ScrapedPost {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	for _, selector := range selectorPriority {
		sel, err := cascadia.Parse(selector)
		if err != nil {
			continue
		}
		matches := cascadia.QueryAll(doc, sel)
		if len(matches) == 0 {
			continue
		}

		posts := make([]models.ScrapedPost, 0, len(matches))
		for _, node := range matches {
			postURL := resolvePostURL(nodeAttr(node, "href"), baseURL)
			if postURL == "" {
				continue
			}
			img := imgWithin(node)
			if img == nil {
				img = siblingImg(node)
			}
			var imageURL, caption string
			if img != nil {
				imageURL = nodeAttr(img, "src")
				caption = nodeAttr(img, "alt")
			}
			posts = append(posts, models.ScrapedPost{
				ImageURL: imageURL,
				PostURL:  postURL,
				Caption:  caption,
			})
		}
		// First matching selector wins, even if all its entries end up
		// dropped for lack of an image.
		return finalize(posts)
	}
	return nil
}

// extractByLinkScan is strategy 2: scan the whole document for any anchor
// with a post/reel target, regardless of containing structure, pairing each
// with the nearest image found in its ancestor containers.
func extractByLinkScan(rawHTML, baseURL string) []models.ScrapedPost {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	var posts []models.ScrapedPost
	doc.Find(`a[href*="/p/"], a[href*="/reel/"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		postURL := resolvePostURL(href, baseURL)
		if postURL == "" {
			return
		}
		posts = append(posts, models.ScrapedPost{
			ImageURL: nearestContainerImg(s),
			PostURL:  postURL,
		})
	})
	return finalize(posts)
}

// nearestContainerImg finds the closest image to an anchor: its own subtree
// first, then up to four ancestor containers.
func nearestContainerImg(s *goquery.Selection) string {
	if src, ok := s.Find("img").First().Attr("src"); ok && src != "" {
		return src
	}
	cur := s
	for i := 0; i < 4; i++ {
		cur = cur.Parent()
		if cur.Length() == 0 {
			return ""
		}
		if src, ok := cur.Find("img").First().Attr("src"); ok && src != "" {
			return src
		}
	}
	return ""
}

// extractBySourcePatterns is strategy 3: regex over the raw HTML source.
// Post URLs and image URLs are collected independently and paired
// positionally: the Nth URL gets the Nth image. The pairing can misalign;
// that loss is accepted.
func extractBySourcePatterns(rawHTML, _ string) []models.ScrapedPost {
	postURLs := uniqueStrings(absPostURLRe.FindAllString(rawHTML, -1))
	imageURLs := uniqueStrings(imageURLRe.FindAllString(rawHTML, -1))

	posts := make([]models.ScrapedPost, 0, len(postURLs))
	for i, u := range postURLs {
		if i >= maxPosts {
			break
		}
		var img string
		if i < len(imageURLs) {
			img = imageURLs[i]
		}
		posts = append(posts, models.ScrapedPost{ImageURL: img, PostURL: u})
	}
	return finalize(posts)
}

// extractByMediaSweep is strategy 4: collect every image served from a
// recognized media host and pair it with its nearest enclosing anchor.
// Images with no anchor keep a synthetic unresolved target; they still have
// display value in the grid.
func extractByMediaSweep(rawHTML, baseURL string) []models.ScrapedPost {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	var posts []models.ScrapedPost
	idx := 0
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if !fromMediaHost(src) {
			return
		}
		postURL := ""
		if a := s.Closest("a"); a.Length() > 0 {
			if href, ok := a.Attr("href"); ok {
				postURL = resolvePostURL(href, baseURL)
			}
		}
		if postURL == "" {
			postURL = fmt.Sprintf("#post-%d", idx)
		}
		alt, _ := s.Attr("alt")
		posts = append(posts, models.ScrapedPost{
			ImageURL: src,
			PostURL:  postURL,
			Caption:  alt,
		})
		idx++
	})
	return finalize(posts)
}

// finalize applies the contract every strategy shares: drop entries without
// an image (no display value), deduplicate by post URL, cap at maxPosts,
// and stamp the scrape time on anything unstamped.
func finalize(posts []models.ScrapedPost) []models.ScrapedPost {
	seen := make(map[string]struct{}, len(posts))
	out := make([]models.ScrapedPost, 0, len(posts))
	now := time.Now().UTC()
	for _, p := range posts {
		if p.ImageURL == "" {
			continue
		}
		if _, dup := seen[p.PostURL]; dup {
			continue
		}
		seen[p.PostURL] = struct{}{}
		if p.Timestamp.IsZero() {
			p.Timestamp = now
		}
		out = append(out, p)
		if len(out) == maxPosts {
			break
		}
	}
	return out
}

// resolvePostURL resolves an anchor href against the profile URL and
// returns the absolute permalink, or "" when the href is not a post link.
// Query and fragment are stripped so the same post dedupes regardless of
// tracking parameters.
func resolvePostURL(href, baseURL string) string {
	if href == "" {
		return ""
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	resolved, err := base.Parse(href)
	if err != nil {
		return ""
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	if !strings.HasSuffix(strings.ToLower(resolved.Host), "instagram.com") {
		return ""
	}
	if !postPathRe.MatchString(resolved.Path) {
		return ""
	}
	resolved.RawQuery = ""
	resolved.Fragment = ""
	return resolved.String()
}

func fromMediaHost(src string) bool {
	for _, frag := range mediaHostFragments {
		if strings.Contains(src, frag) {
			return true
		}
	}
	return false
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// --- x/net/html node helpers for strategy 1 ---

func nodeAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// imgWithin returns the first img element in n's subtree (including n).
func imgWithin(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "img" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if img := imgWithin(c); img != nil {
			return img
		}
	}
	return nil
}

// siblingImg returns the first img found among n's siblings' subtrees.
func siblingImg(n *html.Node) *html.Node {
	if n.Parent == nil {
		return nil
	}
	for sib := n.Parent.FirstChild; sib != nil; sib = sib.NextSibling {
		if sib == n {
			continue
		}
		if img := imgWithin(sib); img != nil {
			return img
		}
	}
	return nil
}
