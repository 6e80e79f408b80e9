package collect

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"github.com/signalscale/signalscale/internal/config"
	"github.com/signalscale/signalscale/internal/signal"
)

// NewsCollector gathers recent news mentions of a brand from a public
// RSS search feed, optionally extracting readable article text to feed
// the sentiment and trend analyzers.
type NewsCollector struct {
	Client    *http.Client
	UserAgent string
	BaseURL   string

	MaxItems     int
	FetchContent bool
}

// NewNewsCollector creates a news collector with its own timeout.
func NewNewsCollector(cfg *config.Config) *NewsCollector {
	return &NewsCollector{
		Client: &http.Client{
			Timeout: 15 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		UserAgent:    cfg.HTTP.UserAgent,
		BaseURL:      "https://news.google.com/rss/search",
		MaxItems:     cfg.News.MaxItems,
		FetchContent: cfg.News.FetchContent,
	}
}

// Collect fetches news mentions of a brand within the window. It never
// returns an error: failures yield an empty slice.
func (c *NewsCollector) Collect(ctx context.Context, brand string, windowDays int) []signal.Post {
	if strings.TrimSpace(brand) == "" {
		return nil
	}

	params := url.Values{
		"q":    {`"` + brand + `"`},
		"hl":   {"en-US"},
		"gl":   {"US"},
		"ceid": {"US:en"},
	}
	feedURL := c.BaseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", feedURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.Client.Do(req)
	if err != nil {
		log.Printf("News feed fetch failed for %q: %v", brand, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("News feed returned %d for %q", resp.StatusCode, brand)
		return nil
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		log.Printf("News feed parse failed for %q: %v", brand, err)
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -windowDays)
	var posts []signal.Post
	for _, item := range feed.Items {
		if len(posts) >= c.MaxItems {
			break
		}
		if item.Title == "" || item.Link == "" {
			continue
		}
		if item.PublishedParsed != nil && item.PublishedParsed.Before(cutoff) {
			continue
		}

		post := signal.Post{
			Platform:    "news",
			Title:       strings.TrimSpace(item.Title),
			Text:        stripHTML(item.Description),
			URL:         item.Link,
			PublishedAt: item.PublishedParsed,
		}
		if c.FetchContent && post.Text == "" {
			post.Text = c.fetchArticleText(ctx, item.Link)
		}
		posts = append(posts, post)
	}
	return posts
}

// fetchArticleText fetches an article page and extracts readable text.
// Best-effort: any failure returns "".
func (c *NewsCollector) fetchArticleText(ctx context.Context, articleURL string) string {
	req, err := http.NewRequestWithContext(ctx, "GET", articleURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.Client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ""
	}

	parsedURL, _ := url.Parse(articleURL)
	article, err := readability.FromReader(strings.NewReader(string(body)), parsedURL)
	if err != nil {
		return ""
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) > 2000 {
		text = text[:2000]
	}
	if len(text) > 100 {
		return text
	}
	return ""
}

// stripHTML removes markup and decodes common entities from feed
// descriptions.
func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
