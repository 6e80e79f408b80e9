package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/signalscale/signalscale/internal/signal"
)

// RedditClient queries Reddit's public search JSON endpoint. No API key
// is needed; a descriptive User-Agent avoids aggressive rate limiting.
type RedditClient struct {
	HTTPClient *http.Client
	BaseURL    string
	UserAgent  string
}

type redditResponse struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string  `json:"title"`
				SelfText    string  `json:"selftext"`
				Permalink   string  `json:"permalink"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				CreatedUTC  float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Search runs one brand query against Reddit search and returns posts
// with the platform engagement heuristic applied.
func (c *RedditClient) Search(ctx context.Context, query string, windowDays int) ([]signal.Post, error) {
	params := url.Values{
		"q":     {query},
		"limit": {"25"},
		"sort":  {"relevance"},
		"t":     {redditWindow(windowDays)},
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reddit search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit search returned %d", resp.StatusCode)
	}

	var parsed redditResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding reddit response: %w", err)
	}

	var posts []signal.Post
	for _, child := range parsed.Data.Children {
		d := child.Data
		if d.Title == "" {
			continue
		}
		var published *time.Time
		if d.CreatedUTC > 0 {
			t := time.Unix(int64(d.CreatedUTC), 0).UTC()
			published = &t
		}
		posts = append(posts, signal.Post{
			Platform:    "reddit",
			Title:       d.Title,
			Text:        d.SelfText,
			URL:         "https://www.reddit.com" + d.Permalink,
			Score:       d.Score,
			Comments:    d.NumComments,
			Engagement:  redditEngagement(d.Score, d.NumComments),
			PublishedAt: published,
		})
	}
	return posts, nil
}

// redditEngagement weights upvotes and discussion; comments signal
// stronger interest than passive votes.
func redditEngagement(score, comments int) float64 {
	return float64(score) + 2*float64(comments)
}

// redditWindow maps a day count onto Reddit's coarse time filters.
func redditWindow(days int) string {
	switch {
	case days <= 1:
		return "day"
	case days <= 7:
		return "week"
	case days <= 31:
		return "month"
	default:
		return "year"
	}
}
