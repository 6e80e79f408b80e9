package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/signalscale/signalscale/internal/signal"
)

// YouTubeClient searches YouTube for brand mentions. With an API key it
// uses the Data API; without one it degrades to scraping the results
// page markup.
type YouTubeClient struct {
	HTTPClient *http.Client
	APIKey     string
	UserAgent  string

	APIBaseURL    string // Data API root
	ScrapeBaseURL string // results page root
}

// IsConfigured reports whether the authenticated API path is available.
func (c *YouTubeClient) IsConfigured() bool {
	return c.APIKey != ""
}

// Search runs one brand query against YouTube and returns posts with the
// platform engagement heuristic applied.
func (c *YouTubeClient) Search(ctx context.Context, query string) ([]signal.Post, error) {
	if c.IsConfigured() {
		return c.searchAPI(ctx, query)
	}
	return c.searchScrape(ctx, query)
}

func (c *YouTubeClient) searchAPI(ctx context.Context, query string) ([]signal.Post, error) {
	params := url.Values{
		"part":       {"snippet"},
		"q":          {query},
		"type":       {"video"},
		"maxResults": {"25"},
		"key":        {c.APIKey},
	}
	req, err := http.NewRequestWithContext(ctx, "GET", c.APIBaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube search returned %d", resp.StatusCode)
	}

	var search struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title       string `json:"title"`
				Description string `json:"description"`
				PublishedAt string `json:"publishedAt"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, fmt.Errorf("decoding youtube search: %w", err)
	}

	ids := make([]string, 0, len(search.Items))
	for _, item := range search.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	stats, durations := c.videoStats(ctx, ids)

	var posts []signal.Post
	for _, item := range search.Items {
		id := item.ID.VideoID
		if id == "" {
			continue
		}
		st := stats[id]
		var published *time.Time
		if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			published = &t
		}
		posts = append(posts, signal.Post{
			Platform:    "youtube",
			Title:       item.Snippet.Title,
			Text:        item.Snippet.Description,
			URL:         "https://www.youtube.com/watch?v=" + id,
			Views:       st.views,
			Likes:       st.likes,
			Comments:    st.comments,
			Engagement:  youtubeEngagement(st.views, st.likes, durations[id]),
			PublishedAt: published,
		})
	}
	return posts, nil
}

type ytStats struct {
	views, likes, comments int
}

// videoStats fetches statistics for a batch of video ids. Best-effort:
// missing stats leave zero values rather than failing the search.
func (c *YouTubeClient) videoStats(ctx context.Context, ids []string) (map[string]ytStats, map[string]time.Duration) {
	stats := make(map[string]ytStats)
	durations := make(map[string]time.Duration)
	if len(ids) == 0 {
		return stats, durations
	}

	params := url.Values{
		"part": {"statistics,contentDetails"},
		"id":   {strings.Join(ids, ",")},
		"key":  {c.APIKey},
	}
	req, err := http.NewRequestWithContext(ctx, "GET", c.APIBaseURL+"/videos?"+params.Encode(), nil)
	if err != nil {
		return stats, durations
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return stats, durations
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return stats, durations
	}

	var payload struct {
		Items []struct {
			ID         string `json:"id"`
			Statistics struct {
				ViewCount    string `json:"viewCount"`
				LikeCount    string `json:"likeCount"`
				CommentCount string `json:"commentCount"`
			} `json:"statistics"`
			ContentDetails struct {
				Duration string `json:"duration"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return stats, durations
	}

	for _, item := range payload.Items {
		stats[item.ID] = ytStats{
			views:    atoiSafe(item.Statistics.ViewCount),
			likes:    atoiSafe(item.Statistics.LikeCount),
			comments: atoiSafe(item.Statistics.CommentCount),
		}
		durations[item.ID] = parseISODuration(item.ContentDetails.Duration)
	}
	return stats, durations
}

var (
	scrapeVideoRe = regexp.MustCompile(`"videoRenderer":\{"videoId":"([A-Za-z0-9_-]{11})"`)
	scrapeTitleRe = regexp.MustCompile(`"title":\{"runs":\[\{"text":"((?:[^"\\]|\\.)*)"`)
	scrapeViewsRe = regexp.MustCompile(`"viewCountText":\{"simpleText":"([\d,.]+)`)
)

// searchScrape parses video entries out of the results page markup.
// Fragile by nature; any miss simply yields fewer posts.
func (c *YouTubeClient) searchScrape(ctx context.Context, query string) ([]signal.Post, error) {
	params := url.Values{"search_query": {query}}
	req, err := http.NewRequestWithContext(ctx, "GET", c.ScrapeBaseURL+"/results?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube results page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube results page returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, err
	}
	markup := string(body)

	var posts []signal.Post
	for _, m := range scrapeVideoRe.FindAllStringSubmatchIndex(markup, 20) {
		id := markup[m[2]:m[3]]

		// Title and view count live shortly after the video id in the
		// embedded JSON blob.
		tail := markup[m[1]:]
		if len(tail) > 4000 {
			tail = tail[:4000]
		}
		title := ""
		if tm := scrapeTitleRe.FindStringSubmatch(tail); tm != nil {
			title = unescapeJSON(tm[1])
		}
		views := 0
		if vm := scrapeViewsRe.FindStringSubmatch(tail); vm != nil {
			views = atoiSafe(strings.NewReplacer(",", "", ".", "").Replace(vm[1]))
		}
		if title == "" {
			continue
		}
		posts = append(posts, signal.Post{
			Platform:   "youtube",
			Title:      title,
			URL:        "https://www.youtube.com/watch?v=" + id,
			Views:      views,
			Engagement: youtubeEngagement(views, 0, 0),
		})
	}
	return posts, nil
}

// youtubeEngagement weights reach and approval, with a bonus for longer
// videos that indicate dedicated coverage rather than passing mentions.
func youtubeEngagement(views, likes int, length time.Duration) float64 {
	e := float64(views)/100 + float64(likes)/10
	if length > 4*time.Minute {
		e += 25
	}
	return e
}

func atoiSafe(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// parseISODuration parses the ISO-8601 durations the Data API returns
// (e.g. PT4M13S). Unparseable input counts as zero.
func parseISODuration(s string) time.Duration {
	s = strings.TrimPrefix(s, "PT")
	var d time.Duration
	num := ""
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'H':
			d += time.Duration(atoiSafe(num)) * time.Hour
			num = ""
		case r == 'M':
			d += time.Duration(atoiSafe(num)) * time.Minute
			num = ""
		case r == 'S':
			d += time.Duration(atoiSafe(num)) * time.Second
			num = ""
		default:
			num = ""
		}
	}
	return d
}

func unescapeJSON(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}
