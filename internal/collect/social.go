package collect

import (
	"context"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/signalscale/signalscale/internal/config"
	"github.com/signalscale/signalscale/internal/signal"
)

// dedupePrefixLen is how much of a normalized title identifies a post.
const dedupePrefixLen = 60

// Category terms combined with the brand name to qualify searches.
var queryTerms = []string{"apparel", "drop", "review"}

// SocialCollector gathers brand mentions from Reddit and YouTube,
// deduplicates them, ranks by engagement, and caps the result.
type SocialCollector struct {
	Reddit  *RedditClient
	YouTube *YouTubeClient

	Region     string
	WindowDays int
	MaxPosts   int
}

// NewSocialCollector creates a social collector from configuration. The
// YouTube API key is read from the configured environment variable; when
// absent the scrape fallback is used.
func NewSocialCollector(cfg *config.Config) *SocialCollector {
	client := &http.Client{Timeout: cfg.SocialTimeout()}
	return &SocialCollector{
		Reddit: &RedditClient{
			HTTPClient: client,
			BaseURL:    "https://www.reddit.com",
			UserAgent:  cfg.HTTP.UserAgent,
		},
		YouTube: &YouTubeClient{
			HTTPClient:    client,
			APIKey:        os.Getenv(cfg.Social.YouTubeAPIKeyEnv),
			UserAgent:     cfg.HTTP.UserAgent,
			APIBaseURL:    "https://www.googleapis.com/youtube/v3",
			ScrapeBaseURL: "https://www.youtube.com",
		},
		Region:     cfg.Social.Region,
		WindowDays: cfg.Social.WindowDays,
		MaxPosts:   cfg.Social.MaxPosts,
	}
}

// Collect gathers posts for one brand across both sources. It never
// returns an error: failed sources contribute nothing.
func (c *SocialCollector) Collect(ctx context.Context, brand string) signal.SocialBundle {
	bundle := signal.SocialBundle{
		Posts: []signal.Post{},
		Meta: signal.BundleMeta{
			APIAvailable: c.YouTube.IsConfigured(),
			Region:       c.Region,
			WindowDays:   c.WindowDays,
		},
	}
	if strings.TrimSpace(brand) == "" {
		return bundle
	}

	var all []signal.Post
	for _, query := range BuildQueries(brand) {
		posts, err := c.Reddit.Search(ctx, query, c.WindowDays)
		if err != nil {
			log.Printf("Reddit search %q failed: %v", query, err)
		}
		all = append(all, posts...)

		videos, err := c.YouTube.Search(ctx, query)
		if err != nil {
			log.Printf("YouTube search %q failed: %v", query, err)
		}
		all = append(all, videos...)
	}

	bundle.Posts = RankPosts(DedupePosts(all), c.MaxPosts)
	return bundle
}

// BuildQueries produces the brand-qualified search queries.
func BuildQueries(brand string) []string {
	queries := make([]string, 0, len(queryTerms))
	for _, term := range queryTerms {
		queries = append(queries, brand+" "+term)
	}
	return queries
}

// DedupePosts drops posts sharing (platform, normalized title prefix);
// the first occurrence wins.
func DedupePosts(posts []signal.Post) []signal.Post {
	seen := make(map[string]struct{}, len(posts))
	out := posts[:0:0]
	for _, p := range posts {
		key := p.Platform + "|" + titleKey(p.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

// RankPosts sorts posts by engagement descending (stable, so earlier
// discovery breaks ties) and caps the result.
func RankPosts(posts []signal.Post, limit int) []signal.Post {
	ranked := make([]signal.Post, len(posts))
	copy(ranked, posts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Engagement > ranked[j].Engagement
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func titleKey(title string) string {
	t := strings.ToLower(strings.Join(strings.Fields(title), " "))
	if runes := []rune(t); len(runes) > dedupePrefixLen {
		t = string(runes[:dedupePrefixLen])
	}
	return t
}
