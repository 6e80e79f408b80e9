package collect

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/signalscale/signalscale/internal/config"
)

func TestNewsCollect(t *testing.T) {
	recent := time.Now().Add(-24 * time.Hour).Format(time.RFC1123Z)
	stale := time.Now().AddDate(0, 0, -30).Format(time.RFC1123Z)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != `"Acme"` {
			t.Errorf("expected quoted brand query, got %q", got)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0"?>
<rss version="2.0"><channel><title>results</title>
<item><title>Acme opens flagship store</title><link>https://example.com/a</link>
<description>&lt;b&gt;Acme&lt;/b&gt; expands retail</description><pubDate>%s</pubDate></item>
<item><title>Old Acme story</title><link>https://example.com/b</link><pubDate>%s</pubDate></item>
</channel></rss>`, recent, stale)
	}))
	defer ts.Close()

	c := NewNewsCollector(config.Default())
	c.BaseURL = ts.URL
	c.FetchContent = false

	posts := c.Collect(context.Background(), "Acme", 7)
	if len(posts) != 1 {
		t.Fatalf("expected 1 post inside window, got %d", len(posts))
	}
	p := posts[0]
	if p.Platform != "news" {
		t.Errorf("expected news platform, got %q", p.Platform)
	}
	if p.Text != "Acme expands retail" {
		t.Errorf("expected stripped description, got %q", p.Text)
	}
}

func TestNewsCollectFailuresYieldEmpty(t *testing.T) {
	c := NewNewsCollector(config.Default())
	c.BaseURL = "http://127.0.0.1:1"
	c.Client.Timeout = 200 * time.Millisecond

	if posts := c.Collect(context.Background(), "Acme", 7); posts != nil {
		t.Errorf("expected nil on unreachable feed, got %v", posts)
	}
	if posts := c.Collect(context.Background(), "  ", 7); posts != nil {
		t.Errorf("expected nil for empty brand, got %v", posts)
	}
}

func TestStripHTML(t *testing.T) {
	in := `<p>Fit is &quot;great&quot; &amp; clean</p>`
	want := `Fit is "great" & clean`
	if got := stripHTML(in); got != want {
		t.Errorf("stripHTML = %q, want %q", got, want)
	}
}
