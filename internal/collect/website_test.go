package collect

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/signalscale/signalscale/internal/config"
	"github.com/signalscale/signalscale/internal/signal"
)

func testWebsiteCollector() *WebsiteCollector {
	c := NewWebsiteCollector(config.Default())
	c.Client.Timeout = 2 * time.Second
	return c
}

func TestCollectSiteProbes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Acme</title>
			<script src="https://cdn.shopify.com/s/files/theme.js"></script>
		</head><body>
			<div>Pay with Shop Pay or Klarna at checkout</div>
			<a href="/pages/size-chart">Size Chart</a>
			<section id="reviews">Customer Reviews</section>
		</body></html>`)
	}))
	defer ts.Close()

	s := testWebsiteCollector().CollectSite(context.Background(), ts.URL)

	if !s.Reachable {
		t.Fatal("expected reachable site")
	}
	if s.StatusCode != 200 {
		t.Errorf("expected 200, got %d", s.StatusCode)
	}
	if s.LatencyMS < 0 {
		t.Errorf("expected non-negative latency, got %d", s.LatencyMS)
	}
	if !s.HasPayment(signal.PayShopPay) || !s.HasPayment(signal.PayKlarna) {
		t.Errorf("expected shop_pay and klarna, got %v", s.Payments)
	}
	if s.HasPayment(signal.PayApplePay) {
		t.Errorf("apple_pay should not be detected, got %v", s.Payments)
	}
	if len(s.PlatformHints) == 0 || s.PlatformHints[0] != signal.PlatformShopify {
		t.Errorf("expected shopify hint, got %v", s.PlatformHints)
	}
	wantCues := map[string]bool{signal.CueSizeChart: false, signal.CueReviews: false}
	for _, cue := range s.PDPCues {
		if _, ok := wantCues[cue]; ok {
			wantCues[cue] = true
		}
	}
	for cue, found := range wantCues {
		if !found {
			t.Errorf("expected cue %s in %v", cue, s.PDPCues)
		}
	}
}

func TestCollectSiteTruncatesMarkup(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Push the probe text beyond the scanned prefix.
		fmt.Fprint(w, strings.Repeat("x", maxMarkupBytes))
		fmt.Fprint(w, "klarna")
	}))
	defer ts.Close()

	s := testWebsiteCollector().CollectSite(context.Background(), ts.URL)
	if s.HasPayment(signal.PayKlarna) {
		t.Error("probe text beyond the markup bound should not be scanned")
	}
}

func TestCollectSiteUnreachableNeverErrors(t *testing.T) {
	c := testWebsiteCollector()
	c.Client.Timeout = 200 * time.Millisecond

	s := c.CollectSite(context.Background(), "http://127.0.0.1:1")
	if s.Reachable {
		t.Error("expected unreachable")
	}
	if s.Error == "" {
		t.Error("expected error field to be populated")
	}
	if s.URL != "http://127.0.0.1:1" {
		t.Errorf("url should be echoed, got %q", s.URL)
	}
}

func TestCollectSiteNon2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer ts.Close()

	s := testWebsiteCollector().CollectSite(context.Background(), ts.URL)
	if s.Reachable {
		t.Error("4xx should not count as reachable")
	}
	if s.StatusCode != http.StatusGone {
		t.Errorf("expected 410, got %d", s.StatusCode)
	}
}
