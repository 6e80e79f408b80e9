package collect

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/signalscale/signalscale/internal/config"
	"github.com/signalscale/signalscale/internal/signal"
)

// maxMarkupBytes bounds how much homepage markup is scanned.
const maxMarkupBytes = 150_000

// Substring probes against raw homepage markup. Checks are
// case-insensitive; the first matching probe tags the signal.
var (
	paymentProbes = []probe{
		{signal.PayShopPay, []string{"shop pay", "shop-pay", "shoppay"}},
		{signal.PayApplePay, []string{"apple pay", "apple-pay", "applepay"}},
		{signal.PayKlarna, []string{"klarna"}},
	}
	platformProbes = []probe{
		{signal.PlatformShopify, []string{"cdn.shopify", "shopify"}},
		{signal.PlatformBigCommerce, []string{"bigcommerce"}},
		{signal.PlatformGeneric, []string{"add to cart", "add-to-cart", "/cart"}},
	}
	pdpProbes = []probe{
		{signal.CueSizeChart, []string{"size chart", "size guide", "sizing"}},
		{signal.CueReviews, []string{"reviews", "review-widget", "star-rating"}},
		{signal.CueVideo, []string{"youtube.com/embed", "<video", "vimeo.com"}},
	}
)

type probe struct {
	tag     string
	needles []string
}

// WebsiteCollector probes an entity's homepage for technical signals.
type WebsiteCollector struct {
	Client    *http.Client
	UserAgent string
}

// NewWebsiteCollector creates a website collector with its own timeout.
func NewWebsiteCollector(cfg *config.Config) *WebsiteCollector {
	return &WebsiteCollector{
		Client: &http.Client{
			Timeout: cfg.SiteTimeout(),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		UserAgent: cfg.HTTP.UserAgent,
	}
}

// CollectSite fetches a homepage and scans the markup for payment
// methods, platform fingerprints, and PDP trust cues. It never returns
// an error: failures yield an unreachable SiteSignals.
func (c *WebsiteCollector) CollectSite(ctx context.Context, rawURL string) signal.SiteSignals {
	s := signal.SiteSignals{URL: rawURL}
	if rawURL == "" {
		s.Error = "no url"
		return s
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		s.Error = err.Error()
		return s
	}
	req.Header.Set("User-Agent", c.UserAgent)

	start := time.Now()
	resp, err := c.Client.Do(req)
	if err != nil {
		s.LatencyMS = int(time.Since(start).Milliseconds())
		s.Error = err.Error()
		log.Printf("Site fetch failed for %s: %v", rawURL, err)
		return s
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxMarkupBytes))
	s.LatencyMS = int(time.Since(start).Milliseconds())
	s.StatusCode = resp.StatusCode
	s.Reachable = resp.StatusCode >= 200 && resp.StatusCode < 400
	if readErr != nil {
		s.Error = readErr.Error()
		return s
	}

	markup := strings.ToLower(string(body))
	s.Payments = scan(markup, paymentProbes)
	s.PlatformHints = scan(markup, platformProbes)
	s.PDPCues = scan(markup, pdpProbes)

	return s
}

// scan returns the tags of all probes whose needle appears in markup,
// in probe declaration order.
func scan(markup string, probes []probe) []string {
	var tags []string
	for _, p := range probes {
		for _, n := range p.needles {
			if strings.Contains(markup, n) {
				tags = append(tags, p.tag)
				break
			}
		}
	}
	return tags
}
