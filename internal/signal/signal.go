// Package signal defines the data model shared by collectors, analyzers,
// and the orchestrator: resolved entities, raw collected signals, scored
// observations, and the assembled report.
package signal

import "time"

// Payment method identifiers probed on storefronts.
const (
	PayShopPay  = "shop_pay"
	PayApplePay = "apple_pay"
	PayKlarna   = "klarna"
)

// Commerce platform fingerprints.
const (
	PlatformShopify     = "shopify"
	PlatformBigCommerce = "bigcommerce"
	PlatformGeneric     = "generic_commerce"
)

// Product-detail-page trust cues.
const (
	CueSizeChart = "size_chart"
	CueReviews   = "reviews"
	CueVideo     = "video"
)

// Entity is a brand or competitor resolved to an official domain.
// Immutable once resolved; lives for a single orchestration run.
type Entity struct {
	Name           string  `json:"name"`
	URL            string  `json:"url,omitempty"`
	ResolvedName   string  `json:"resolved_name"`
	OfficialDomain string  `json:"official_domain,omitempty"`
	Confidence     float64 `json:"confidence"`
	Category       string  `json:"category,omitempty"`
}

// SiteSignals holds technical signals probed from an entity's homepage.
type SiteSignals struct {
	URL           string   `json:"url"`
	Reachable     bool     `json:"reachable"`
	StatusCode    int      `json:"status_code,omitempty"`
	LatencyMS     int      `json:"latency_ms"`
	Payments      []string `json:"payment_methods,omitempty"`
	PlatformHints []string `json:"platform_hints,omitempty"`
	PDPCues       []string `json:"pdp_cues,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// HasPayment reports whether the given payment method was detected.
func (s SiteSignals) HasPayment(method string) bool {
	for _, p := range s.Payments {
		if p == method {
			return true
		}
	}
	return false
}

// PriceSample is one sampled product title/price pair.
type PriceSample struct {
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

// EcomSignals holds storefront catalog signals for an entity.
type EcomSignals struct {
	URL          string        `json:"url"`
	HasCatalog   bool          `json:"has_catalog"`
	ProductCount int           `json:"product_count"`
	PriceSamples []PriceSample `json:"price_samples,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// Post is one social or news mention of a brand.
type Post struct {
	Platform    string     `json:"platform"`
	Title       string     `json:"title"`
	Text        string     `json:"text,omitempty"`
	URL         string     `json:"url"`
	Score       int        `json:"score,omitempty"`
	Comments    int        `json:"comments,omitempty"`
	Views       int        `json:"views,omitempty"`
	Likes       int        `json:"likes,omitempty"`
	Engagement  float64    `json:"engagement"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// BundleMeta records provenance for one social collection run.
type BundleMeta struct {
	APIAvailable bool   `json:"api_available"`
	Region       string `json:"region"`
	WindowDays   int    `json:"window_days"`
}

// SocialBundle is the deduplicated, engagement-ranked social posts for
// one entity, capped by the collector.
type SocialBundle struct {
	Posts []Post     `json:"posts"`
	Meta  BundleMeta `json:"meta"`
}

// Bundle is everything collected for one entity in one run.
type Bundle struct {
	Entity Entity       `json:"entity"`
	Site   SiteSignals  `json:"site"`
	Ecom   EcomSignals  `json:"ecom"`
	Social SocialBundle `json:"social"`
	News   []Post       `json:"news,omitempty"`
}

// Signal is one atomic scored observation about the brand, optionally
// relative to a competitor. Score is always within [1,100].
type Signal struct {
	Brand      string  `json:"brand"`
	Competitor string  `json:"competitor,omitempty"`
	Label      string  `json:"label"`
	Note       string  `json:"note"`
	Score      int     `json:"score"`
	Confidence float64 `json:"confidence,omitempty"`
	Source     string  `json:"source"`
}

// SentimentResult is the outcome of a sentiment batch. Method is
// "keyword" for the lexicon path and "llm" for the enriched path; when
// the enriched response cannot be parsed Summary carries the raw text.
type SentimentResult struct {
	Method  string  `json:"method"`
	Count   int     `json:"count"`
	Score   float64 `json:"score"`
	PosHits int     `json:"pos_hits"`
	NegHits int     `json:"neg_hits"`
	Summary string  `json:"summary,omitempty"`
}

// TrendTerm is one extracted trend term with its mention count.
type TrendTerm struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// SentimentBlock pairs brand and competitor sentiment.
type SentimentBlock struct {
	Brand       SentimentResult `json:"brand"`
	Competitors SentimentResult `json:"competitors"`
}

// KPIBlock is the headline metrics derived from one run.
type KPIBlock struct {
	BrandScore         int     `json:"brand_score"`
	TrendMomentum      float64 `json:"trend_momentum"`
	SentimentScore     int     `json:"sentiment_score"`
	CompetitorsTracked int     `json:"competitors_tracked"`
}

// RunSummary carries timing and provenance metadata for audit.
type RunSummary struct {
	Mode        string             `json:"mode"`
	WindowDays  int                `json:"window_days"`
	ElapsedMS   int64              `json:"elapsed_ms"`
	Domains     map[string]string  `json:"resolved_domains"`
	Confidences map[string]float64 `json:"resolver_confidences"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// Report is the final assembled output of one orchestration run.
// Built once, never mutated after construction.
type Report struct {
	Brand        string         `json:"brand"`
	Strengths    []string       `json:"strengths"`
	Gaps         []string       `json:"gaps"`
	Priorities   []string       `json:"priorities"`
	BrandTrends  []TrendTerm    `json:"brand_trends"`
	MarketTrends []TrendTerm    `json:"market_trends"`
	Sentiment    SentimentBlock `json:"sentiment"`
	Signals      []Signal       `json:"signals"`
	KPIs         KPIBlock       `json:"kpis"`
	Summary      RunSummary     `json:"summary"`
}

// ClampScore bounds a signal score to [1,100].
func ClampScore(v int) int {
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}

// ClampRating bounds a rating to [lo,hi].
func ClampRating(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
