// Package resolve maps free-text brand names to official domains with a
// confidence estimate. Resolution tries an explicit hint URL first, then
// heuristic domain guesses, then a search-engine fallback. It never
// returns an error: every failure degrades to a lower-confidence Entity.
package resolve

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/signalscale/signalscale/internal/config"
	"github.com/signalscale/signalscale/internal/signal"
)

const (
	// Heuristic candidates at or above this confidence are accepted
	// without consulting the search fallback.
	acceptConfidence = 0.7
	// Candidates at or above this confidence are retained as fallback.
	retainConfidence = 0.4
	// Confidence assigned when nothing at all could be verified.
	floorConfidence = 0.2

	maxVerifyBody = 64 * 1024
)

var candidateTLDs = []string{".com", ".co", ".io", ".shop", ".store"}

// Hosts that can never be a brand's official domain.
var rejectedHosts = []string{
	"facebook.", "instagram.", "twitter.", "x.com", "tiktok.", "youtube.",
	"linkedin.", "pinterest.", "reddit.", "wikipedia.",
	"amazon.", "ebay.", "etsy.", "walmart.", "farfetch.", "ssense.",
	"stockx.", "grailed.", "depop.",
}

// Resolver resolves brand names to official domains.
type Resolver struct {
	Client    *http.Client
	UserAgent string
	SearchURL string
}

// New creates a Resolver from configuration.
func New(cfg *config.Config) *Resolver {
	return &Resolver{
		Client: &http.Client{
			Timeout: cfg.ResolveTimeout(),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		UserAgent: cfg.HTTP.UserAgent,
		SearchURL: "https://html.duckduckgo.com/html/",
	}
}

// Resolve determines the most likely official domain for a brand and a
// confidence in [0,1]. Confidence never decreases across the strategies
// tried within one call.
func (r *Resolver) Resolve(ctx context.Context, name, hintURL string) signal.Entity {
	name = strings.TrimSpace(name)
	ent := signal.Entity{
		Name:         name,
		URL:          hintURL,
		ResolvedName: name,
		Confidence:   floorConfidence,
	}
	if name == "" {
		return ent
	}

	token := NormalizeToken(name)

	// An explicit hint is trusted: verify and return whatever we get.
	if hintURL != "" {
		conf, host := r.verify(ctx, EnsureScheme(hintURL), token)
		ent.OfficialDomain = host
		if conf > ent.Confidence {
			ent.Confidence = conf
		}
		return ent
	}

	// Heuristic domain candidates.
	var bestDomain string
	var bestConf float64
	for _, domain := range domainCandidates(name, token) {
		conf, host := r.verify(ctx, "https://"+domain, token)
		if host == "" {
			continue
		}
		if conf >= acceptConfidence {
			ent.OfficialDomain = host
			ent.Confidence = conf
			return ent
		}
		if conf >= retainConfidence && conf > bestConf {
			bestConf = conf
			bestDomain = host
		}
	}
	if bestDomain != "" {
		ent.OfficialDomain = bestDomain
		if bestConf > ent.Confidence {
			ent.Confidence = bestConf
		}
	}

	// Search-engine fallback.
	if host := r.searchOfficial(ctx, name, token); host != "" {
		conf, verified := r.verify(ctx, "https://"+host, token)
		if verified == "" {
			verified = host
		}
		// Verification never lowers a previously found confidence.
		if conf > ent.Confidence {
			ent.OfficialDomain = verified
			ent.Confidence = conf
		} else if ent.OfficialDomain == "" {
			ent.OfficialDomain = verified
		}
	}

	return ent
}

// verify fetches a URL's homepage and scores how likely it is the
// brand's official site. Any failure counts as confidence 0.
func (r *Resolver) verify(ctx context.Context, rawURL, token string) (float64, string) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return 0, ""
	}
	req.Header.Set("User-Agent", r.UserAgent)

	resp, err := r.Client.Do(req)
	if err != nil {
		return 0, ""
	}
	defer resp.Body.Close()

	host := strings.ToLower(resp.Request.URL.Hostname())
	host = strings.TrimPrefix(host, "www.")

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxVerifyBody))
	if err != nil {
		return 0, host
	}

	conf := 0.0
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err == nil {
		title := doc.Find("title").First().Text()
		siteName, _ := doc.Find(`meta[property="og:site_name"]`).Attr("content")
		if token != "" &&
			(strings.Contains(NormalizeToken(title), token) ||
				strings.Contains(NormalizeToken(siteName), token)) {
			conf += 0.6
		}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		conf += 0.2
	}
	if !isRejectedHost(host) {
		conf += 0.1
	}

	return signal.ClampRating(conf, 0, 1), host
}

// searchOfficial runs one search-engine query for the brand's official
// site and returns the most plausible result host, or "".
func (r *Resolver) searchOfficial(ctx context.Context, name, token string) string {
	q := url.Values{"q": {`"` + name + `" official site`}}
	req, err := http.NewRequestWithContext(ctx, "GET", r.SearchURL+"?"+q.Encode(), nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", r.UserAgent)

	resp, err := r.Client.Do(req)
	if err != nil {
		log.Printf("Search fallback failed for %q: %v", name, err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return ""
	}

	var first, preferred string
	doc.Find("a.result__a, a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		host := resultHost(href)
		if host == "" || isRejectedHost(host) {
			return true
		}
		if first == "" {
			first = host
		}
		if token != "" && strings.Contains(strings.ReplaceAll(host, ".", ""), token) {
			preferred = host
			return false
		}
		return true
	})

	if preferred != "" {
		return preferred
	}
	return first
}

// resultHost extracts the destination host from a search result link,
// unwrapping redirect-style hrefs that carry the target in a parameter.
func resultHost(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		if tu, err := url.Parse(target); err == nil {
			u = tu
		}
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" || strings.Contains(host, "duckduckgo") {
		return ""
	}
	if registrable, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		host = registrable
	}
	return host
}

// domainCandidates generates heuristic domains for a brand token across
// common TLDs, plus an "and" variant for names containing "&".
func domainCandidates(name, token string) []string {
	if token == "" {
		return nil
	}
	bases := []string{token}
	if strings.Contains(name, "&") {
		bases = append(bases, NormalizeToken(strings.ReplaceAll(name, "&", " and ")))
	}

	var out []string
	seen := make(map[string]struct{})
	for _, base := range bases {
		for _, tld := range candidateTLDs {
			d := base + tld
			if _, dup := seen[d]; dup {
				continue
			}
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}
	return out
}

// NormalizeToken lowercases a name, strips accents, and drops everything
// that is not a letter or digit.
func NormalizeToken(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isRejectedHost(host string) bool {
	for _, h := range rejectedHosts {
		if strings.Contains(host, h) {
			return true
		}
	}
	return false
}

// EnsureScheme prepends https:// to bare hosts so freeform input like
// "www.acme.com" becomes fetchable.
func EnsureScheme(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}

// WithTimeout derives a context capped at three verification fetches so
// one slow candidate cannot stall a whole run.
func (r *Resolver) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 3*r.Client.Timeout)
}
