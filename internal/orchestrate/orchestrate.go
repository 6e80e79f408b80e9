// Package orchestrate is the single entry point of an analysis run: it
// resolves entities, fans out collection, runs the analyzers, and
// assembles the final report. A run never fails structurally; upstream
// failures degrade to empty fields inside an otherwise complete Report.
package orchestrate

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/signalscale/signalscale/internal/analyze"
	"github.com/signalscale/signalscale/internal/collect"
	"github.com/signalscale/signalscale/internal/config"
	"github.com/signalscale/signalscale/internal/llm"
	"github.com/signalscale/signalscale/internal/resolve"
	"github.com/signalscale/signalscale/internal/signal"
)

const (
	ModeStandard = "standard"
	ModeFast     = "fast"

	defaultWindowDays = 7
	maxCompetitors    = 10
)

// EntityInput names one brand or competitor at the boundary, before
// resolution.
type EntityInput struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Request is the validated input of one analysis run.
type Request struct {
	Brand       EntityInput   `json:"brand"`
	Competitors []EntityInput `json:"competitors"`
	Category    string        `json:"category,omitempty"`
	WindowDays  int           `json:"window_days,omitempty"`
	Mode        string        `json:"mode,omitempty"`
}

// Normalize fills defaults and assigns placeholder names so the run
// never sees an unnamed entity. Competitor input order is preserved.
func (r *Request) Normalize() {
	r.Brand.Name = strings.TrimSpace(r.Brand.Name)
	if r.WindowDays <= 0 {
		r.WindowDays = defaultWindowDays
	}
	if r.Mode != ModeFast {
		r.Mode = ModeStandard
	}
	if len(r.Competitors) > maxCompetitors {
		r.Competitors = r.Competitors[:maxCompetitors]
	}
	for i := range r.Competitors {
		r.Competitors[i].Name = strings.TrimSpace(r.Competitors[i].Name)
		if r.Competitors[i].Name == "" {
			r.Competitors[i].Name = fmt.Sprintf("Competitor%d", i+1)
		}
	}
}

// ParseEntityInput splits a freeform "Name, URL" or "Name|URL" string
// into an input record. Either part may be missing.
func ParseEntityInput(raw string) EntityInput {
	sep := func(r rune) bool { return r == ',' || r == '|' }
	parts := strings.FieldsFunc(raw, sep)

	var in EntityInput
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "://") || strings.HasPrefix(part, "www.") {
			if in.URL == "" {
				in.URL = part
			}
			continue
		}
		if in.Name == "" {
			in.Name = part
		}
	}
	return in
}

// Runner wires the resolver and collectors for repeated analysis runs.
// The completion provider is constructed per run so no model state leaks
// between runs.
type Runner struct {
	cfg      *config.Config
	Resolver *resolve.Resolver
	Site     *collect.WebsiteCollector
	Ecom     *collect.EcomCollector
	Social   *collect.SocialCollector
	News     *collect.NewsCollector
}

// New creates a runner from configuration.
func New(cfg *config.Config) *Runner {
	return &Runner{
		cfg:      cfg,
		Resolver: resolve.New(cfg),
		Site:     collect.NewWebsiteCollector(cfg),
		Ecom:     collect.NewEcomCollector(cfg),
		Social:   collect.NewSocialCollector(cfg),
		News:     collect.NewNewsCollector(cfg),
	}
}

// ResolveBrand exposes entity resolution on its own for diagnostics.
func (r *Runner) ResolveBrand(ctx context.Context, name, hintURL string) signal.Entity {
	return r.Resolver.Resolve(ctx, name, hintURL)
}

// Run executes one full analysis and always returns a structurally
// complete report.
func (r *Runner) Run(ctx context.Context, req Request) *signal.Report {
	start := time.Now()
	req.Normalize()

	var provider llm.Provider
	if req.Mode != ModeFast {
		provider = llm.CreateProvider(r.cfg.LLM)
	}

	entities := r.resolveAll(ctx, req)
	bundles := r.collectAll(ctx, entities, req)

	brandBundle := bundles[0]
	compBundles := bundles[1:]

	report := r.buildReport(ctx, provider, req, brandBundle, compBundles)
	report.Summary = summarize(req, entities, time.Since(start))
	return report
}

// resolveAll resolves the brand (index 0) and all competitors
// concurrently, joined positionally so input order survives.
func (r *Runner) resolveAll(ctx context.Context, req Request) []signal.Entity {
	inputs := make([]EntityInput, 0, 1+len(req.Competitors))
	inputs = append(inputs, req.Brand)
	inputs = append(inputs, req.Competitors...)

	entities := make([]signal.Entity, len(inputs))
	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		go func(i int, in EntityInput) {
			defer wg.Done()
			rctx, cancel := r.Resolver.WithTimeout(ctx)
			defer cancel()
			entities[i] = r.Resolver.Resolve(rctx, in.Name, in.URL)
		}(i, in)
	}
	wg.Wait()

	entities[0].Category = req.Category
	return entities
}

// collectAll runs every entity's collectors concurrently with each
// other. News is gathered for the brand only and skipped in fast mode.
func (r *Runner) collectAll(ctx context.Context, entities []signal.Entity, req Request) []signal.Bundle {
	bundles := make([]signal.Bundle, len(entities))
	var wg sync.WaitGroup
	for i, ent := range entities {
		wg.Add(1)
		go func(i int, ent signal.Entity) {
			defer wg.Done()
			withNews := i == 0 && req.Mode != ModeFast && r.cfg.News.Enabled
			bundles[i] = r.collectBundle(ctx, ent, req.WindowDays, withNews)
		}(i, ent)
	}
	wg.Wait()
	return bundles
}

// collectBundle runs the three collectors for one entity concurrently.
func (r *Runner) collectBundle(ctx context.Context, ent signal.Entity, windowDays int, withNews bool) signal.Bundle {
	bundle := signal.Bundle{Entity: ent}
	siteURL := siteURLFor(ent)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		bundle.Site = r.Site.CollectSite(ctx, siteURL)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		bundle.Ecom = r.Ecom.CollectCatalog(ctx, siteURL)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		bundle.Social = r.Social.Collect(ctx, ent.Name)
	}()
	if withNews {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bundle.News = r.News.Collect(ctx, ent.Name, windowDays)
		}()
	}
	wg.Wait()
	return bundle
}

// buildReport runs all four analyzers and assembles the report body.
func (r *Runner) buildReport(ctx context.Context, provider llm.Provider, req Request, brand signal.Bundle, comps []signal.Bundle) *signal.Report {
	brandPosts := append([]signal.Post{}, brand.Social.Posts...)
	brandPosts = append(brandPosts, brand.News...)

	var compPosts []signal.Post
	var compTexts []string
	for _, comp := range comps {
		compPosts = append(compPosts, comp.Social.Posts...)
		compTexts = append(compTexts, postTexts(comp.Social.Posts)...)
	}
	allPosts := append(append([]signal.Post{}, brandPosts...), compPosts...)

	peer := analyze.NewPeerScorer(req.Category).Score(brand, comps)
	influence := analyze.ScoreInfluence(brand.Entity.Name, brand.Social.Posts, compPosts)
	merged := analyze.DedupeSignals(append(peer.Signals, influence...))

	brandSentiment := analyze.AnalyzeSentimentBatchWith(ctx, provider, postTexts(brandPosts))
	compSentiment := analyze.AnalyzeSentimentBatch(compTexts)

	brandTrends := analyze.ExtractTrends(brandPosts, 0)
	marketTrends := analyze.ExtractTrends(allPosts, 0)

	report := &signal.Report{
		Brand:        brand.Entity.Name,
		Strengths:    emptyIfNil(peer.Strengths),
		Gaps:         emptyIfNil(peer.Gaps),
		Priorities:   emptyIfNil(peer.Priorities),
		BrandTrends:  emptyTrendsIfNil(brandTrends),
		MarketTrends: emptyTrendsIfNil(marketTrends),
		Sentiment: signal.SentimentBlock{
			Brand:       brandSentiment,
			Competitors: compSentiment,
		},
		Signals: merged,
		KPIs:    deriveKPIs(merged, brandSentiment, brandTrends, len(comps)),
	}
	if report.Signals == nil {
		report.Signals = []signal.Signal{}
	}

	log.Printf("Analysis for %q produced %d signals from %d competitors",
		brand.Entity.Name, len(report.Signals), len(comps))
	return report
}

// deriveKPIs rolls run output into headline metrics. The brand score
// starts from a neutral 75 and moves with advantages and gaps, clamped
// to [60,95].
func deriveKPIs(signals []signal.Signal, sentiment signal.SentimentResult, trends []signal.TrendTerm, competitors int) signal.KPIBlock {
	score := 75.0
	for _, s := range signals {
		switch {
		case strings.Contains(s.Label, "advantage"):
			score += 2
		case strings.Contains(s.Label, "gap"):
			score -= 2
		}
	}

	momentum := 0.0
	if len(trends) > 0 {
		momentum = float64(trends[0].Count)
	}

	return signal.KPIBlock{
		BrandScore:         int(signal.ClampRating(score, 60, 95)),
		TrendMomentum:      signal.ClampRating(momentum, 0, 10),
		SentimentScore:     int(signal.ClampRating((sentiment.Score+1)*50, 0, 100)),
		CompetitorsTracked: competitors,
	}
}

func summarize(req Request, entities []signal.Entity, elapsed time.Duration) signal.RunSummary {
	domains := make(map[string]string, len(entities))
	confidences := make(map[string]float64, len(entities))
	for _, ent := range entities {
		if ent.Name == "" {
			continue
		}
		domains[ent.Name] = ent.OfficialDomain
		confidences[ent.Name] = ent.Confidence
	}
	return signal.RunSummary{
		Mode:        req.Mode,
		WindowDays:  req.WindowDays,
		ElapsedMS:   elapsed.Milliseconds(),
		Domains:     domains,
		Confidences: confidences,
		GeneratedAt: time.Now().UTC(),
	}
}

// siteURLFor picks the fetchable homepage URL for an entity. Freeform
// input may name a bare host like "www.rival.com"; the site and catalog
// collectors need a full URL.
func siteURLFor(ent signal.Entity) string {
	raw := ent.URL
	if raw == "" {
		raw = ent.OfficialDomain
	}
	if raw == "" {
		return ""
	}
	return resolve.EnsureScheme(raw)
}

func postTexts(posts []signal.Post) []string {
	texts := make([]string, 0, len(posts))
	for _, p := range posts {
		texts = append(texts, strings.TrimSpace(p.Title+" "+p.Text))
	}
	return texts
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func emptyTrendsIfNil(terms []signal.TrendTerm) []signal.TrendTerm {
	if terms == nil {
		return []signal.TrendTerm{}
	}
	return terms
}
