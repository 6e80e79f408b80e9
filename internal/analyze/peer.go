package analyze

import (
	"fmt"
	"math"
	"strings"

	"github.com/signalscale/signalscale/internal/signal"
)

// latencyGapMS is the minimum homepage latency deficit, in milliseconds,
// before a performance gap is reported.
const latencyGapMS = 200

const maxFindings = 5

// Category-sensitive emphasis. Keys match against the lowercased category
// and the signal label.
var categoryWeights = map[string]map[string]float64{
	"athletic":   {"Performance": 1.2, "Checkout": 1.1},
	"luxury":     {"Checkout": 1.2},
	"streetwear": {"Catalog": 1.1},
}

// PeerResult carries the pairwise deltas between the brand and each
// competitor plus the narrative rollups derived from them.
type PeerResult struct {
	Signals    []signal.Signal
	Strengths  []string
	Gaps       []string
	Priorities []string
}

// PeerScorer compares a brand bundle against competitor bundles.
type PeerScorer struct {
	Category string
}

func NewPeerScorer(category string) *PeerScorer {
	return &PeerScorer{Category: category}
}

// Score emits one signal per observed delta. Unreachable sites simply
// produce fewer signals, never errors.
func (p *PeerScorer) Score(brand signal.Bundle, competitors []signal.Bundle) PeerResult {
	var res PeerResult
	brandName := brand.Entity.Name

	for _, comp := range competitors {
		compName := comp.Entity.Name
		if compName == "" {
			continue
		}

		if brand.Site.Reachable && comp.Site.Reachable &&
			brand.Site.LatencyMS-comp.Site.LatencyMS >= latencyGapMS {
			res.add(signal.Signal{
				Brand:      brandName,
				Competitor: compName,
				Label:      "Performance gap",
				Note: fmt.Sprintf("%s homepage answers in %dms vs your %dms",
					compName, comp.Site.LatencyMS, brand.Site.LatencyMS),
				Score:      p.weighted(70, "Performance"),
				Confidence: 0.8,
				Source:     "site",
			})
			res.Gaps = appendFinding(res.Gaps, fmt.Sprintf("Homepage speed trails %s", compName))
			res.Priorities = appendFinding(res.Priorities, fmt.Sprintf("Close the homepage speed gap vs %s", compName))
		}

		if missing := paymentDelta(comp.Site, brand.Site); len(missing) > 0 {
			res.add(signal.Signal{
				Brand:      brandName,
				Competitor: compName,
				Label:      "Checkout trust gap",
				Note: fmt.Sprintf("%s offers %s at checkout and you do not",
					compName, strings.Join(missing, ", ")),
				Score:      p.weighted(65, "Checkout"),
				Confidence: 0.7,
				Source:     "site",
			})
			res.Gaps = appendFinding(res.Gaps, fmt.Sprintf("Accelerated checkout lags %s", compName))
		}
		if extra := paymentDelta(brand.Site, comp.Site); len(extra) > 0 {
			res.add(signal.Signal{
				Brand:      brandName,
				Competitor: compName,
				Label:      "Checkout trust advantage",
				Note: fmt.Sprintf("You offer %s at checkout and %s does not",
					strings.Join(extra, ", "), compName),
				Score:      p.weighted(60, "Checkout"),
				Confidence: 0.7,
				Source:     "site",
			})
			res.Strengths = appendFinding(res.Strengths, fmt.Sprintf("Stronger checkout trust than %s", compName))
		}

		if comp.Ecom.HasCatalog && !brand.Ecom.HasCatalog {
			res.add(signal.Signal{
				Brand:      brandName,
				Competitor: compName,
				Label:      "Catalog transparency gap",
				Note: fmt.Sprintf("%s exposes a browsable product catalog (%d products sampled) and you do not",
					compName, comp.Ecom.ProductCount),
				Score:      p.weighted(55, "Catalog"),
				Confidence: 0.9,
				Source:     "ecom",
			})
			res.Gaps = appendFinding(res.Gaps, fmt.Sprintf("Catalog visibility trails %s", compName))
			res.Priorities = appendFinding(res.Priorities, "Expose a public product catalog")
		}
	}
	return res
}

func (r *PeerResult) add(s signal.Signal) {
	r.Signals = append(r.Signals, s)
}

// weighted applies the category emphasis and clamps into scoring range.
func (p *PeerScorer) weighted(base int, label string) int {
	weight := 1.0
	category := strings.ToLower(p.Category)
	for catKey, labels := range categoryWeights {
		if !strings.Contains(category, catKey) {
			continue
		}
		for labelKey, w := range labels {
			if strings.Contains(label, labelKey) && w > weight {
				weight = w
			}
		}
	}
	return signal.ClampScore(int(math.Round(float64(base) * weight)))
}

// paymentDelta lists accelerated payment methods present on a and absent
// on b.
func paymentDelta(a, b signal.SiteSignals) []string {
	var missing []string
	for _, method := range a.Payments {
		if !b.HasPayment(method) {
			missing = append(missing, method)
		}
	}
	return missing
}

// appendFinding keeps rollup lists short and free of duplicates,
// preserving insertion order.
func appendFinding(list []string, entry string) []string {
	if len(list) >= maxFindings {
		return list
	}
	for _, existing := range list {
		if existing == entry {
			return list
		}
	}
	return append(list, entry)
}
