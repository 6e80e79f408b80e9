package analyze

import (
	"strings"
	"testing"

	"github.com/signalscale/signalscale/internal/signal"
)

func bundleWith(name string, site signal.SiteSignals, ecom signal.EcomSignals) signal.Bundle {
	return signal.Bundle{
		Entity: signal.Entity{Name: name},
		Site:   site,
		Ecom:   ecom,
	}
}

func findSignal(signals []signal.Signal, label string) *signal.Signal {
	for i := range signals {
		if signals[i].Label == label {
			return &signals[i]
		}
	}
	return nil
}

func TestPerformanceGapBoundary(t *testing.T) {
	brand := bundleWith("Acme", signal.SiteSignals{Reachable: true, LatencyMS: 1000}, signal.EcomSignals{})

	fast := bundleWith("Rival", signal.SiteSignals{Reachable: true, LatencyMS: 700}, signal.EcomSignals{})
	res := NewPeerScorer("").Score(brand, []signal.Bundle{fast})
	sig := findSignal(res.Signals, "Performance gap")
	if sig == nil {
		t.Fatal("expected a Performance gap signal for a 300ms deficit")
	}
	if !strings.Contains(sig.Note, "700ms") || !strings.Contains(sig.Note, "1000ms") {
		t.Errorf("note should carry both latencies, got %q", sig.Note)
	}

	near := bundleWith("Rival", signal.SiteSignals{Reachable: true, LatencyMS: 850}, signal.EcomSignals{})
	res = NewPeerScorer("").Score(brand, []signal.Bundle{near})
	if findSignal(res.Signals, "Performance gap") != nil {
		t.Error("150ms deficit should not produce a Performance gap signal")
	}
}

func TestCheckoutTrustDeltas(t *testing.T) {
	brand := bundleWith("Acme", signal.SiteSignals{
		Reachable: true,
		Payments:  []string{signal.PayApplePay},
	}, signal.EcomSignals{})
	rival := bundleWith("Rival", signal.SiteSignals{
		Reachable: true,
		Payments:  []string{signal.PayShopPay, signal.PayKlarna},
	}, signal.EcomSignals{})

	res := NewPeerScorer("").Score(brand, []signal.Bundle{rival})

	gap := findSignal(res.Signals, "Checkout trust gap")
	if gap == nil {
		t.Fatal("expected a Checkout trust gap signal")
	}
	if !strings.Contains(gap.Note, signal.PayShopPay) || !strings.Contains(gap.Note, signal.PayKlarna) {
		t.Errorf("gap note should name the missing methods, got %q", gap.Note)
	}

	adv := findSignal(res.Signals, "Checkout trust advantage")
	if adv == nil {
		t.Fatal("expected a Checkout trust advantage signal")
	}
	if !strings.Contains(adv.Note, signal.PayApplePay) {
		t.Errorf("advantage note should name apple_pay, got %q", adv.Note)
	}
}

func TestCatalogTransparencyGap(t *testing.T) {
	brand := bundleWith("Acme", signal.SiteSignals{Reachable: true}, signal.EcomSignals{})
	rival := bundleWith("Rival", signal.SiteSignals{Reachable: true}, signal.EcomSignals{
		HasCatalog:   true,
		ProductCount: 10,
	})

	res := NewPeerScorer("").Score(brand, []signal.Bundle{rival})
	if findSignal(res.Signals, "Catalog transparency gap") == nil {
		t.Fatal("expected a Catalog transparency gap signal")
	}

	// If the brand has a catalog too, there is no gap.
	brand.Ecom.HasCatalog = true
	res = NewPeerScorer("").Score(brand, []signal.Bundle{rival})
	if findSignal(res.Signals, "Catalog transparency gap") != nil {
		t.Error("no gap expected when both sides expose a catalog")
	}
}

func TestCategoryWeighting(t *testing.T) {
	brand := bundleWith("Acme", signal.SiteSignals{Reachable: true, LatencyMS: 1000}, signal.EcomSignals{})
	rival := bundleWith("Rival", signal.SiteSignals{Reachable: true, LatencyMS: 500}, signal.EcomSignals{})

	plain := NewPeerScorer("").Score(brand, []signal.Bundle{rival})
	athletic := NewPeerScorer("athletic apparel").Score(brand, []signal.Bundle{rival})

	base := findSignal(plain.Signals, "Performance gap")
	boosted := findSignal(athletic.Signals, "Performance gap")
	if base == nil || boosted == nil {
		t.Fatal("both runs should emit a Performance gap signal")
	}
	if base.Score != 70 {
		t.Errorf("unweighted score = %d, want 70", base.Score)
	}
	if boosted.Score != 84 {
		t.Errorf("athletic-weighted score = %d, want 84 (70 * 1.2)", boosted.Score)
	}
}

func TestAllScoresInRange(t *testing.T) {
	brand := bundleWith("Acme", signal.SiteSignals{Reachable: true, LatencyMS: 2000}, signal.EcomSignals{})
	rivals := []signal.Bundle{
		bundleWith("R1", signal.SiteSignals{
			Reachable: true,
			LatencyMS: 100,
			Payments:  []string{signal.PayShopPay, signal.PayApplePay, signal.PayKlarna},
		}, signal.EcomSignals{HasCatalog: true, ProductCount: 10}),
		bundleWith("R2", signal.SiteSignals{Reachable: true, LatencyMS: 300}, signal.EcomSignals{}),
	}

	res := NewPeerScorer("luxury streetwear").Score(brand, rivals)
	if len(res.Signals) == 0 {
		t.Fatal("expected signals")
	}
	for _, s := range res.Signals {
		if s.Score < 1 || s.Score > 100 {
			t.Errorf("signal %q score %d out of [1,100]", s.Label, s.Score)
		}
	}
}

func TestUnreachableSitesProduceFewerSignals(t *testing.T) {
	brand := bundleWith("Acme", signal.SiteSignals{Reachable: false}, signal.EcomSignals{})
	rival := bundleWith("Rival", signal.SiteSignals{Reachable: true, LatencyMS: 10}, signal.EcomSignals{})

	res := NewPeerScorer("").Score(brand, []signal.Bundle{rival})
	if findSignal(res.Signals, "Performance gap") != nil {
		t.Error("latency comparison requires both sites reachable")
	}
}

func TestFindingsCappedAndDeduplicated(t *testing.T) {
	brand := bundleWith("Acme", signal.SiteSignals{Reachable: true, LatencyMS: 5000}, signal.EcomSignals{})
	var rivals []signal.Bundle
	for _, name := range []string{"R1", "R2", "R3", "R4", "R5", "R6", "R7"} {
		rivals = append(rivals, bundleWith(name, signal.SiteSignals{Reachable: true, LatencyMS: 100},
			signal.EcomSignals{HasCatalog: true}))
	}

	res := NewPeerScorer("").Score(brand, rivals)
	if len(res.Gaps) > 5 {
		t.Errorf("gaps len = %d, want at most 5", len(res.Gaps))
	}
	if len(res.Priorities) > 5 {
		t.Errorf("priorities len = %d, want at most 5", len(res.Priorities))
	}
	seen := map[string]bool{}
	for _, g := range res.Gaps {
		if seen[g] {
			t.Errorf("duplicate gap entry %q", g)
		}
		seen[g] = true
	}
}

func TestPeerScoringDeterministic(t *testing.T) {
	brand := bundleWith("Acme", signal.SiteSignals{Reachable: true, LatencyMS: 900}, signal.EcomSignals{})
	rivals := []signal.Bundle{
		bundleWith("R1", signal.SiteSignals{Reachable: true, LatencyMS: 400,
			Payments: []string{signal.PayShopPay}}, signal.EcomSignals{HasCatalog: true}),
	}

	scorer := NewPeerScorer("athletic")
	first := scorer.Score(brand, rivals)
	second := scorer.Score(brand, rivals)
	if len(first.Signals) != len(second.Signals) {
		t.Fatalf("signal counts differ: %d vs %d", len(first.Signals), len(second.Signals))
	}
	for i := range first.Signals {
		if first.Signals[i] != second.Signals[i] {
			t.Errorf("signal %d differs between runs", i)
		}
	}
}
