package database

import (
	"path/filepath"
	"testing"

	"github.com/signalscale/signalscale/internal/signal"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "signalscale.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleReport(brand string) *signal.Report {
	return &signal.Report{
		Brand:      brand,
		Strengths:  []string{"Stronger checkout trust than Rival"},
		Gaps:       []string{},
		Priorities: []string{},
		Signals: []signal.Signal{
			{Brand: brand, Competitor: "Rival", Label: "Performance gap", Score: 70, Source: "site"},
		},
		KPIs: signal.KPIBlock{
			BrandScore:         77,
			CompetitorsTracked: 1,
		},
		Summary: signal.RunSummary{Mode: "standard", WindowDays: 7},
	}
}

func TestSaveAndGetReport(t *testing.T) {
	db := testDB(t)

	id, err := db.SaveReport(sampleReport("Acme"))
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a nonzero row id")
	}

	got, err := db.GetReport(id)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got == nil {
		t.Fatal("expected a stored report")
	}
	if got.Brand != "Acme" {
		t.Errorf("Brand = %q, want Acme", got.Brand)
	}
	if len(got.Signals) != 1 || got.Signals[0].Label != "Performance gap" {
		t.Errorf("signals did not round-trip: %+v", got.Signals)
	}
	if got.KPIs.BrandScore != 77 {
		t.Errorf("BrandScore = %d, want 77", got.KPIs.BrandScore)
	}
}

func TestGetReportMissing(t *testing.T) {
	db := testDB(t)

	got, err := db.GetReport(999)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for a missing id, got %+v", got)
	}
}

func TestListReportsNewestFirst(t *testing.T) {
	db := testDB(t)

	for _, brand := range []string{"First", "Second", "Third"} {
		if _, err := db.SaveReport(sampleReport(brand)); err != nil {
			t.Fatalf("SaveReport(%s): %v", brand, err)
		}
	}

	metas, err := db.ListReports(10)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(metas) != 3 {
		t.Fatalf("len(metas) = %d, want 3", len(metas))
	}
	if metas[0].Brand != "Third" || metas[2].Brand != "First" {
		t.Errorf("expected newest first, got %q ... %q", metas[0].Brand, metas[2].Brand)
	}
	if metas[0].SignalCount != 1 {
		t.Errorf("SignalCount = %d, want 1", metas[0].SignalCount)
	}
}

func TestListReportsLimit(t *testing.T) {
	db := testDB(t)

	for i := 0; i < 5; i++ {
		if _, err := db.SaveReport(sampleReport("Acme")); err != nil {
			t.Fatalf("SaveReport: %v", err)
		}
	}

	metas, err := db.ListReports(2)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(metas) != 2 {
		t.Errorf("len(metas) = %d, want 2", len(metas))
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signalscale.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if _, err := db.SaveReport(sampleReport("Acme")); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer db.Close()

	metas, err := db.ListReports(10)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(metas) != 1 {
		t.Errorf("len(metas) = %d after reopen, want 1", len(metas))
	}
}
