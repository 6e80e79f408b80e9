package collect

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/signalscale/signalscale/internal/config"
)

func TestCollectCatalog(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products.json" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("limit") != "10" {
			t.Errorf("expected limit=10, got %q", r.URL.Query().Get("limit"))
		}
		fmt.Fprint(w, `{"products": [
			{"title": "Hoodie", "variants": [{"price": "89.00"}, {"price": "95.00"}]},
			{"title": "Tee", "variants": [{"price": "35.00"}]},
			{"title": "No Variants", "variants": []},
			{"title": "Bad Price", "variants": [{"price": "n/a"}]},
			{"title": "Cap", "variants": [{"price": "28.00"}]},
			{"title": "Socks", "variants": [{"price": "12.00"}]},
			{"title": "Jacket", "variants": [{"price": "240.00"}]},
			{"title": "Beanie", "variants": [{"price": "22.00"}]}
		]}`)
	}))
	defer ts.Close()

	s := NewEcomCollector(config.Default()).CollectCatalog(context.Background(), ts.URL)

	if !s.HasCatalog {
		t.Fatal("expected catalog to be detected")
	}
	if s.ProductCount != 8 {
		t.Errorf("expected 8 products, got %d", s.ProductCount)
	}
	if len(s.PriceSamples) != 5 {
		t.Fatalf("expected 5 price samples, got %d", len(s.PriceSamples))
	}
	// First variant of the first product.
	if s.PriceSamples[0].Title != "Hoodie" || s.PriceSamples[0].Price != 89.00 {
		t.Errorf("unexpected first sample: %+v", s.PriceSamples[0])
	}
}

func TestCollectCatalogAbsentEndpoint(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	s := NewEcomCollector(config.Default()).CollectCatalog(context.Background(), ts.URL)
	if s.HasCatalog {
		t.Error("404 should yield empty result")
	}
	if s.Error != "" {
		t.Errorf("absent endpoint is not an error, got %q", s.Error)
	}
}

func TestCollectCatalogMalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>definitely not json</html>`)
	}))
	defer ts.Close()

	s := NewEcomCollector(config.Default()).CollectCatalog(context.Background(), ts.URL)
	if s.HasCatalog {
		t.Error("malformed body should yield empty result")
	}
}

func TestCollectCatalogEmptyURL(t *testing.T) {
	s := NewEcomCollector(config.Default()).CollectCatalog(context.Background(), "")
	if s.HasCatalog || s.Error != "" {
		t.Errorf("empty url should yield empty result, got %+v", s)
	}
}
