package collect

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/signalscale/signalscale/internal/config"
	"github.com/signalscale/signalscale/internal/signal"
)

const (
	catalogPath     = "/products.json?limit=10"
	maxPriceSamples = 5
)

// EcomCollector probes the storefront product-listing JSON convention
// exposed by Shopify-style platforms.
type EcomCollector struct {
	Client    *http.Client
	UserAgent string
}

// NewEcomCollector creates a catalog collector with its own timeout.
func NewEcomCollector(cfg *config.Config) *EcomCollector {
	return &EcomCollector{
		Client:    &http.Client{Timeout: cfg.EcomTimeout()},
		UserAgent: cfg.HTTP.UserAgent,
	}
}

// CollectCatalog attempts the products.json endpoint under baseURL. An
// absent endpoint yields an empty result, not an error.
func (c *EcomCollector) CollectCatalog(ctx context.Context, baseURL string) signal.EcomSignals {
	s := signal.EcomSignals{URL: baseURL}
	if baseURL == "" {
		return s
	}

	endpoint := strings.TrimSuffix(baseURL, "/") + catalogPath
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		s.Error = err.Error()
		return s
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		s.Error = err.Error()
		return s
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return s
	}

	var payload struct {
		Products []struct {
			Title    string `json:"title"`
			Variants []struct {
				Price string `json:"price"`
			} `json:"variants"`
		} `json:"products"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return s
	}

	s.HasCatalog = true
	s.ProductCount = len(payload.Products)
	for _, p := range payload.Products {
		if len(s.PriceSamples) >= maxPriceSamples {
			break
		}
		if len(p.Variants) == 0 {
			continue
		}
		price, err := strconv.ParseFloat(p.Variants[0].Price, 64)
		if err != nil {
			continue
		}
		s.PriceSamples = append(s.PriceSamples, signal.PriceSample{
			Title: p.Title,
			Price: price,
		})
	}

	return s
}
