// Package pricing resolves the Nisab threshold from precious metal spot
// prices, with a live-provider / cached / hardcoded-fallback cascade.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

// Metal is a precious metal the Nisab threshold can be valued against.
type Metal string

const (
	MetalGold   Metal = "gold"
	MetalSilver Metal = "silver"
)

// gramsPerTroyOunce converts provider per-ounce quotes to per-gram prices.
var gramsPerTroyOunce = decimal.NewFromFloat(31.1034768)

// Provider fetches the current spot price for one metal, per gram, in the
// requested currency.
type Provider interface {
	// Name returns the provider's display name.
	Name() string

	// FetchSpot returns the current price per gram.
	FetchSpot(ctx context.Context, metal Metal, currency string) (decimal.Decimal, error)
}

// metalsAPIResponse is the relevant slice of the metals.dev latest-rates
// response. Quotes are per troy ounce.
type metalsAPIResponse struct {
	Status string `json:"status"`
	Metals struct {
		Gold   float64 `json:"gold"`
		Silver float64 `json:"silver"`
	} `json:"metals"`
}

// MetalsAPIProvider fetches spot prices from a metals.dev compatible API.
type MetalsAPIProvider struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
	apiKey     string
}

// NewMetalsAPIProvider creates a new metals.dev price provider.
func NewMetalsAPIProvider(httpClient *http.Client, baseURL, apiKey string) *MetalsAPIProvider {
	return &MetalsAPIProvider{httpClient: httpClient, baseURL: baseURL, apiKey: apiKey}
}

// Name returns the provider's display name.
func (p *MetalsAPIProvider) Name() string { return "metals.dev" }

// FetchSpot fetches the per-gram spot price for the given metal.
func (p *MetalsAPIProvider) FetchSpot(ctx context.Context, metal Metal, currency string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("currency", currency)
	q.Set("unit", "toz")
	if p.apiKey != "" {
		q.Set("api_key", p.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("building request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var quote metalsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return decimal.Zero, fmt.Errorf("decoding response: %w", err)
	}

	var perOunce float64
	switch metal {
	case MetalGold:
		perOunce = quote.Metals.Gold
	case MetalSilver:
		perOunce = quote.Metals.Silver
	default:
		return decimal.Zero, fmt.Errorf("unsupported metal %q", metal)
	}
	if perOunce <= 0 {
		return decimal.Zero, fmt.Errorf("zero price for %s", metal)
	}

	return decimal.NewFromFloat(perOunce).Div(gramsPerTroyOunce), nil
}
