package coingecko

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"CoinPulse/internal/domain/models"
	drepo "CoinPulse/internal/domain/repository"
	xhttp "CoinPulse/pkg/http"
)

const simplePricePath = "/simple/price"

// Client implements a QuoteSource backed by the CoinGecko simple/price API.
type Client struct {
	baseURL string
	apiKey  string
	http    *xhttp.Client
}

// Option configures Client.
type Option func(*Client)

// WithAPIKey attaches a demo API key to every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient overrides the transport client.
func WithHTTPClient(hc *xhttp.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a CoinGecko quote source.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// simpleQuote mirrors one entry of the simple/price response.
type simpleQuote struct {
	USD          float64 `json:"usd"`
	USDMarketCap float64 `json:"usd_market_cap"`
	USD24hChange float64 `json:"usd_24h_change"`
}

// FetchQuotes requests current quotes for the given asset ids. Assets the
// provider does not recognize are absent from the result.
func (c *Client) FetchQuotes(ctx context.Context, assets []string) (map[string]models.Quote, error) {
	if len(assets) == 0 {
		return nil, fmt.Errorf("%w: no assets requested", drepo.ErrEmptyResponse)
	}

	opts := &xhttp.RequestOptions{
		Method: http.MethodGet,
		URL:    c.baseURL + simplePricePath,
		QueryParams: map[string][]string{
			"ids":                 {strings.Join(assets, ",")},
			"vs_currencies":       {"usd"},
			"include_market_cap":  {"true"},
			"include_24hr_change": {"true"},
		},
	}
	if c.apiKey != "" {
		opts.Headers = map[string]string{"x-cg-demo-api-key": c.apiKey}
	}

	var raw map[string]simpleQuote
	if err := c.http.SendAndParse(ctx, opts, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", drepo.ErrSourceUnavailable, err)
	}

	if len(raw) == 0 {
		return nil, drepo.ErrEmptyResponse
	}

	quotes := make(map[string]models.Quote, len(raw))
	for asset, q := range raw {
		quotes[asset] = models.Quote{
			Price:     q.USD,
			MarketCap: q.USDMarketCap,
			Change24h: q.USD24hChange,
		}
	}
	return quotes, nil
}
