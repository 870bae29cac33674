// Package costplus is a client for the commodity wholesale drug pricing API.
package costplus

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.costplusdrugs.com"

// SearchResult is a wholesale price match for a drug.
type SearchResult struct {
	MedicationName string  `json:"medication_name"`
	UnitPrice      float64 `json:"unit_price"`
	// TotalQuote, when positive, is an exact quote for the requested
	// quantity and takes precedence over UnitPrice × quantity.
	TotalQuote float64 `json:"total_quote"`
	IsBrand    bool    `json:"is_brand"`
}

// Client searches commodity wholesale prices.
type Client interface {
	// Search returns the best price match, or nil when the drug is not
	// stocked.
	Search(ctx context.Context, name, strength string, quantity int) (*SearchResult, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit sets the requests-per-second limit for API calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a wholesale pricing client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, name, strength string, quantity int) (*SearchResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "costplus: rate limit wait")
	}

	q := url.Values{}
	q.Set("name", name)
	if strength != "" {
		q.Set("strength", strength)
	}
	if quantity > 0 {
		q.Set("quantity", strconv.Itoa(quantity))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/prices/search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "costplus: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "costplus: send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "costplus: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("costplus: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Results []SearchResult `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, eris.Wrap(err, "costplus: unmarshal response")
	}
	if len(payload.Results) == 0 {
		return nil, nil
	}
	return &payload.Results[0], nil
}
