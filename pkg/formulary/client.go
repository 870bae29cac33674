// Package formulary is a thin client for the insurance formulary service.
package formulary

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://formulary.scriptradar.com"

// BestCopayResult is the best covered cost share for a drug under a plan.
type BestCopayResult struct {
	Copay    float64 `json:"copay"`
	PlanName string  `json:"plan_name"`
	TierName string  `json:"tier_name"`
}

// Client looks up formulary coverage.
type Client interface {
	// BestCopay returns the lowest covered copay for the RXCUI under the
	// plan, or nil when the drug is not on the plan's formulary.
	BestCopay(ctx context.Context, rxcui, planID string) (*BestCopayResult, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default service URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a formulary service client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) BestCopay(ctx context.Context, rxcui, planID string) (*BestCopayResult, error) {
	q := url.Values{}
	q.Set("rxcui", rxcui)
	q.Set("plan_id", planID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/best-copay?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "formulary: create request")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "formulary: send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Not on formulary. Ordinary absence, not an error.
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "formulary: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("formulary: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result BestCopayResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "formulary: unmarshal response")
	}
	return &result, nil
}
