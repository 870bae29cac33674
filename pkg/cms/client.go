// Package cms queries public drug pricing datasets: NADAC acquisition
// costs, Part D spending, and the state drug utilization (SDUD) claims
// data. All three are served through the same datastore API and share one
// rate-limited HTTP client.
package cms

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://data.cms.gov/datastore"

// NADACResult is a national average drug acquisition cost record.
type NADACResult struct {
	Description  string  `json:"ndc_description"`
	UnitPrice    float64 `json:"nadac_per_unit"`
	IsOTC        bool    `json:"otc"`
	PricingUnit  string  `json:"pricing_unit"`
	EffectiveEnd string  `json:"effective_date,omitempty"`
}

// SpendingResult is a Part D average-spending record.
type SpendingResult struct {
	DrugName  string  `json:"drug_name"`
	UnitPrice float64 `json:"avg_spend_per_dosage_unit"`
}

// RegionalResult is a per-unit reimbursement figure from SDUD claims.
type RegionalResult struct {
	PricePerUnit float64
	State        string
}

// Client reads the three public pricing datasets.
type Client interface {
	// NADAC returns the acquisition cost record for a drug, or nil when the
	// dataset has no row for it.
	NADAC(ctx context.Context, name, strength string) (*NADACResult, error)
	// PartDSpending returns the average spending per dosage unit, or nil.
	PartDSpending(ctx context.Context, name string) (*SpendingResult, error)
	// SDUD scans the state drug utilization data for a per-unit price.
	// state may be empty for a national scan. The dataset is paginated
	// server-side; the scan stops at the first usable row or after the
	// page cap.
	SDUD(ctx context.Context, name, state string) (*RegionalResult, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default datastore URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit sets the requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
}

// WithPageSize overrides the SDUD page size (default 1000).
func WithPageSize(n int) Option {
	return func(c *httpClient) { c.pageSize = n }
}

type httpClient struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	pageSize int
}

// maxSDUDPages caps the paginated scan; with the default page size this
// bounds a lookup at 10k rows. Repeat lookups are served from the regional
// price cache, not from here.
const maxSDUDPages = 10

// NewClient creates a datasets client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:  defaultBaseURL,
		http:     &http.Client{Timeout: 15 * time.Second},
		limiter:  rate.NewLimiter(10, 10),
		pageSize: 1000,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// getJSON performs one rate-limited GET and decodes the response into out.
// A 404 is reported as errNotFound so callers can map it to absence.
var errNotFound = eris.New("cms: not found")

func (c *httpClient) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "cms: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "cms: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "cms: send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "cms: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("cms: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "cms: unmarshal response")
	}
	return nil
}
