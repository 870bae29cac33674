// Package store persists the regional price cache and the quote-request
// audit log. Two backends are provided: SQLite for single-node deployments
// and Postgres for shared ones.
package store

import (
	"context"
	"time"

	"github.com/scriptradar/rxquote/internal/model"
)

// DefaultRegionalTTL is the staleness window for cached regional price
// lookups; entries older than this are treated as absent and re-fetched.
const DefaultRegionalTTL = 24 * time.Hour

// NationalRegion is the cache region key for lookups with no usable ZIP.
const NationalRegion = "US"

// RegionalPrice is a cached per-unit price from the regional claims dataset.
type RegionalPrice struct {
	DrugName     string    `json:"drug_name"`
	Region       string    `json:"region"` // state code or NationalRegion
	PricePerUnit float64   `json:"price_per_unit"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// QuoteRun is one pricing request recorded for operators.
type QuoteRun struct {
	ID          string           `json:"id"`
	Medication  string           `json:"medication"`
	GenericName string           `json:"generic_name"`
	Pharmacies  int              `json:"pharmacies"`
	Provenance  model.Provenance `json:"provenance,omitempty"`
	Quotes      int              `json:"quotes"`
	Status      string           `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// Quote run statuses.
const (
	RunStatusPending  = "pending"
	RunStatusComplete = "complete"
)

// Store is the persistence interface for the pricing service.
type Store interface {
	// Regional price cache. Get returns nil for a missing or expired entry.
	GetCachedRegionalPrice(ctx context.Context, drugName, region string) (*RegionalPrice, error)
	SetCachedRegionalPrice(ctx context.Context, drugName, region string, pricePerUnit float64, ttl time.Duration) error
	DeleteExpiredRegionalPrices(ctx context.Context) (int, error)

	// Quote run log.
	CreateQuoteRun(ctx context.Context, medication, genericName string, pharmacies int) (*QuoteRun, error)
	CompleteQuoteRun(ctx context.Context, runID string, provenance model.Provenance, quotes int) error
	ListQuoteRuns(ctx context.Context, limit int) ([]QuoteRun, error)

	// Lifecycle.
	Migrate(ctx context.Context) error
	Close() error
}
