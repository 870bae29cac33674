// Package wholesale resolves the wholesale (acquisition) cost for a drug by
// walking an ordered cascade of pricing sources. The first source that
// produces a strictly positive price wins; upstream failures and absences
// both fall through to the next layer, and a flat per-unit estimate closes
// the cascade so resolution never fails.
package wholesale

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/scriptradar/rxquote/internal/curated"
	"github.com/scriptradar/rxquote/internal/metrics"
	"github.com/scriptradar/rxquote/internal/model"
	"github.com/scriptradar/rxquote/internal/normalize"
	"github.com/scriptradar/rxquote/internal/resilience"
	"github.com/scriptradar/rxquote/internal/store"
	"github.com/scriptradar/rxquote/pkg/cms"
	"github.com/scriptradar/rxquote/pkg/costplus"
)

// Query identifies the drug and quantity to price. Quantity is the actual
// (frequency-adjusted) unit count, already converted from days supply.
type Query struct {
	GenericName string
	Strength    string
	Form        string
	Quantity    int
	ZIP         string
}

// Source is one cascade layer. A nil resolution with a nil error means the
// source has no data for the drug; an error means the source itself failed.
// The cascade treats both as fallthrough.
type Source interface {
	Name() string
	Resolve(ctx context.Context, q Query) (*model.WholesaleResolution, error)
}

// Config holds the cascade's classification and fallback constants. The
// brand thresholds are heuristics, kept configurable so they can be
// recalibrated without a release.
type Config struct {
	// BrandUnitPriceThreshold is the $/unit above which spending or claims
	// data classifies a drug as brand.
	BrandUnitPriceThreshold float64
	// BrandMarkupFactor classifies as brand when spending price exceeds
	// acquisition price by this factor.
	BrandMarkupFactor float64
	// AcquisitionMarkup inflates acquisition-only prices to approximate
	// wholesale.
	AcquisitionMarkup float64
	// BrandSpendingShare approximates brand wholesale as this share of the
	// government spending price when only spending data exists.
	BrandSpendingShare float64
	// FlatUnitEstimate is the last-resort per-unit price.
	FlatUnitEstimate float64
	// SourceTimeout bounds each cascade layer so a stalled upstream is
	// treated as no-data instead of blocking the request.
	SourceTimeout time.Duration
	// RegionalTTL is the staleness window for cached regional prices.
	RegionalTTL time.Duration
	// Retry controls upstream retry behavior.
	Retry resilience.Config
}

// DefaultConfig returns the standard cascade constants.
func DefaultConfig() Config {
	return Config{
		BrandUnitPriceThreshold: 5.0,
		BrandMarkupFactor:       3.0,
		AcquisitionMarkup:       1.15,
		BrandSpendingShare:      0.20,
		FlatUnitEstimate:        0.25,
		SourceTimeout:           8 * time.Second,
		RegionalTTL:             store.DefaultRegionalTTL,
		Retry:                   resilience.DefaultConfig(),
	}
}

// Resolver runs the cascade.
type Resolver struct {
	sources []Source
	cfg     Config
}

// NewResolver builds the standard cascade. Nil clients and a nil store are
// allowed; the corresponding layers are skipped (the regional layer runs
// uncached without a store).
func NewResolver(tables *curated.Tables, cp costplus.Client, datasets cms.Client, st store.Store, cfg Config) *Resolver {
	var sources []Source
	if tables != nil {
		sources = append(sources,
			&curatedGenericSource{tables: tables},
			&curatedBrandSource{tables: tables},
		)
	}
	if cp != nil {
		sources = append(sources, &costplusSource{client: cp, retry: cfg.Retry})
	}
	if datasets != nil {
		sources = append(sources,
			&datasetsSource{client: datasets, retry: cfg.Retry, cfg: cfg},
			&regionalSource{client: datasets, store: st, retry: cfg.Retry, cfg: cfg},
		)
	}
	return &Resolver{sources: sources, cfg: cfg}
}

// NewResolverFromSources builds a resolver over an explicit source list, in
// the given priority order.
func NewResolverFromSources(cfg Config, sources ...Source) *Resolver {
	return &Resolver{sources: sources, cfg: cfg}
}

// SourceNames lists the cascade layers in priority order, ending with the
// built-in flat estimate.
func (r *Resolver) SourceNames() []string {
	names := make([]string, 0, len(r.sources)+1)
	for _, s := range r.sources {
		names = append(names, s.Name())
	}
	return append(names, string(model.ProvenanceFlatEstimate))
}

// Resolve walks the cascade and returns the first positive price. It never
// fails: when every source comes back empty the flat per-unit estimate is
// returned, tagged so callers can surface a "pricing estimated" indicator.
func (r *Resolver) Resolve(ctx context.Context, q Query) model.WholesaleResolution {
	for _, src := range r.sources {
		sctx, cancel := context.WithTimeout(ctx, r.cfg.SourceTimeout)
		res, err := src.Resolve(sctx, q)
		cancel()

		if err != nil {
			metrics.UpstreamErrors.WithLabelValues(src.Name()).Inc()
			zap.L().Warn("pricing source failed, falling through",
				zap.String("source", src.Name()),
				zap.String("drug", q.GenericName),
				zap.Error(err),
			)
			continue
		}
		if res == nil || res.Cost <= 0 {
			continue
		}

		metrics.WholesaleResolutions.WithLabelValues(string(res.Provenance)).Inc()
		zap.L().Debug("wholesale resolved",
			zap.String("drug", q.GenericName),
			zap.String("provenance", string(res.Provenance)),
			zap.Float64("cost", res.Cost),
			zap.Bool("is_brand", res.IsBrand),
		)
		return *res
	}

	metrics.WholesaleResolutions.WithLabelValues(string(model.ProvenanceFlatEstimate)).Inc()
	zap.L().Info("no wholesale data found, using flat estimate",
		zap.String("drug", q.GenericName),
		zap.Int("quantity", q.Quantity),
	)
	return model.WholesaleResolution{
		Cost:       normalize.Round2(r.cfg.FlatUnitEstimate * float64(q.Quantity)),
		IsBrand:    false,
		Tier:       model.Tier1,
		Provenance: model.ProvenanceFlatEstimate,
		Estimated:  true,
	}
}
