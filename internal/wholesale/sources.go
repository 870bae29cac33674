package wholesale

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scriptradar/rxquote/internal/curated"
	"github.com/scriptradar/rxquote/internal/geo"
	"github.com/scriptradar/rxquote/internal/metrics"
	"github.com/scriptradar/rxquote/internal/model"
	"github.com/scriptradar/rxquote/internal/normalize"
	"github.com/scriptradar/rxquote/internal/resilience"
	"github.com/scriptradar/rxquote/internal/store"
	"github.com/scriptradar/rxquote/pkg/cms"
	"github.com/scriptradar/rxquote/pkg/costplus"
)

// curatedGenericSource reads the hand-maintained generic price table.
type curatedGenericSource struct {
	tables *curated.Tables
}

func (s *curatedGenericSource) Name() string { return string(model.ProvenanceCuratedGeneric) }

func (s *curatedGenericSource) Resolve(_ context.Context, q Query) (*model.WholesaleResolution, error) {
	e := s.tables.LookupGeneric(q.GenericName, q.Strength, q.Form)
	if e == nil || e.UnitPrice <= 0 {
		return nil, nil
	}
	return &model.WholesaleResolution{
		Cost:       normalize.Round2(e.UnitPrice * float64(q.Quantity)),
		IsBrand:    false,
		Tier:       model.Tier1,
		Provenance: model.ProvenanceCuratedGeneric,
	}, nil
}

// curatedBrandSource reads the hand-maintained brand table. The table carries
// its own tier and brand flag per row.
type curatedBrandSource struct {
	tables *curated.Tables
}

func (s *curatedBrandSource) Name() string { return string(model.ProvenanceCuratedBrand) }

func (s *curatedBrandSource) Resolve(_ context.Context, q Query) (*model.WholesaleResolution, error) {
	e := s.tables.LookupBrand(q.GenericName)
	if e == nil || e.UnitPrice <= 0 {
		return nil, nil
	}
	return &model.WholesaleResolution{
		Cost:       normalize.Round2(e.UnitPrice * float64(q.Quantity)),
		IsBrand:    e.IsBrand,
		Tier:       e.Tier,
		Provenance: model.ProvenanceCuratedBrand,
	}, nil
}

// costplusSource queries the commodity wholesale API. An exact total quote
// for the requested quantity beats unit price times quantity.
type costplusSource struct {
	client costplus.Client
	retry  resilience.Config
}

func (s *costplusSource) Name() string { return string(model.ProvenanceCostPlus) }

func (s *costplusSource) Resolve(ctx context.Context, q Query) (*model.WholesaleResolution, error) {
	res, err := resilience.Do(ctx, s.retry, s.Name(), func(ctx context.Context) (*costplus.SearchResult, error) {
		return s.client.Search(ctx, q.GenericName, q.Strength, q.Quantity)
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}

	cost := res.TotalQuote
	if cost <= 0 {
		cost = res.UnitPrice * float64(q.Quantity)
	}
	if cost <= 0 {
		return nil, nil
	}

	tier := model.Tier1
	if res.IsBrand {
		tier = model.Tier3
	}
	return &model.WholesaleResolution{
		Cost:       normalize.Round2(cost),
		IsBrand:    res.IsBrand,
		Tier:       tier,
		Provenance: model.ProvenanceCostPlus,
	}, nil
}

// datasetsSource infers wholesale cost from the public acquisition-cost and
// spending datasets, queried concurrently. Which figure becomes the
// wholesale basis depends on which datasets answered and on the brand
// classification: acquisition cost approximates wholesale for brand drugs,
// while the spending price is closer to the street price of generics.
type datasetsSource struct {
	client cms.Client
	retry  resilience.Config
	cfg    Config
}

func (s *datasetsSource) Name() string { return string(model.ProvenanceAcqSpending) }

func (s *datasetsSource) Resolve(ctx context.Context, q Query) (*model.WholesaleResolution, error) {
	var (
		acq   *cms.NADACResult
		spend *cms.SpendingResult
	)

	// A failure in one dataset must not cancel the other, so both goroutines
	// log and swallow their errors; absence and failure fall through the same
	// way.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := resilience.Do(gctx, s.retry, "acquisition", func(ctx context.Context) (*cms.NADACResult, error) {
			return s.client.NADAC(ctx, q.GenericName, q.Strength)
		})
		if err != nil {
			metrics.UpstreamErrors.WithLabelValues("acquisition").Inc()
			zap.L().Warn("acquisition dataset lookup failed",
				zap.String("drug", q.GenericName), zap.Error(err))
			return nil
		}
		acq = res
		return nil
	})
	g.Go(func() error {
		res, err := resilience.Do(gctx, s.retry, "spending", func(ctx context.Context) (*cms.SpendingResult, error) {
			return s.client.PartDSpending(ctx, q.GenericName)
		})
		if err != nil {
			metrics.UpstreamErrors.WithLabelValues("spending").Inc()
			zap.L().Warn("spending dataset lookup failed",
				zap.String("drug", q.GenericName), zap.Error(err))
			return nil
		}
		spend = res
		return nil
	})
	_ = g.Wait()

	hasAcq := acq != nil && acq.UnitPrice > 0
	hasSpend := spend != nil && spend.UnitPrice > 0
	qty := float64(q.Quantity)

	switch {
	case hasAcq && hasSpend:
		factor := spend.UnitPrice / acq.UnitPrice
		isBrand := spend.UnitPrice > s.cfg.BrandUnitPriceThreshold || factor > s.cfg.BrandMarkupFactor
		cost := spend.UnitPrice * qty
		tier := model.Tier1
		if isBrand {
			cost = acq.UnitPrice * qty
			tier = model.Tier3
		}
		return &model.WholesaleResolution{
			Cost:       normalize.Round2(cost),
			IsBrand:    isBrand,
			Tier:       tier,
			Provenance: model.ProvenanceAcqSpending,
		}, nil

	case hasAcq:
		tier := model.Tier2
		if acq.IsOTC {
			tier = model.Tier1
		}
		return &model.WholesaleResolution{
			Cost:       normalize.Round2(acq.UnitPrice * qty * s.cfg.AcquisitionMarkup),
			IsBrand:    false,
			Tier:       tier,
			Provenance: model.ProvenanceAcquisition,
		}, nil

	case hasSpend:
		isBrand := spend.UnitPrice > s.cfg.BrandUnitPriceThreshold
		cost := spend.UnitPrice * qty
		tier := model.Tier1
		if isBrand {
			cost *= s.cfg.BrandSpendingShare
			tier = model.Tier3
		}
		return &model.WholesaleResolution{
			Cost:       normalize.Round2(cost),
			IsBrand:    isBrand,
			Tier:       tier,
			Provenance: model.ProvenanceSpending,
		}, nil
	}
	return nil, nil
}

// regionalSource scans the historical claims dataset, filtered to the
// requester's state when the ZIP maps to one. Hits are cached with a
// staleness TTL because the paginated scan is the slowest layer.
type regionalSource struct {
	client cms.Client
	store  store.Store
	retry  resilience.Config
	cfg    Config
}

func (s *regionalSource) Name() string { return string(model.ProvenanceRegionalClaims) }

func (s *regionalSource) Resolve(ctx context.Context, q Query) (*model.WholesaleResolution, error) {
	state := geo.StateForZip(q.ZIP)
	region := store.NationalRegion
	if state != "" {
		region = state
	}

	if s.store != nil {
		cached, err := s.store.GetCachedRegionalPrice(ctx, q.GenericName, region)
		if err != nil {
			zap.L().Warn("regional price cache read failed",
				zap.String("drug", q.GenericName), zap.String("region", region), zap.Error(err))
		} else if cached != nil {
			return s.resolution(cached.PricePerUnit, q.Quantity), nil
		}
	}

	res, err := resilience.Do(ctx, s.retry, s.Name(), func(ctx context.Context) (*cms.RegionalResult, error) {
		return s.client.SDUD(ctx, q.GenericName, state)
	})
	if err != nil {
		return nil, err
	}
	if res == nil || res.PricePerUnit <= 0 {
		return nil, nil
	}

	if s.store != nil {
		if err := s.store.SetCachedRegionalPrice(ctx, q.GenericName, region, res.PricePerUnit, s.cfg.RegionalTTL); err != nil {
			zap.L().Warn("regional price cache write failed",
				zap.String("drug", q.GenericName), zap.String("region", region), zap.Error(err))
		}
	}
	return s.resolution(res.PricePerUnit, q.Quantity), nil
}

func (s *regionalSource) resolution(unitPrice float64, quantity int) *model.WholesaleResolution {
	isBrand := unitPrice > s.cfg.BrandUnitPriceThreshold
	tier := model.Tier1
	if isBrand {
		tier = model.Tier3
	}
	return &model.WholesaleResolution{
		Cost:       normalize.Round2(unitPrice * float64(quantity)),
		IsBrand:    isBrand,
		Tier:       tier,
		Provenance: model.ProvenanceRegionalClaims,
	}
}
