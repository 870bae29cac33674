package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/scriptradar/rxquote/internal/copay"
	"github.com/scriptradar/rxquote/internal/coupon"
	"github.com/scriptradar/rxquote/internal/curated"
	"github.com/scriptradar/rxquote/internal/db"
	"github.com/scriptradar/rxquote/internal/dosing"
	"github.com/scriptradar/rxquote/internal/markup"
	"github.com/scriptradar/rxquote/internal/pricing"
	"github.com/scriptradar/rxquote/internal/store"
	"github.com/scriptradar/rxquote/internal/wholesale"
	"github.com/scriptradar/rxquote/pkg/cms"
	"github.com/scriptradar/rxquote/pkg/costplus"
	"github.com/scriptradar/rxquote/pkg/formulary"
)

// initStore opens the configured backend and runs migrations.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "postgres":
		var pool db.Pool
		pool, err = db.NewPool(ctx, cfg.Store.DatabaseURL)
		if err == nil {
			st = store.NewPostgres(pool)
		}
	default:
		st, err = store.NewSQLite(cfg.Store.Path)
	}
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initOrchestrator wires the full pricing pipeline from configuration. The
// returned store is owned by the caller.
func initOrchestrator(ctx context.Context) (*pricing.Orchestrator, store.Store, error) {
	tables, err := curated.Load()
	if err != nil {
		return nil, nil, err
	}
	dr, err := dosing.NewResolver()
	if err != nil {
		return nil, nil, err
	}
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	cp := costplus.NewClient(
		costplus.WithBaseURL(cfg.CostPlus.BaseURL),
		costplus.WithRateLimit(cfg.CostPlus.RatePerSecond),
	)
	datasets := cms.NewClient(
		cms.WithBaseURL(cfg.Datasets.BaseURL),
		cms.WithRateLimit(cfg.Datasets.RatePerSecond),
	)
	fc := formulary.NewClient(cfg.Formulary.Key, formulary.WithBaseURL(cfg.Formulary.BaseURL))

	wcfg := wholesale.DefaultConfig()
	wcfg.BrandUnitPriceThreshold = cfg.Pricing.BrandUnitPriceThreshold
	wcfg.BrandMarkupFactor = cfg.Pricing.BrandMarkupFactor
	wcfg.AcquisitionMarkup = cfg.Pricing.AcquisitionMarkup
	wcfg.BrandSpendingShare = cfg.Pricing.BrandSpendingShare
	wcfg.FlatUnitEstimate = cfg.Pricing.FlatUnitEstimate
	wcfg.SourceTimeout = time.Duration(cfg.Pricing.SourceTimeoutSecs) * time.Second
	wcfg.RegionalTTL = time.Duration(cfg.Pricing.RegionalCacheTTLHours) * time.Hour

	ccfg := copay.DefaultConfig()
	ccfg.SpecialtyPriceThreshold = cfg.Pricing.SpecialtyPriceThreshold
	ccfg.HDHPDeductibleMultiplier = cfg.Pricing.HDHPDeductibleMultiplier

	orch := pricing.New(
		dr,
		wholesale.NewResolver(tables, cp, datasets, st, wcfg),
		markup.NewModel(markup.DefaultRanges()),
		copay.NewResolver(fc, ccfg),
		coupon.NewModel(nil),
		st,
		pricing.Config{
			MembershipDiscount: cfg.Pricing.MembershipDiscount,
			MaxParallel:        cfg.Pricing.MaxParallelPharmacies,
		},
	)
	return orch, st, nil
}
