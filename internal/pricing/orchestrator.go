// Package pricing orchestrates the full quote pipeline: dosing resolution,
// the wholesale cascade, then per-pharmacy markup, copay and coupon pricing.
package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scriptradar/rxquote/internal/copay"
	"github.com/scriptradar/rxquote/internal/coupon"
	"github.com/scriptradar/rxquote/internal/dosing"
	"github.com/scriptradar/rxquote/internal/markup"
	"github.com/scriptradar/rxquote/internal/metrics"
	"github.com/scriptradar/rxquote/internal/model"
	"github.com/scriptradar/rxquote/internal/normalize"
	"github.com/scriptradar/rxquote/internal/store"
	"github.com/scriptradar/rxquote/internal/wholesale"
	"github.com/scriptradar/rxquote/pkg/formulary"
)

// Config holds orchestrator tunables.
type Config struct {
	// MembershipDiscount is the fraction knocked off the insurance price for
	// pharmacy membership programs.
	MembershipDiscount float64
	// MaxParallel bounds the per-pharmacy fan-out.
	MaxParallel int
}

// DefaultConfig returns the standard orchestrator constants.
func DefaultConfig() Config {
	return Config{
		MembershipDiscount: 0.20,
		MaxParallel:        8,
	}
}

// Orchestrator wires the pipeline stages together. All stages are resolved
// once per request except markup, copay and coupon, which run per pharmacy.
type Orchestrator struct {
	dosing    *dosing.Resolver
	wholesale *wholesale.Resolver
	markup    *markup.Model
	copay     *copay.Resolver
	coupons   *coupon.Model
	store     store.Store
	cfg       Config
}

// New creates an orchestrator. The store may be nil to skip quote-run
// logging.
func New(
	dr *dosing.Resolver,
	wr *wholesale.Resolver,
	mm *markup.Model,
	cr *copay.Resolver,
	cm *coupon.Model,
	st store.Store,
	cfg Config,
) *Orchestrator {
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = DefaultConfig().MaxParallel
	}
	return &Orchestrator{
		dosing:    dr,
		wholesale: wr,
		markup:    mm,
		copay:     cr,
		coupons:   cm,
		store:     st,
		cfg:       cfg,
	}
}

// Quote prices a request at every candidate pharmacy. The wholesale basis
// and formulary coverage are resolved exactly once and shared across
// pharmacies; everything per-pharmacy is pure computation, so the fan-out
// carries no ordering dependency and the output keeps the input pharmacy
// order. The only error class is a malformed request; data availability
// problems degrade to estimates instead of failing.
func (o *Orchestrator) Quote(ctx context.Context, req model.PricingRequest) (*model.QuoteResult, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	genericName := req.GenericName
	if genericName == "" {
		genericName = normalize.CleanDrugName(req.MedicationName)
	}

	profile := o.dosing.Resolve(genericName, req.Form)
	units := dosing.AdjustQuantity(req.DaysSupply, profile)

	requestID := uuid.New().String()
	runID := o.logRunStart(ctx, req, genericName)

	resolution := o.wholesale.Resolve(ctx, wholesale.Query{
		GenericName: genericName,
		Strength:    req.Strength,
		Form:        req.Form,
		Quantity:    units,
		ZIP:         req.ZipCode,
	})

	coverage := o.copay.FetchCoverage(ctx, req.RXCUI, req.Insurance)

	quotes := make([]model.PharmacyQuote, len(req.Pharmacies))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.MaxParallel)
	for i, ph := range req.Pharmacies {
		i, ph := i, ph
		g.Go(func() error {
			quotes[i] = o.quoteAt(ph, genericName, resolution, coverage, req)
			return nil
		})
	}
	_ = g.Wait()

	o.logRunDone(ctx, runID, resolution.Provenance, len(quotes))
	metrics.PharmacyQuotes.Add(float64(len(quotes)))
	metrics.QuoteRequestDuration.Observe(time.Since(start).Seconds())

	zap.L().Info("quote request priced",
		zap.String("request_id", requestID),
		zap.String("drug", genericName),
		zap.String("provenance", string(resolution.Provenance)),
		zap.Int("units", units),
		zap.Int("pharmacies", len(quotes)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &model.QuoteResult{
		RequestID:   requestID,
		Medication:  req.MedicationName,
		GenericName: genericName,
		Dosing:      profile,
		Wholesale:   resolution,
		ActualUnits: units,
		Quotes:      quotes,
	}, nil
}

// quoteAt prices one pharmacy. Pure given its inputs.
func (o *Orchestrator) quoteAt(
	ph model.Pharmacy,
	genericName string,
	w model.WholesaleResolution,
	coverage *formulary.BestCopayResult,
	req model.PricingRequest,
) model.PharmacyQuote {
	cash := o.markup.CashPrice(w.Cost, ph.Name, w.IsBrand)

	rec := o.copay.Resolve(coverage, copay.Params{
		Insurance:     req.Insurance,
		CashPrice:     cash,
		IsBrand:       w.IsBrand,
		IsGeneric:     !w.IsBrand,
		DeductibleMet: req.DeductibleMet,
		PharmacyName:  ph.Name,
		DrugName:      genericName,
	})
	insurance := rec.Copay
	membership := normalize.Round2(insurance * (1 - o.cfg.MembershipDiscount))
	offer := o.coupons.Quote(cash, ph.Name)

	return model.PharmacyQuote{
		Pharmacy:        ph,
		CashPrice:       cash,
		InsurancePrice:  insurance,
		MembershipPrice: membership,
		Coupon:          offer,
		Savings:         normalize.Round2(cash - insurance),
		BestOption:      bestOption(membership, offer, insurance, cash),
		Copay:           rec,
		Provenance:      w.Provenance,
		Estimated:       w.Estimated,
	}
}

// bestOption picks the cheapest payment path. Ties go to the earlier option
// in priority order: membership, coupon, insurance, cash.
func bestOption(membership float64, offer *model.CouponOffer, insurance, cash float64) model.BestOption {
	best := model.BestOptionMembership
	price := membership
	if offer != nil && offer.Price < price {
		best, price = model.BestOptionCoupon, offer.Price
	}
	if insurance < price {
		best, price = model.BestOptionInsurance, insurance
	}
	if cash < price {
		best = model.BestOptionCash
	}
	return best
}

func (o *Orchestrator) logRunStart(ctx context.Context, req model.PricingRequest, genericName string) string {
	if o.store == nil {
		return ""
	}
	run, err := o.store.CreateQuoteRun(ctx, req.MedicationName, genericName, len(req.Pharmacies))
	if err != nil {
		zap.L().Warn("quote run log insert failed", zap.Error(err))
		return ""
	}
	return run.ID
}

func (o *Orchestrator) logRunDone(ctx context.Context, runID string, prov model.Provenance, quotes int) {
	if o.store == nil || runID == "" {
		return
	}
	if err := o.store.CompleteQuoteRun(ctx, runID, prov, quotes); err != nil {
		zap.L().Warn("quote run log update failed", zap.String("run_id", runID), zap.Error(err))
	}
}
