package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptradar/rxquote/internal/copay"
	"github.com/scriptradar/rxquote/internal/coupon"
	"github.com/scriptradar/rxquote/internal/curated"
	"github.com/scriptradar/rxquote/internal/dosing"
	"github.com/scriptradar/rxquote/internal/markup"
	"github.com/scriptradar/rxquote/internal/model"
	"github.com/scriptradar/rxquote/internal/store"
	"github.com/scriptradar/rxquote/internal/wholesale"
)

// newTestOrchestrator wires the pipeline with real components and no
// upstream clients, so only the curated tables and the flat estimate can
// resolve wholesale cost.
func newTestOrchestrator(t *testing.T, st store.Store) *Orchestrator {
	t.Helper()

	tables, err := curated.Load()
	require.NoError(t, err)
	dr, err := dosing.NewResolver()
	require.NoError(t, err)

	wcfg := wholesale.DefaultConfig()
	wcfg.SourceTimeout = time.Second

	return New(
		dr,
		wholesale.NewResolver(tables, nil, nil, nil, wcfg),
		markup.NewModel(markup.DefaultRanges()),
		copay.NewResolver(nil, copay.DefaultConfig()),
		coupon.NewModel(nil),
		st,
		DefaultConfig(),
	)
}

func TestQuoteRejectsMalformedRequest(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, nil)

	_, err := o.Quote(context.Background(), model.PricingRequest{
		MedicationName: "",
		DaysSupply:     30,
		Pharmacies:     []model.Pharmacy{{Name: "CVS"}},
	})
	assert.ErrorContains(t, err, "medication name")

	_, err = o.Quote(context.Background(), model.PricingRequest{
		MedicationName: "metformin",
		DaysSupply:     -1,
		Pharmacies:     []model.Pharmacy{{Name: "CVS"}},
	})
	assert.ErrorContains(t, err, "days supply")
}

func TestQuoteGenericSelfPay(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, nil)

	res, err := o.Quote(context.Background(), model.PricingRequest{
		MedicationName: "Metformin 500mg Tablet",
		Strength:       "500mg",
		DaysSupply:     30,
		Insurance:      model.InsuranceSelection{PlanID: "no_insurance"},
		Pharmacies: []model.Pharmacy{
			{Name: "Costco Pharmacy"},
			{Name: "CVS Pharmacy"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "metformin", res.GenericName)
	assert.Equal(t, model.FrequencyDaily, res.Dosing.Frequency)
	assert.Equal(t, 30, res.ActualUnits)
	assert.Equal(t, model.ProvenanceCuratedGeneric, res.Wholesale.Provenance)
	assert.False(t, res.Wholesale.IsBrand)
	assert.False(t, res.Wholesale.Estimated)

	require.Len(t, res.Quotes, 2)
	costco, cvs := res.Quotes[0], res.Quotes[1]
	assert.Equal(t, "Costco Pharmacy", costco.Pharmacy.Name)

	// Disjoint chain markup ranges: warehouse cash price beats CVS for the
	// identical wholesale basis.
	assert.Less(t, costco.CashPrice, cvs.CashPrice)

	// Self-pay: the insurance price collapses to the cash price.
	for _, q := range res.Quotes {
		assert.Equal(t, q.CashPrice, q.InsurancePrice)
		assert.Equal(t, 0.0, q.Savings)
		assert.Equal(t, model.CopaySourceModel, q.Copay.Source)
		assert.LessOrEqual(t, q.MembershipPrice, q.InsurancePrice)
		assert.LessOrEqual(t, q.InsurancePrice, q.CashPrice)
	}
}

func TestQuoteInsuredGenericPriceOrdering(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, nil)

	// A cheap curated generic whose table copay exceeds the counter price:
	// the insurance price must be capped at cash, never above it.
	res, err := o.Quote(context.Background(), model.PricingRequest{
		MedicationName: "Metformin 500mg Tablet",
		Strength:       "500mg",
		DaysSupply:     30,
		Insurance:      model.InsuranceSelection{PlanID: "acme_ppo", PlanName: "Acme PPO"},
		Pharmacies: []model.Pharmacy{
			{Name: "Costco Pharmacy"},
			{Name: "CVS Pharmacy"},
			{Name: "Neighborhood Apothecary"},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Quotes, 3)

	for _, q := range res.Quotes {
		assert.LessOrEqual(t, q.MembershipPrice, q.InsurancePrice, "%s", q.Pharmacy.Name)
		assert.LessOrEqual(t, q.InsurancePrice, q.CashPrice, "%s", q.Pharmacy.Name)
		assert.GreaterOrEqual(t, q.Savings, 0.0, "%s", q.Pharmacy.Name)
	}
}

func TestQuoteBrandWeekly(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, nil)

	res, err := o.Quote(context.Background(), model.PricingRequest{
		MedicationName: "Ozempic 0.25mg Pen Injector",
		Form:           "pen injector",
		DaysSupply:     30,
		Insurance:      model.InsuranceSelection{PlanID: "acme_ppo", PlanName: "Acme PPO"},
		Pharmacies:     []model.Pharmacy{{Name: "Walgreens"}},
	})
	require.NoError(t, err)

	// Weekly injection: 30 days supply dispenses 4 pens.
	assert.Equal(t, model.FrequencyWeekly, res.Dosing.Frequency)
	assert.Equal(t, 4, res.ActualUnits)
	assert.Equal(t, model.ProvenanceCuratedBrand, res.Wholesale.Provenance)
	assert.True(t, res.Wholesale.IsBrand)
	assert.Equal(t, model.Tier4, res.Wholesale.Tier)

	require.Len(t, res.Quotes, 1)
	q := res.Quotes[0]

	// Cash price within the brand markup envelope.
	assert.GreaterOrEqual(t, q.CashPrice, res.Wholesale.Cost*3.0)
	assert.LessOrEqual(t, q.CashPrice, res.Wholesale.Cost*5.0)

	// No formulary client, so the copay model runs: cash above the specialty
	// threshold lands in tier 4 (PPO base $100, ±12%).
	assert.Equal(t, model.CopaySourceModel, q.Copay.Source)
	assert.Equal(t, "Tier 4 (specialty)", q.Copay.TierName)
	assert.GreaterOrEqual(t, q.InsurancePrice, 88.0)
	assert.LessOrEqual(t, q.InsurancePrice, 112.0)
	assert.LessOrEqual(t, q.MembershipPrice, q.InsurancePrice)
}

func TestQuoteUnknownDrugEstimated(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, nil)

	res, err := o.Quote(context.Background(), model.PricingRequest{
		MedicationName: "Obscuramycin 10mg",
		DaysSupply:     30,
		Insurance:      model.InsuranceSelection{PlanID: "cash"},
		Pharmacies:     []model.Pharmacy{{Name: "Corner Drug"}},
	})
	require.NoError(t, err)

	assert.Equal(t, model.ProvenanceFlatEstimate, res.Wholesale.Provenance)
	assert.True(t, res.Wholesale.Estimated)
	assert.Equal(t, 7.50, res.Wholesale.Cost)
	require.Len(t, res.Quotes, 1)
	assert.True(t, res.Quotes[0].Estimated)
	assert.Positive(t, res.Quotes[0].CashPrice)
}

func TestQuoteDeterminism(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, nil)

	req := model.PricingRequest{
		MedicationName: "Lisinopril 10mg",
		Strength:       "10mg",
		DaysSupply:     90,
		Insurance:      model.InsuranceSelection{PlanID: "acme_hmo", PlanName: "Acme HMO"},
		Pharmacies: []model.Pharmacy{
			{Name: "Costco Pharmacy"},
			{Name: "Walmart Pharmacy"},
			{Name: "Neighborhood Apothecary"},
		},
	}

	first, err := o.Quote(context.Background(), req)
	require.NoError(t, err)
	second, err := o.Quote(context.Background(), req)
	require.NoError(t, err)

	// Everything except the request id is byte-identical across runs.
	assert.Equal(t, first.Wholesale, second.Wholesale)
	assert.Equal(t, first.Quotes, second.Quotes)
}

func TestQuotePreservesPharmacyOrder(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, nil)

	names := []string{"Zeta Drugs", "CVS Pharmacy", "Costco Pharmacy", "Alpha Rx"}
	var pharmacies []model.Pharmacy
	for _, n := range names {
		pharmacies = append(pharmacies, model.Pharmacy{Name: n})
	}

	res, err := o.Quote(context.Background(), model.PricingRequest{
		MedicationName: "Atorvastatin 20mg",
		DaysSupply:     30,
		Insurance:      model.InsuranceSelection{PlanID: "none"},
		Pharmacies:     pharmacies,
	})
	require.NoError(t, err)

	require.Len(t, res.Quotes, len(names))
	for i, q := range res.Quotes {
		assert.Equal(t, names[i], q.Pharmacy.Name)
	}
}

func TestQuoteBestOptionTieBreak(t *testing.T) {
	t.Parallel()

	// Equal prices everywhere: membership wins by priority order.
	assert.Equal(t, model.BestOptionMembership, bestOption(10, &model.CouponOffer{Price: 10}, 10, 10))
	// Strictly cheaper coupon wins.
	assert.Equal(t, model.BestOptionCoupon, bestOption(10, &model.CouponOffer{Price: 5}, 10, 10))
	// No coupon offer: insurance beats cash on ties.
	assert.Equal(t, model.BestOptionInsurance, bestOption(10, nil, 8, 8))
	// Cash wins only when strictly cheapest.
	assert.Equal(t, model.BestOptionCash, bestOption(10, nil, 9, 4))
}

func TestQuoteLogsRun(t *testing.T) {
	t.Parallel()

	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	o := newTestOrchestrator(t, st)
	_, err = o.Quote(context.Background(), model.PricingRequest{
		MedicationName: "Metformin 500mg",
		Strength:       "500mg",
		DaysSupply:     30,
		Insurance:      model.InsuranceSelection{PlanID: "cash"},
		Pharmacies:     []model.Pharmacy{{Name: "CVS"}, {Name: "Walgreens"}},
	})
	require.NoError(t, err)

	runs, err := st.ListQuoteRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunStatusComplete, runs[0].Status)
	assert.Equal(t, "metformin", runs[0].GenericName)
	assert.Equal(t, model.ProvenanceCuratedGeneric, runs[0].Provenance)
	assert.Equal(t, 2, runs[0].Quotes)
}
