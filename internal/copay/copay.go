// Package copay resolves the insurance price for a drug: a real formulary
// copay when the plan covers it, otherwise a plan-type/tier model estimate.
package copay

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/scriptradar/rxquote/internal/model"
	"github.com/scriptradar/rxquote/internal/normalize"
	"github.com/scriptradar/rxquote/internal/stablehash"
	"github.com/scriptradar/rxquote/pkg/formulary"
)

// PlanType is the coarse insurance plan category used by the copay model.
type PlanType string

// Supported plan types.
const (
	PlanHMO      PlanType = "hmo"
	PlanPPO      PlanType = "ppo"
	PlanEPO      PlanType = "epo"
	PlanPOS      PlanType = "pos"
	PlanHDHP     PlanType = "hdhp"
	PlanMedicare PlanType = "medicare"
	PlanMedicaid PlanType = "medicaid"
)

// planKeywords maps lowercase name/description fragments to plan types.
// Order matters: more specific fragments come first.
var planKeywords = []struct {
	keyword  string
	planType PlanType
}{
	{"medicaid", PlanMedicaid},
	{"medicare", PlanMedicare},
	{"high deductible", PlanHDHP},
	{"hdhp", PlanHDHP},
	{"hsa", PlanHDHP},
	{"hmo", PlanHMO},
	{"epo", PlanEPO},
	{"pos", PlanPOS},
	{"ppo", PlanPPO},
}

// ClassifyPlanType infers the plan type from the plan's name and
// description. Unrecognized plans default to PPO, the most common type.
func ClassifyPlanType(planName, description string) PlanType {
	text := strings.ToLower(planName + " " + description)
	for _, pk := range planKeywords {
		if strings.Contains(text, pk.keyword) {
			return pk.planType
		}
	}
	return PlanPPO
}

// baseCopays holds the model copay per (plan type, tier). Indexed by tier-1.
var baseCopays = map[PlanType][4]float64{
	PlanHMO:      {5, 20, 40, 80},
	PlanPPO:      {10, 25, 50, 100},
	PlanEPO:      {10, 30, 55, 110},
	PlanPOS:      {10, 25, 45, 90},
	PlanHDHP:     {15, 40, 75, 150},
	PlanMedicare: {2, 10, 47, 100},
	PlanMedicaid: {1, 3, 8, 20},
}

// Config holds the tunable copay model constants.
type Config struct {
	// SpecialtyPriceThreshold is the cash price above which a drug is
	// treated as specialty (tier 4).
	SpecialtyPriceThreshold float64
	// HDHPDeductibleMultiplier scales the copay for HDHP plans before the
	// deductible is met.
	HDHPDeductibleMultiplier float64
	// FormularyVariationPct is the per-pharmacy spread applied to covered
	// copays.
	FormularyVariationPct float64
	// ModelVariationPct is the per-pharmacy spread applied to model copays.
	ModelVariationPct float64
	// MinCopay is the floor for covered copays.
	MinCopay float64
}

// DefaultConfig returns the standard model constants.
func DefaultConfig() Config {
	return Config{
		SpecialtyPriceThreshold:  500,
		HDHPDeductibleMultiplier: 2.5,
		FormularyVariationPct:    0.10,
		ModelVariationPct:        0.12,
		MinCopay:                 1.00,
	}
}

// Resolver computes insurance prices.
type Resolver struct {
	formulary formulary.Client
	cfg       Config
}

// NewResolver creates a copay resolver. The formulary client may be nil, in
// which case every request takes the model path.
func NewResolver(fc formulary.Client, cfg Config) *Resolver {
	return &Resolver{formulary: fc, cfg: cfg}
}

// FetchCoverage queries the formulary service once per request. It returns
// nil (no coverage) for cash selections, missing RXCUIs, and upstream
// failures; a formulary outage degrades to the copay model rather than
// failing the request.
func (r *Resolver) FetchCoverage(ctx context.Context, rxcui string, insurance model.InsuranceSelection) *formulary.BestCopayResult {
	if r.formulary == nil || rxcui == "" || insurance.IsCash() {
		return nil
	}

	res, err := r.formulary.BestCopay(ctx, rxcui, insurance.PlanID)
	if err != nil {
		zap.L().Warn("formulary lookup failed, falling back to copay model",
			zap.String("rxcui", rxcui),
			zap.String("plan_id", insurance.PlanID),
			zap.Error(err),
		)
		return nil
	}
	return res
}

// Params are the per-pharmacy inputs to Resolve.
type Params struct {
	Insurance     model.InsuranceSelection
	CashPrice     float64
	IsBrand       bool
	IsGeneric     bool
	DeductibleMet bool
	PharmacyName  string
	DrugName      string
}

// Resolve computes the insurance price for one pharmacy. coverage is the
// request-level formulary result from FetchCoverage (nil when not covered).
// The result is deterministic: the variation is seeded by pharmacy and drug
// name, modeling dispensing-fee differences without a PRNG.
func (r *Resolver) Resolve(coverage *formulary.BestCopayResult, p Params) model.CopayRecord {
	// Self-pay: the "insurance price" is the cash price itself.
	if p.Insurance.IsCash() {
		return model.CopayRecord{
			Covered: false,
			Copay:   p.CashPrice,
			Source:  model.CopaySourceModel,
		}
	}

	seed := p.PharmacyName + "|" + p.DrugName

	if coverage != nil {
		copay := coverage.Copay * stablehash.Variation(seed, r.cfg.FormularyVariationPct)
		if copay < r.cfg.MinCopay {
			copay = r.cfg.MinCopay
		}
		return model.CopayRecord{
			Covered:  true,
			Copay:    capAtCash(normalize.Round2(copay), p.CashPrice),
			PlanName: coverage.PlanName,
			TierName: coverage.TierName,
			Source:   model.CopaySourceFormulary,
		}
	}

	planType := ClassifyPlanType(p.Insurance.PlanName, p.Insurance.Description)
	tier := classifyTier(p, r.cfg.SpecialtyPriceThreshold)

	copay := baseCopays[planType][tier-1]
	if planType == PlanHDHP && !p.DeductibleMet {
		copay *= r.cfg.HDHPDeductibleMultiplier
	}
	copay *= stablehash.Variation(seed, r.cfg.ModelVariationPct)

	return model.CopayRecord{
		Covered:  false,
		Copay:    capAtCash(normalize.Round2(copay), p.CashPrice),
		PlanName: p.Insurance.PlanName,
		TierName: tierName(tier),
		Source:   model.CopaySourceModel,
	}
}

// capAtCash bounds the insurance price at the pharmacy's cash price: a
// copay above the counter price means the patient simply pays cash.
func capAtCash(copay, cashPrice float64) float64 {
	if cashPrice > 0 && copay > cashPrice {
		return cashPrice
	}
	return copay
}

// classifyTier buckets the drug: specialty by price, then brand, then
// generic; drugs that are neither flagged generic nor brand land in tier 2.
func classifyTier(p Params, specialtyThreshold float64) model.Tier {
	switch {
	case p.CashPrice > specialtyThreshold:
		return model.Tier4
	case p.IsBrand:
		return model.Tier3
	case p.IsGeneric:
		return model.Tier1
	default:
		return model.Tier2
	}
}

func tierName(t model.Tier) string {
	switch t {
	case model.Tier1:
		return "Tier 1 (preferred generic)"
	case model.Tier2:
		return "Tier 2 (non-preferred generic)"
	case model.Tier3:
		return "Tier 3 (preferred brand)"
	default:
		return "Tier 4 (specialty)"
	}
}
