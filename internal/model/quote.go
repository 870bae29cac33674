package model

// CopayRecord is the resolved insurance cost share for the request's drug.
type CopayRecord struct {
	Covered  bool    `json:"covered"`
	Copay    float64 `json:"copay"`
	PlanName string  `json:"plan_name,omitempty"`
	TierName string  `json:"tier_name,omitempty"`
	// Source is "formulary" when real coverage was found, "model" when the
	// tier/plan-type fallback produced the figure.
	Source string `json:"source"`
}

// Copay record sources.
const (
	CopaySourceFormulary = "formulary"
	CopaySourceModel     = "model"
)

// CouponOffer is a discount-card price available at a pharmacy.
type CouponOffer struct {
	Provider string  `json:"provider"`
	Price    float64 `json:"price"`
	Savings  float64 `json:"savings"`
}

// BestOption tags the cheapest way to pay at a pharmacy.
type BestOption string

// Payment options, in tie-break priority order.
const (
	BestOptionMembership BestOption = "membership"
	BestOptionCoupon     BestOption = "coupon"
	BestOptionInsurance  BestOption = "insurance"
	BestOptionCash       BestOption = "cash"
)

// PharmacyQuote is the complete price quote for one pharmacy. It carries
// every figure the comparison UI needs so callers never re-derive pricing.
type PharmacyQuote struct {
	Pharmacy        Pharmacy     `json:"pharmacy"`
	CashPrice       float64      `json:"cash_price"`
	InsurancePrice  float64      `json:"insurance_price"`
	MembershipPrice float64      `json:"membership_price"`
	Coupon          *CouponOffer `json:"coupon,omitempty"`
	Savings         float64      `json:"savings"`
	BestOption      BestOption   `json:"best_option"`
	Copay           CopayRecord  `json:"copay"`
	Provenance      Provenance   `json:"provenance"`
	Estimated       bool         `json:"estimated,omitempty"`
}

// QuoteResult is the full response for a pricing request.
type QuoteResult struct {
	RequestID   string              `json:"request_id"`
	Medication  string              `json:"medication"`
	GenericName string              `json:"generic_name"`
	Dosing      DosingProfile       `json:"dosing"`
	Wholesale   WholesaleResolution `json:"wholesale"`
	ActualUnits int                 `json:"actual_units"`
	Quotes      []PharmacyQuote     `json:"quotes"`
}
