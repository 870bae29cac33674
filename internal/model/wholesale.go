package model

// Provenance identifies which cascade layer produced a wholesale figure.
// It is diagnostic metadata only; no pricing math depends on it.
type Provenance string

// Wholesale data sources, in cascade priority order.
const (
	ProvenanceCuratedGeneric Provenance = "curated_generic"
	ProvenanceCuratedBrand   Provenance = "curated_brand"
	ProvenanceCostPlus       Provenance = "costplus"
	ProvenanceAcqSpending    Provenance = "acquisition_spending"
	ProvenanceAcquisition    Provenance = "acquisition"
	ProvenanceSpending       Provenance = "spending"
	ProvenanceRegionalClaims Provenance = "regional_claims"
	ProvenanceFlatEstimate   Provenance = "flat_estimate"
)

// Tier is a coarse formulary cost-sharing category (1 = preferred generic,
// 4 = specialty).
type Tier int

// Formulary tiers.
const (
	Tier1 Tier = 1
	Tier2 Tier = 2
	Tier3 Tier = 3
	Tier4 Tier = 4
)

// WholesaleResolution is the single wholesale (acquisition) cost basis for a
// request. Exactly one resolution is computed per request and shared across
// every pharmacy, so two pharmacies quoting the same drug can differ only by
// markup, never by wholesale basis.
type WholesaleResolution struct {
	// Cost is the wholesale cost for the actual (frequency-adjusted) quantity.
	Cost       float64    `json:"cost"`
	IsBrand    bool       `json:"is_brand"`
	Tier       Tier       `json:"tier"`
	Provenance Provenance `json:"provenance"`
	// Estimated marks the flat per-unit fallback so callers may render a
	// "pricing estimated" indicator.
	Estimated bool `json:"estimated,omitempty"`
}
