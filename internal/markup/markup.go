// Package markup derives deterministic per-pharmacy cash-price multipliers.
package markup

import (
	"strings"

	"github.com/scriptradar/rxquote/internal/normalize"
	"github.com/scriptradar/rxquote/internal/stablehash"
)

// Range is an inclusive-exclusive multiplier interval.
type Range struct {
	Lo float64 `yaml:"lo"`
	Hi float64 `yaml:"hi"`
}

// ChainRange holds the markup intervals for one pharmacy chain, matched by
// substring against the lowercase pharmacy name.
type ChainRange struct {
	Chain   string `yaml:"chain"`
	Generic Range  `yaml:"generic"`
	Brand   Range  `yaml:"brand"`
}

// Ranges is the full markup configuration: ordered chain-specific entries
// plus a default for unmatched pharmacies.
type Ranges struct {
	Chains  []ChainRange `yaml:"chains"`
	Default ChainRange   `yaml:"default"`
}

// DefaultRanges returns the built-in chain markup table. Generic markups
// stay within [1.25, 1.75), brand markups within [3.0, 5.0). Warehouse
// chains carry the narrowest, lowest ranges; large retail chains the widest.
func DefaultRanges() Ranges {
	return Ranges{
		Chains: []ChainRange{
			{Chain: "costco", Generic: Range{1.25, 1.35}, Brand: Range{3.0, 3.4}},
			{Chain: "sam's club", Generic: Range{1.27, 1.38}, Brand: Range{3.0, 3.5}},
			{Chain: "walmart", Generic: Range{1.30, 1.45}, Brand: Range{3.2, 3.7}},
			{Chain: "kroger", Generic: Range{1.35, 1.55}, Brand: Range{3.3, 4.0}},
			{Chain: "safeway", Generic: Range{1.38, 1.58}, Brand: Range{3.4, 4.1}},
			{Chain: "rite aid", Generic: Range{1.45, 1.65}, Brand: Range{3.5, 4.5}},
			{Chain: "walgreens", Generic: Range{1.45, 1.70}, Brand: Range{3.6, 4.6}},
			{Chain: "cvs", Generic: Range{1.50, 1.75}, Brand: Range{3.8, 5.0}},
		},
		Default: ChainRange{Generic: Range{1.40, 1.60}, Brand: Range{3.4, 4.4}},
	}
}

// Model computes cash prices from wholesale cost. It is pure: the same
// pharmacy name and brand flag always yield the identical multiplier.
type Model struct {
	ranges Ranges
}

// NewModel creates a markup model over the given ranges.
func NewModel(ranges Ranges) *Model {
	return &Model{ranges: ranges}
}

// rangeFor picks the chain entry matching the pharmacy name.
func (m *Model) rangeFor(pharmacyName string, isBrand bool) Range {
	lower := strings.ToLower(pharmacyName)
	for _, cr := range m.ranges.Chains {
		if strings.Contains(lower, cr.Chain) {
			if isBrand {
				return cr.Brand
			}
			return cr.Generic
		}
	}
	if isBrand {
		return m.ranges.Default.Brand
	}
	return m.ranges.Default.Generic
}

// Multiplier returns the deterministic cash-price multiplier for a pharmacy.
func (m *Model) Multiplier(pharmacyName string, isBrand bool) float64 {
	r := m.rangeFor(pharmacyName, isBrand)
	return stablehash.Interpolate(pharmacyName, r.Lo, r.Hi)
}

// CashPrice applies the pharmacy's multiplier to the wholesale cost and
// rounds to cents.
func (m *Model) CashPrice(wholesale float64, pharmacyName string, isBrand bool) float64 {
	return normalize.Round2(wholesale * m.Multiplier(pharmacyName, isBrand))
}
