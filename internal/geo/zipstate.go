// Package geo maps ZIP codes to states for regional price lookups.
package geo

import "strings"

// zipRange assigns a contiguous block of 3-digit ZIP prefixes to a state.
type zipRange struct {
	lo, hi int // inclusive 3-digit prefix bounds
	state  string
}

// zipRanges covers the USPS 3-digit prefix allocation. Blocks assigned to
// military routing or unallocated are omitted.
var zipRanges = []zipRange{
	{5, 5, "NY"}, {6, 9, "PR"},
	{10, 27, "MA"}, {28, 29, "RI"},
	{30, 38, "NH"}, {39, 49, "ME"},
	{50, 54, "VT"}, {55, 55, "MA"}, {56, 56, "VT"}, {57, 59, "VT"},
	{60, 69, "CT"},
	{70, 89, "NJ"},
	{100, 149, "NY"},
	{150, 196, "PA"},
	{197, 199, "DE"},
	{200, 205, "DC"},
	{206, 219, "MD"},
	{220, 246, "VA"},
	{247, 268, "WV"},
	{270, 289, "NC"},
	{290, 299, "SC"},
	{300, 319, "GA"}, {398, 399, "GA"},
	{320, 342, "FL"}, {344, 344, "FL"}, {346, 347, "FL"}, {349, 349, "FL"},
	{350, 369, "AL"},
	{370, 385, "TN"},
	{386, 397, "MS"},
	{400, 427, "KY"},
	{430, 459, "OH"},
	{460, 479, "IN"},
	{480, 499, "MI"},
	{500, 528, "IA"},
	{530, 549, "WI"},
	{550, 567, "MN"},
	{570, 577, "SD"},
	{580, 588, "ND"},
	{590, 599, "MT"},
	{600, 629, "IL"},
	{630, 658, "MO"},
	{660, 679, "KS"},
	{680, 693, "NE"},
	{700, 714, "LA"},
	{716, 729, "AR"},
	{730, 749, "OK"},
	{750, 799, "TX"}, {885, 885, "TX"},
	{800, 816, "CO"},
	{820, 831, "WY"},
	{832, 838, "ID"},
	{840, 847, "UT"},
	{850, 865, "AZ"},
	{870, 884, "NM"},
	{889, 898, "NV"},
	{900, 961, "CA"},
	{967, 968, "HI"},
	{970, 979, "OR"},
	{980, 994, "WA"},
	{995, 999, "AK"},
}

// StateForZip returns the 2-letter state code for a 5-digit ZIP (or any
// string starting with at least 3 digits). Returns "" when the ZIP is
// missing, malformed, or unallocated; callers fall back to a national
// lookup in that case.
func StateForZip(zip string) string {
	zip = strings.TrimSpace(zip)
	if len(zip) < 3 {
		return ""
	}

	prefix := 0
	for _, r := range zip[:3] {
		if r < '0' || r > '9' {
			return ""
		}
		prefix = prefix*10 + int(r-'0')
	}

	for _, zr := range zipRanges {
		if prefix >= zr.lo && prefix <= zr.hi {
			return zr.state
		}
	}
	return ""
}
