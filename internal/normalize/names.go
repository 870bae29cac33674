// Package normalize cleans medication names and money values so that every
// pricing source sees the same drug identity.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// parenthetical brand annotations: "metformin (Glucophage)".
	parenthetical = regexp.MustCompile(`\([^)]*\)`)
	// trailing strength tokens: "500 mg", "0.25mg", "100 mcg/ml", "10 units".
	strengthToken = regexp.MustCompile(`(?i)\b\d+(\.\d+)?\s*(mg|mcg|g|ml|iu|units?|%)(/\s*\d*\.?\d*\s*(mg|mcg|g|ml))?\b`)
	multiSpace    = regexp.MustCompile(`\s+`)
)

// formWords are dosage-form words stripped from display names.
var formWords = []string{
	"tablet", "tablets", "tab", "tabs",
	"capsule", "capsules", "cap", "caps",
	"solution", "suspension", "syrup",
	"injection", "injectable", "injector", "pen",
	"inhaler", "aerosol", "spray",
	"cream", "ointment", "gel", "patch",
	"er", "xr", "sr", "dr", "hcl", "hctz",
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldAccents removes diacritical marks so "sertralína" matches "sertralina".
func foldAccents(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return out
}

// CleanDrugName derives the canonical lookup name from a display name that
// may carry strength, brand, and dosage-form annotations. Derived once per
// request; every cascade layer must use the same cleaned name.
func CleanDrugName(displayName string) string {
	s := strings.ToLower(strings.TrimSpace(displayName))
	s = foldAccents(s)
	s = parenthetical.ReplaceAllString(s, " ")
	s = strengthToken.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		w = strings.Trim(w, ",.-/")
		if w == "" || isFormWord(w) {
			continue
		}
		kept = append(kept, w)
	}

	return strings.TrimSpace(multiSpace.ReplaceAllString(strings.Join(kept, " "), " "))
}

func isFormWord(w string) bool {
	for _, fw := range formWords {
		if w == fw {
			return true
		}
	}
	return false
}

// NormalizeStrength canonicalizes a strength string for table lookups:
// lowercase, no spaces ("500 MG" -> "500mg").
func NormalizeStrength(strength string) string {
	s := strings.ToLower(strings.TrimSpace(strength))
	return strings.ReplaceAll(s, " ", "")
}
