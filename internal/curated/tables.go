// Package curated holds the hand-maintained generic and brand pricing
// tables. Both are embedded, parsed once at startup, and read-only after
// load.
package curated

import (
	_ "embed"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/scriptradar/rxquote/internal/model"
	"github.com/scriptradar/rxquote/internal/normalize"
)

//go:embed generics.yaml
var genericsYAML []byte

//go:embed brands.yaml
var brandsYAML []byte

// GenericEntry is one row of the curated generic price table.
type GenericEntry struct {
	Name      string  `yaml:"name"`
	Strength  string  `yaml:"strength"`
	Form      string  `yaml:"form"`
	UnitPrice float64 `yaml:"unit_price"`
}

// BrandEntry is one row of the curated brand table.
type BrandEntry struct {
	GenericName string     `yaml:"generic_name"`
	BrandName   string     `yaml:"brand_name"`
	UnitPrice   float64    `yaml:"unit_price"`
	Tier        model.Tier `yaml:"tier"`
	IsBrand     bool       `yaml:"is_brand"`
}

// Tables bundles both curated lookups.
type Tables struct {
	generics []GenericEntry
	brands   []BrandEntry
}

// Load parses the embedded tables.
func Load() (*Tables, error) {
	var gdoc struct {
		Generics []GenericEntry `yaml:"generics"`
	}
	if err := yaml.Unmarshal(genericsYAML, &gdoc); err != nil {
		return nil, eris.Wrap(err, "curated: parse generics table")
	}

	var bdoc struct {
		Brands []BrandEntry `yaml:"brands"`
	}
	if err := yaml.Unmarshal(brandsYAML, &bdoc); err != nil {
		return nil, eris.Wrap(err, "curated: parse brands table")
	}

	return &Tables{generics: gdoc.Generics, brands: bdoc.Brands}, nil
}

// LookupGeneric finds a curated generic price by name, strength and form.
// Match order: exact name+strength+form, exact name+strength, then name-only
// (first row for the drug). Returns nil when the drug is not curated.
func (t *Tables) LookupGeneric(name, strength, form string) *GenericEntry {
	name = strings.ToLower(strings.TrimSpace(name))
	strength = normalize.NormalizeStrength(strength)
	form = strings.ToLower(strings.TrimSpace(form))
	if name == "" {
		return nil
	}

	var nameOnly *GenericEntry
	var nameStrength *GenericEntry
	for i := range t.generics {
		e := &t.generics[i]
		if e.Name != name {
			continue
		}
		if nameOnly == nil {
			nameOnly = e
		}
		if strength != "" && normalize.NormalizeStrength(e.Strength) == strength {
			if nameStrength == nil {
				nameStrength = e
			}
			if form == "" || e.Form == form {
				return e
			}
		}
	}
	if nameStrength != nil {
		return nameStrength
	}
	return nameOnly
}

// LookupBrand finds a curated brand row by substring match on either the
// generic or the brand name. Returns nil when not found.
func (t *Tables) LookupBrand(name string) *BrandEntry {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil
	}

	for i := range t.brands {
		e := &t.brands[i]
		generic := strings.ToLower(e.GenericName)
		brand := strings.ToLower(e.BrandName)
		if strings.Contains(name, generic) || strings.Contains(generic, name) ||
			strings.Contains(name, brand) || strings.Contains(brand, name) {
			return e
		}
	}
	return nil
}
