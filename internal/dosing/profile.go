// Package dosing classifies medication administration frequency and converts
// days-supply requests into dispensed-unit counts.
package dosing

import (
	_ "embed"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/scriptradar/rxquote/internal/model"
)

//go:embed schedules.yaml
var schedulesYAML []byte

// scheduleEntry is one row of the embedded schedule table.
type scheduleEntry struct {
	Match          []string        `yaml:"match"`
	Frequency      model.Frequency `yaml:"frequency"`
	DaysPerUnit    int             `yaml:"days_per_unit"`
	UnitsPer30Days int             `yaml:"units_per_30_days"`
	Description    string          `yaml:"description"`
}

// Resolver resolves dosing profiles from the static schedule table plus
// form-based heuristics. The table is loaded once and never mutated.
type Resolver struct {
	entries []scheduleEntry
}

// NewResolver parses the embedded schedule table.
func NewResolver() (*Resolver, error) {
	var doc struct {
		Schedules []scheduleEntry `yaml:"schedules"`
	}
	if err := yaml.Unmarshal(schedulesYAML, &doc); err != nil {
		return nil, eris.Wrap(err, "dosing: parse schedule table")
	}
	return &Resolver{entries: doc.Schedules}, nil
}

// defaultProfile is daily, one unit per day.
func defaultProfile(description string) model.DosingProfile {
	return model.DosingProfile{
		Frequency:      model.FrequencyDaily,
		DaysPerUnit:    1,
		UnitsPer30Days: 30,
		Description:    description,
	}
}

// Resolve classifies a medication's administration frequency. The cleaned
// generic name is matched (case-insensitive substring) against the schedule
// table; if nothing matches, the dosage form is inspected; the final default
// is a daily profile.
func (r *Resolver) Resolve(genericName, form string) model.DosingProfile {
	name := strings.ToLower(strings.TrimSpace(genericName))

	for _, e := range r.entries {
		for _, m := range e.Match {
			if m != "" && strings.Contains(name, m) {
				return model.DosingProfile{
					Frequency:      e.Frequency,
					DaysPerUnit:    e.DaysPerUnit,
					UnitsPer30Days: e.UnitsPer30Days,
					Description:    e.Description,
				}
			}
		}
	}

	f := strings.ToLower(form)
	switch {
	case strings.Contains(f, "injection") || strings.Contains(f, "pen injector"):
		if strings.Contains(name, "weekly") {
			return model.DosingProfile{
				Frequency:      model.FrequencyWeekly,
				DaysPerUnit:    7,
				UnitsPer30Days: 4,
				Description:    "Weekly injection",
			}
		}
		return defaultProfile("Daily injection")
	case strings.Contains(f, "inhaler") || strings.Contains(f, "aerosol"):
		return defaultProfile("Daily inhaler")
	}

	return defaultProfile("Daily dose")
}

// conventionalDaysSupply are the requested values reinterpreted as
// days-supply for non-daily drugs. Any other value is assumed to already
// mean dispensed units and passes through unchanged. The set is deliberate
// legacy behavior; a true 30-unit prescription of a weekly drug is
// indistinguishable from a 30-day request and will be converted. Pending
// product clarification, do not widen or shrink this set.
var conventionalDaysSupply = map[int]bool{28: true, 30: true, 90: true}

// AdjustQuantity converts a requested days-supply into the actual number of
// dispensed units for the profile. Daily profiles pass through unchanged.
func AdjustQuantity(requestedDays int, profile model.DosingProfile) int {
	if profile.IsDaily() {
		return requestedDays
	}
	if !conventionalDaysSupply[requestedDays] {
		return requestedDays
	}
	units := math.Ceil(float64(requestedDays) / 30.0 * float64(profile.UnitsPer30Days))
	return int(units)
}
