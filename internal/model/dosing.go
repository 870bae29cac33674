package model

// Frequency classifies how often a medication is administered.
type Frequency string

// Administration frequencies.
const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyMonthly  Frequency = "monthly"
	FrequencyAsNeeded Frequency = "as_needed"
)

// DosingProfile describes a medication's administration schedule. It is
// computed once per request and never mutated afterwards.
type DosingProfile struct {
	Frequency      Frequency `json:"frequency"`
	DaysPerUnit    int       `json:"days_per_unit"`
	UnitsPer30Days int       `json:"units_per_30_days"`
	Description    string    `json:"description,omitempty"`
}

// IsDaily reports whether one unit covers one day of therapy.
func (p DosingProfile) IsDaily() bool {
	return p.DaysPerUnit <= 1
}
