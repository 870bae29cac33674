// Package model defines the core types exchanged between the pricing stages.
package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Pharmacy identifies a candidate dispensing pharmacy.
type Pharmacy struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
}

// InsuranceSelection is the plan the patient chose for this search.
type InsuranceSelection struct {
	PlanID      string `json:"plan_id"`
	PlanName    string `json:"plan_name,omitempty"`
	Description string `json:"description,omitempty"`
}

// cashPlanIDs are plan selections that mean "no real coverage".
var cashPlanIDs = map[string]bool{
	"":             true,
	"none":         true,
	"cash":         true,
	"no_insurance": true,
}

// IsCash reports whether the selection denotes self-pay rather than a real plan.
func (s InsuranceSelection) IsCash() bool {
	return cashPlanIDs[strings.ToLower(strings.TrimSpace(s.PlanID))]
}

// PricingRequest is a single price-comparison request. GenericName is derived
// once from MedicationName (see normalize.CleanDrugName) and reused by every
// downstream stage so that all source lookups agree on the drug identity.
type PricingRequest struct {
	MedicationName string             `json:"medication_name"`
	GenericName    string             `json:"generic_name,omitempty"`
	Strength       string             `json:"strength,omitempty"`
	Form           string             `json:"form,omitempty"`
	DaysSupply     int                `json:"days_supply"`
	RXCUI          string             `json:"rxcui,omitempty"`
	Insurance      InsuranceSelection `json:"insurance"`
	DeductibleMet  bool               `json:"deductible_met,omitempty"`
	ZipCode        string             `json:"zip_code,omitempty"`
	Pharmacies     []Pharmacy         `json:"pharmacies"`
}

// Validate checks caller-side contract violations. A failure here is a
// programmer bug, not a data-availability problem, and is the only class of
// input that pricing refuses outright.
func (r *PricingRequest) Validate() error {
	if strings.TrimSpace(r.MedicationName) == "" {
		return eris.New("pricing request: medication name is required")
	}
	if r.DaysSupply <= 0 {
		return eris.Errorf("pricing request: days supply must be positive, got %d", r.DaysSupply)
	}
	if len(r.Pharmacies) == 0 {
		return eris.New("pricing request: at least one pharmacy is required")
	}
	for i, ph := range r.Pharmacies {
		if strings.TrimSpace(ph.Name) == "" {
			return eris.Errorf("pricing request: pharmacy %d has no name", i)
		}
	}
	return nil
}
