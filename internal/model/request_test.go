package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPricingRequestValidate(t *testing.T) {
	t.Parallel()

	valid := func() PricingRequest {
		return PricingRequest{
			MedicationName: "Metformin 500mg",
			GenericName:    "metformin",
			DaysSupply:     30,
			Pharmacies:     []Pharmacy{{Name: "CVS Pharmacy"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*PricingRequest)
		wantErr string
	}{
		{
			name:   "valid request",
			mutate: func(r *PricingRequest) {},
		},
		{
			name:    "missing medication name",
			mutate:  func(r *PricingRequest) { r.MedicationName = "  " },
			wantErr: "medication name",
		},
		{
			name:    "zero days supply",
			mutate:  func(r *PricingRequest) { r.DaysSupply = 0 },
			wantErr: "days supply",
		},
		{
			name:    "negative days supply",
			mutate:  func(r *PricingRequest) { r.DaysSupply = -7 },
			wantErr: "days supply",
		},
		{
			name:    "no pharmacies",
			mutate:  func(r *PricingRequest) { r.Pharmacies = nil },
			wantErr: "at least one pharmacy",
		},
		{
			name:    "unnamed pharmacy",
			mutate:  func(r *PricingRequest) { r.Pharmacies = []Pharmacy{{Name: ""}} },
			wantErr: "has no name",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := valid()
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestInsuranceSelectionIsCash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		planID string
		want   bool
	}{
		{"", true},
		{"none", true},
		{"cash", true},
		{"no_insurance", true},
		{"NO_INSURANCE", true},
		{"  cash  ", true},
		{"bcbs_ppo_standard", false},
		{"aetna_hmo", false},
	}

	for _, tt := range tests {
		sel := InsuranceSelection{PlanID: tt.planID}
		assert.Equal(t, tt.want, sel.IsCash(), "plan id %q", tt.planID)
	}
}
