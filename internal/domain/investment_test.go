package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchase(t *testing.T) {
	c := Purchase(500_000)

	assert.Equal(t, 500_000.0, c.Price)
	assert.Equal(t, StampDuty(500_000, true), c.StampDuty)
	assert.Equal(t, 5000.0, c.Legal)
	assert.Equal(t, 1000.0, c.Survey)
	assert.Equal(t, 500_000+c.StampDuty+6000, c.Total)
	assert.InDelta(t, (c.Total-500_000)/500_000*100, c.FeesPct, 1e-9)
}

func TestPurchase_MinimumLegalFee(t *testing.T) {
	c := Purchase(90_000)
	assert.Equal(t, 1500.0, c.Legal)

	zero := Purchase(0)
	assert.Zero(t, zero.FeesPct)
}

func TestNetIncome(t *testing.T) {
	area := 600.0
	costs := Purchase(500_000)

	tests := []struct {
		name      string
		profile   PropertyProfile
		wantCosts float64
	}{
		{
			name:      "leasehold flat pays service charge and ground rent",
			profile:   PropertyProfile{PropertyType: PropertyFlat, Tenure: TenureLeasehold, FloorAreaSqFt: &area},
			wantCosts: 2400 + 2400 + 1000 + 2500 + 1800 + 250,
		},
		{
			name:      "flat of unknown tenure is costed as leasehold",
			profile:   PropertyProfile{PropertyType: PropertyFlat, FloorAreaSqFt: &area},
			wantCosts: 2400 + 2400 + 1000 + 2500 + 1800 + 250,
		},
		{
			name:      "freehold house",
			profile:   PropertyProfile{PropertyType: PropertyTerraced, Tenure: TenureFreehold, FloorAreaSqFt: &area},
			wantCosts: 2400 + 2400 + 1000 + 2500,
		},
		{
			name:      "leasehold without floor area has ground rent only",
			profile:   PropertyProfile{PropertyType: PropertyFlat, Tenure: TenureLeasehold},
			wantCosts: 2400 + 2400 + 1000 + 2500 + 250,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.profile.Rental = &RentalBenchmark{MonthlyRent: 2000}
			got := NetIncome(tt.profile, costs)
			require.NotNil(t, got)

			assert.Equal(t, 24_000.0, got.AnnualRent)
			assert.InDelta(t, tt.wantCosts, got.TotalExpenses, 1e-6)
			assert.InDelta(t, 24_000-tt.wantCosts, got.NetAnnualRent, 1e-6)
			assert.InDelta(t, got.NetAnnualRent/costs.Total*100, got.NetYieldPct, 1e-9)
		})
	}
}

func TestNetIncome_NoRent(t *testing.T) {
	costs := Purchase(300_000)
	assert.Nil(t, NetIncome(PropertyProfile{}, costs))
	assert.Nil(t, NetIncome(PropertyProfile{Rental: &RentalBenchmark{}}, costs))
	assert.Nil(t, NetIncome(PropertyProfile{Rental: &RentalBenchmark{MonthlyRent: 1500}}, PurchaseCosts{}))
}

func TestFinance(t *testing.T) {
	costs := Purchase(500_000)
	f := Finance(costs, 20_000)

	project := costs.Total + 20_000
	assert.Equal(t, project, f.ProjectCost)
	assert.Equal(t, project, f.Loan)
	assert.Zero(t, f.Equity)
	assert.InDelta(t, project*0.01, f.ArrangementFee, 1e-6)
	assert.InDelta(t, project*0.01, f.ExitFee, 1e-6)
	assert.InDelta(t, project*0.14, f.Interest, 1e-6)
	assert.InDelta(t, f.ArrangementFee+f.ExitFee+2000+f.Interest, f.Total, 1e-6)
	assert.Equal(t, 12, f.TermMonths)
	assert.Equal(t, 14.0, f.InterestPct)
}
