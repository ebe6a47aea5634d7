package domain

import (
	"math"
	"time"
)

// Valuation basis values.
const (
	BasisLatestSale = "latest sale"
	BasisIndexed    = "latest sale indexed to area growth"
)

// Valuation is the estimated current value of the subject property.
type Valuation struct {
	Value      float64   `json:"value"`
	BasisPrice float64   `json:"basis_price"`
	BasisDate  time.Time `json:"basis_date"`
	GrowthPct  *float64  `json:"growth_pct,omitempty"`
	Basis      string    `json:"basis"`
}

// Valuate estimates the property's value at p.AsOf from its latest recorded
// sale, compounded by the district growth rate when one is known. Values are
// rounded to the nearest £1,000. It returns nil when there is no sale.
func Valuate(p PropertyProfile) *Valuation {
	latest, ok := p.LatestSale()
	if !ok {
		return nil
	}

	v := &Valuation{
		Value:      latest.Price,
		BasisPrice: latest.Price,
		BasisDate:  latest.Date,
		Basis:      BasisLatestSale,
	}

	growth := AreaGrowthRate(p.AreaSales)
	years := p.AsOf.Sub(latest.Date).Hours() / 24 / 365.25
	if growth != nil && years > 0 {
		v.GrowthPct = growth
		v.Value = latest.Price * math.Pow(1+*growth/100, years)
		v.Basis = BasisIndexed
	}
	v.Value = math.Round(v.Value/1000) * 1000
	return v
}

// stampDutyBands are the residential SDLT thresholds and marginal rates.
var stampDutyBands = []struct {
	upTo float64
	rate float64
}{
	{125_000, 0},
	{250_000, 0.02},
	{925_000, 0.05},
	{1_500_000, 0.10},
	{math.Inf(1), 0.12},
}

// additionalDwellingSurcharge applies to every band for second homes and
// buy-to-let purchases.
const additionalDwellingSurcharge = 0.03

// StampDuty returns the SDLT payable on price. additional adds the
// additional-dwelling surcharge, which always applies to a BTR purchase.
func StampDuty(price float64, additional bool) float64 {
	if price <= 0 {
		return 0
	}
	duty, lower := 0.0, 0.0
	for _, b := range stampDutyBands {
		if price <= lower {
			break
		}
		slice := math.Min(price, b.upTo) - lower
		rate := b.rate
		if additional {
			rate += additionalDwellingSurcharge
		}
		duty += slice * rate
		lower = b.upTo
	}
	return math.Round(duty)
}
