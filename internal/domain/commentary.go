package domain

import "time"

// ValuationSummary is what the curator is shown about a property.
type ValuationSummary struct {
	Address        string   `json:"address"`
	Postcode       string   `json:"postcode"`
	PropertyType   string   `json:"property_type,omitempty"`
	EPCRating      string   `json:"epc_rating,omitempty"`
	FloorAreaSqFt  *float64 `json:"floor_area_sqft,omitempty"`
	LastSalePrice  *float64 `json:"last_sale_price,omitempty"`
	LastSaleDate   string   `json:"last_sale_date,omitempty"`
	EstimatedValue *float64 `json:"estimated_value,omitempty"`
	MonthlyRent    *float64 `json:"monthly_rent,omitempty"`
	GrossYieldPct  *float64 `json:"gross_yield_pct,omitempty"`
	AreaGrowthPct  *float64 `json:"area_growth_pct,omitempty"`
	Score          float64  `json:"score"`
	Category       string   `json:"category"`
}

// Summarize builds the curator input from a scored profile.
func Summarize(p PropertyProfile, s InvestmentScore) ValuationSummary {
	sum := ValuationSummary{
		Address:       p.Address,
		Postcode:      p.Postcode,
		PropertyType:  p.PropertyType.Name(),
		EPCRating:     string(p.EPC),
		FloorAreaSqFt: p.FloorAreaSqFt,
		GrossYieldPct: GrossYield(p),
		AreaGrowthPct: AreaGrowthRate(p.AreaSales),
		Score:         s.Total,
		Category:      s.Category,
	}
	if latest, ok := p.LatestSale(); ok {
		sum.LastSalePrice = ptr(latest.Price)
		sum.LastSaleDate = latest.Date.Format(time.DateOnly)
	}
	if v := Valuate(p); v != nil {
		sum.EstimatedValue = ptr(v.Value)
	}
	if p.Rental != nil {
		sum.MonthlyRent = ptr(p.Rental.MonthlyRent)
	}
	return sum
}

// Confidence levels reported by the curator.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Commentary is the curator's advisory opinion. When Available is false the
// report omits the section; the investment score is never affected.
type Commentary struct {
	Available    bool     `json:"available"`
	Provider     string   `json:"provider,omitempty"`
	Text         string   `json:"text,omitempty"`
	CuratedValue *float64 `json:"curated_value,omitempty"`
	Confidence   string   `json:"confidence,omitempty"`
}

// Unavailable is the marker used when no curator answer could be obtained.
func Unavailable() Commentary {
	return Commentary{}
}
