package domain

import (
	"math"
	"time"
)

// ForecastYears is the length of the rental forecast.
const ForecastYears = 5

// RentPoint is one year of the rental forecast.
type RentPoint struct {
	Year        int     `json:"year"`
	MonthlyRent float64 `json:"monthly_rent"`
	AnnualRent  float64 `json:"annual_rent"`
}

// ForecastRent compounds the benchmark rent by its annual growth for the
// years following asOf. It returns nil when rent or growth is unknown.
func ForecastRent(r *RentalBenchmark, asOf time.Time) []RentPoint {
	if r == nil || r.MonthlyRent <= 0 || r.AnnualGrowthPct == nil {
		return nil
	}
	g := *r.AnnualGrowthPct / 100

	out := make([]RentPoint, 0, ForecastYears)
	for i := 1; i <= ForecastYears; i++ {
		monthly := math.Round(r.MonthlyRent * math.Pow(1+g, float64(i)))
		out = append(out, RentPoint{
			Year:        asOf.Year() + i,
			MonthlyRent: monthly,
			AnnualRent:  monthly * 12,
		})
	}
	return out
}
