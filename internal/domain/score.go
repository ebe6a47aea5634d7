package domain

import (
	"math"
	"slices"
)

// Score component names.
const (
	ComponentYield     = "yield"
	ComponentGrowth    = "growth"
	ComponentCondition = "condition"
	ComponentAmenities = "amenities"
)

// NeutralScore is returned when no component has data.
const NeutralScore = 50.0

// componentWeights lists the base weights in presentation order.
var componentWeights = []struct {
	name   string
	weight float64
}{
	{ComponentYield, 0.35},
	{ComponentGrowth, 0.25},
	{ComponentCondition, 0.20},
	{ComponentAmenities, 0.20},
}

var epcConditionScore = map[EPCRating]float64{
	EPCA: 100, EPCB: 85, EPCC: 70, EPCD: 55, EPCE: 40, EPCF: 25, EPCG: 10,
}

// InvestmentScore is the 0–100 BTR score for a profile.
//
// Weights holds the effective weights after renormalisation over the
// available components, so Total is always clamp(Σ Weights[c]·Components[c]).
type InvestmentScore struct {
	Total      float64            `json:"total"`
	Components map[string]float64 `json:"components"`
	Weights    map[string]float64 `json:"weights"`
	Missing    []string           `json:"missing,omitempty"`
	Category   string             `json:"category"`
}

// Score computes the investment score for a profile. Components whose inputs
// are missing are left out and the remaining weights are scaled up to sum to
// one; a missing component is never scored as zero.
func Score(p PropertyProfile) InvestmentScore {
	raw := map[string]*float64{
		ComponentYield:     yieldScore(p),
		ComponentGrowth:    growthScore(p),
		ComponentCondition: conditionScore(p),
		ComponentAmenities: amenityScore(p),
	}

	s := InvestmentScore{
		Components: make(map[string]float64, len(raw)),
		Weights:    make(map[string]float64, len(raw)),
	}

	available := 0.0
	for _, cw := range componentWeights {
		v := raw[cw.name]
		if v == nil {
			s.Missing = append(s.Missing, cw.name)
			continue
		}
		s.Components[cw.name] = clamp(*v, 0, 100)
		available += cw.weight
	}

	if available == 0 {
		s.Total = NeutralScore
		s.Category = ScoreCategory(s.Total)
		return s
	}

	total := 0.0
	for _, cw := range componentWeights {
		c, ok := s.Components[cw.name]
		if !ok {
			continue
		}
		w := cw.weight / available
		s.Weights[cw.name] = w
		total += w * c
	}
	s.Total = clamp(total, 0, 100)
	s.Category = ScoreCategory(s.Total)
	return s
}

// ScoreCategory maps a total onto its descriptive band.
func ScoreCategory(total float64) string {
	switch {
	case total >= 80:
		return "Excellent"
	case total >= 70:
		return "Good"
	case total >= 60:
		return "Above Average"
	case total >= 50:
		return "Average"
	case total >= 40:
		return "Below Average"
	default:
		return "Poor"
	}
}

// GrossYield returns annual rent as a percentage of the estimated value.
func GrossYield(p PropertyProfile) *float64 {
	v := Valuate(p)
	if v == nil || v.Value <= 0 || p.Rental == nil || p.Rental.MonthlyRent <= 0 {
		return nil
	}
	return ptr(p.Rental.MonthlyRent * 12 / v.Value * 100)
}

func yieldScore(p PropertyProfile) *float64 {
	y := GrossYield(p)
	if y == nil {
		return nil
	}
	return ptr(linear(*y, 2, 8))
}

func growthScore(p PropertyProfile) *float64 {
	g := AreaGrowthRate(p.AreaSales)
	if g == nil {
		return nil
	}
	return ptr(linear(*g, -2, 8))
}

func conditionScore(p PropertyProfile) *float64 {
	v, ok := epcConditionScore[p.EPC]
	if !ok {
		return nil
	}
	return ptr(v)
}

func amenityScore(p PropertyProfile) *float64 {
	if p.Amenities == nil {
		return nil
	}
	density := float64(min(p.AmenityTotal(), 30)) / 30 * 70
	distinct := 0
	for _, c := range AmenityCategories {
		if p.Amenities[c] > 0 {
			distinct++
		}
	}
	spread := float64(distinct) / float64(len(AmenityCategories)) * 30
	return ptr(density + spread)
}

// AreaGrowthRate returns the annualised change in median sale price across
// the years covered by sales, in percent. It needs sales in at least two
// distinct calendar years.
func AreaGrowthRate(sales []SaleRecord) *float64 {
	byYear := map[int][]float64{}
	for _, r := range sales {
		if validSale(r) {
			byYear[r.Date.Year()] = append(byYear[r.Date.Year()], r.Price)
		}
	}
	if len(byYear) < 2 {
		return nil
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	slices.Sort(years)
	first, last := years[0], years[len(years)-1]

	start, end := median(byYear[first]), median(byYear[last])
	if start <= 0 {
		return nil
	}
	rate := (math.Pow(end/start, 1/float64(last-first)) - 1) * 100
	return ptr(rate)
}

func median(xs []float64) float64 {
	s := slices.Clone(xs)
	slices.Sort(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// linear maps x from [lo, hi] onto [0, 100], clamped.
func linear(x, lo, hi float64) float64 {
	return clamp((x-lo)/(hi-lo)*100, 0, 100)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
