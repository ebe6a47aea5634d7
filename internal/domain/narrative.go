package domain

import (
	"fmt"
	"math"
	"strings"
)

// Disclaimer is printed at the foot of every report.
const Disclaimer = "This report is provided for educational purposes only and is not a substitute " +
	"for professional advice. Its accuracy and applicability to your circumstances are not " +
	"guaranteed. All figures are estimates derived from public Land Registry, EPC, " +
	"OpenStreetMap and ONS data and may not reflect actual results."

func propertyNoun(p PropertyProfile) string {
	if name := p.PropertyType.Name(); name != "" && p.PropertyType != PropertyOther {
		return strings.ToLower(name) + " property"
	}
	return "property"
}

// InvestmentAdvice returns the headline recommendation for the score band.
func InvestmentAdvice(p PropertyProfile, s InvestmentScore) string {
	noun := propertyNoun(p)
	switch {
	case s.Total >= 80:
		text := fmt.Sprintf("This %s is an excellent BTR opportunity.", noun)
		if y := GrossYield(p); y != nil {
			text += fmt.Sprintf(" The estimated gross yield of %.1f%% is strong.", *y)
		}
		return text + " Scores are high across the available metrics, pointing to a dependable long-term hold."
	case s.Total >= 70:
		return fmt.Sprintf("This %s is a good BTR opportunity. Minor improvements could lift returns further, "+
			"and its location and growth outlook suit a long-term rental portfolio.", noun)
	case s.Total >= 60:
		return fmt.Sprintf("This %s is an above-average BTR opportunity. It is not exceptional on every measure, "+
			"so concentrate on the strongest components of the score breakdown.", noun)
	case s.Total >= 50:
		return fmt.Sprintf("This %s has average BTR potential. Moderate renovation may improve both yield and "+
			"capital growth; review the individual components to see where it falls short.", noun)
	case s.Total >= 40:
		return fmt.Sprintf("This %s has below-average BTR potential as it stands. Substantial improvement or a "+
			"lower purchase price would be needed for it to compete with stronger stock.", noun)
	default:
		return fmt.Sprintf("This %s is unlikely to suit a BTR strategy in its current state. Properties with "+
			"stronger yield and growth scores are likely to be better investments.", noun)
	}
}

// transportLinks describes public transport coverage from the amenity count.
func transportLinks(p PropertyProfile) string {
	if p.Amenities == nil {
		return ""
	}
	switch n := p.Amenities[AmenityTransport]; {
	case n >= 10:
		return "excellent"
	case n >= 5:
		return "good"
	case n >= 1:
		return "adequate"
	default:
		return "limited"
	}
}

// MarketCommentary summarises the local market from the data that is present.
func MarketCommentary(p PropertyProfile) string {
	area := p.District()
	if area == "" {
		area = "The area"
	}

	var parts []string
	if t := transportLinks(p); t != "" {
		parts = append(parts, fmt.Sprintf("%s has %s public transport links, a key driver of rental demand.", area, t))
	}
	if g := AreaGrowthRate(p.AreaSales); g != nil {
		direction := "risen"
		if *g < 0 {
			direction = "fallen"
		}
		parts = append(parts, fmt.Sprintf("Sale prices in %s have %s by about %.1f%% a year over the recorded period.",
			area, direction, math.Abs(*g)))
	}
	if p.Rental != nil {
		rent := fmt.Sprintf("The ONS median private rent for %s is £%s a month", orDefault(p.Rental.AreaName, p.AdminDistrict, "the local authority"), FormatPounds(p.Rental.MonthlyRent))
		if p.Rental.AnnualGrowthPct != nil {
			rent += fmt.Sprintf(", growing at %.1f%% a year", *p.Rental.AnnualGrowthPct)
		}
		parts = append(parts, rent+".")
	}
	if len(parts) == 0 {
		return "Not enough market data was available to comment on the local market."
	}
	return strings.Join(parts, " ")
}

// RenovationAdvice recommends the best-returning scenario, if any.
func RenovationAdvice(p PropertyProfile, scenarios []RenovationScenario) string {
	best, ok := BestScenario(scenarios)
	if !ok {
		return "Without a recorded floor area and valuation no scenarios could be costed. Neutral decor, " +
			"good quality kitchen and bathroom fittings and energy efficiency upgrades are the usual levers " +
			"for rental appeal."
	}
	text := fmt.Sprintf("A %s offers the best estimated return on this %s at %.1f%% ROI.",
		strings.ToLower(best.Name), propertyNoun(p), best.ROIPct)
	if best.ROIPct <= 0 {
		text += " No scenario recovers its cost through value uplift alone, so works should be justified by rent."
	}
	switch p.EPC {
	case EPCD, EPCE, EPCF, EPCG:
		text += fmt.Sprintf(" The current EPC band %s leaves room for efficiency improvements ahead of tighter rental standards.", p.EPC)
	}
	return text
}

func orDefault(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// FormatPounds renders a whole-pound amount with thousands separators.
func FormatPounds(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.0f", v)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
