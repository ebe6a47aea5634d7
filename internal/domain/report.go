package domain

import "time"

// Report is the assembled output of one pipeline run, consumed once by the
// renderer.
type Report struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`

	Profile       PropertyProfile      `json:"profile"`
	Score         InvestmentScore      `json:"score"`
	Valuation     *Valuation           `json:"valuation,omitempty"`
	GrossYieldPct *float64             `json:"gross_yield_pct,omitempty"`
	StampDuty     *float64             `json:"stamp_duty,omitempty"`
	Purchase      *PurchaseCosts       `json:"purchase,omitempty"`
	Income        *RentalIncome        `json:"income,omitempty"`
	Financing     *Financing           `json:"financing,omitempty"`
	Scenarios     []RenovationScenario `json:"scenarios,omitempty"`
	Forecast      []RentPoint          `json:"forecast,omitempty"`
	Commentary    Commentary           `json:"commentary"`

	InvestmentAdvice string `json:"investment_advice"`
	MarketCommentary string `json:"market_commentary"`
	RenovationAdvice string `json:"renovation_advice"`
	Disclaimer       string `json:"disclaimer"`
}

// BuildReport assembles a report from a scored profile. It derives the
// valuation, purchase costs and rent forecast from the profile and picks the
// narrative text; it performs no I/O.
func BuildReport(id string, generatedAt time.Time, p PropertyProfile, s InvestmentScore, scenarios []RenovationScenario, c Commentary) Report {
	r := Report{
		ID:               id,
		GeneratedAt:      generatedAt,
		Profile:          p,
		Score:            s,
		Valuation:        Valuate(p),
		GrossYieldPct:    GrossYield(p),
		Scenarios:        scenarios,
		Forecast:         ForecastRent(p.Rental, p.AsOf),
		Commentary:       c,
		InvestmentAdvice: InvestmentAdvice(p, s),
		MarketCommentary: MarketCommentary(p),
		RenovationAdvice: RenovationAdvice(p, scenarios),
		Disclaimer:       Disclaimer,
	}
	if r.Valuation != nil {
		pc := Purchase(r.Valuation.Value)
		r.Purchase = &pc
		r.StampDuty = ptr(pc.StampDuty)
		r.Income = NetIncome(p, pc)

		// Works are financed only when the best scenario pays for itself.
		var works float64
		if best, ok := BestScenario(scenarios); ok && best.ROIPct > 0 {
			works = best.Cost
		}
		r.Financing = ptr(Finance(pc, works))
	}
	return r
}
