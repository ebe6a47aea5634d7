package domain

import "math"

const (
	contingencyRate      = 0.10
	majorWorksFeeRate    = 0.12
	standardWorksFeeRate = 0.05

	// extensionShare is the new floor area added by an extension, as a share
	// of the existing area.
	extensionShare = 0.20
	// extensionValuePerSqft is the value added per square foot of new space.
	extensionValuePerSqft = 550
)

// RenovationScenario is one costed refurbishment option.
type RenovationScenario struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Cost           float64 `json:"cost"`
	Uplift         float64 `json:"uplift"`
	ResultingValue float64 `json:"resulting_value"`
	ROIPct         float64 `json:"roi_pct"`
}

type renovationBenchmark struct {
	name        string
	description string
	costPerSqft float64
	upliftPct   float64 // ignored for the extension
	majorWorks  bool
	extension   bool
}

// renovationBenchmarks are UK average costs, in presentation order.
var renovationBenchmarks = []renovationBenchmark{
	{
		name:        "Cosmetic Refresh",
		description: "Redecoration throughout and new flooring.",
		costPerSqft: 12 + 25,
		upliftPct:   0.10,
	},
	{
		name:        "Light Renovation",
		description: "Cosmetic work plus kitchen and bathroom updates.",
		costPerSqft: 75,
		upliftPct:   0.15,
	},
	{
		name:        "Medium Renovation",
		description: "New kitchen and bathrooms, partial rewiring and replastering.",
		costPerSqft: 120,
		upliftPct:   0.25,
	},
	{
		name:        "Full Renovation",
		description: "Full strip-out, rewire, replumb and layout changes.",
		costPerSqft: 180,
		upliftPct:   0.35,
		majorWorks:  true,
	},
	{
		name:        "Extension",
		description: "Rear or loft extension adding roughly a fifth more floor area.",
		costPerSqft: 200,
		majorWorks:  true,
		extension:   true,
	},
}

// RenovationScenarios costs each benchmark against the profile's floor area
// and valuation. It returns nil when either is unknown.
func RenovationScenarios(p PropertyProfile, v *Valuation) []RenovationScenario {
	if p.FloorAreaSqFt == nil || *p.FloorAreaSqFt <= 0 || v == nil || v.Value <= 0 {
		return nil
	}
	area := *p.FloorAreaSqFt

	out := make([]RenovationScenario, 0, len(renovationBenchmarks))
	for _, b := range renovationBenchmarks {
		var base, uplift float64
		if b.extension {
			extra := area * extensionShare
			base = extra * b.costPerSqft
			uplift = extra * extensionValuePerSqft
		} else {
			base = area * b.costPerSqft
			uplift = v.Value * b.upliftPct
		}

		fees := standardWorksFeeRate
		if b.majorWorks {
			fees = majorWorksFeeRate
		}
		cost := math.Round(base * (1 + contingencyRate + fees))
		uplift = math.Round(uplift)

		out = append(out, RenovationScenario{
			Name:           b.name,
			Description:    b.description,
			Cost:           cost,
			Uplift:         uplift,
			ResultingValue: v.Value + uplift,
			ROIPct:         (uplift - cost) / cost * 100,
		})
	}
	return out
}

// BestScenario returns the scenario with the highest ROI. Ties keep the
// earlier, cheaper option.
func BestScenario(scenarios []RenovationScenario) (RenovationScenario, bool) {
	if len(scenarios) == 0 {
		return RenovationScenario{}, false
	}
	best := scenarios[0]
	for _, s := range scenarios[1:] {
		if s.ROIPct > best.ROIPct {
			best = s
		}
	}
	return best, true
}
