package domain

import "math"

// Acquisition cost assumptions.
const (
	legalFeeRate = 0.01
	minLegalFee  = 1500
	surveyFee    = 1000
)

// Holding cost assumptions for a let property.
const (
	managementFeeRate    = 0.10
	maintenanceRate      = 0.10
	voidMonthsPerYear    = 0.5
	insuranceRate        = 0.005
	serviceChargePerSqFt = 3
	groundRent           = 250
)

// Bridging finance assumptions: full loan to cost over a 12 month term.
const (
	financeInterestRate = 0.14
	financeLoanToCost   = 1.0
	financeTermMonths   = 12
	arrangementFeeRate  = 0.01
	exitFeeRate         = 0.01
	financeLegalCosts   = 2000
)

// PurchaseCosts is the cash needed to acquire the property at its valuation.
type PurchaseCosts struct {
	Price     float64 `json:"price"`
	StampDuty float64 `json:"stamp_duty"`
	Legal     float64 `json:"legal"`
	Survey    float64 `json:"survey"`
	// Total is the price plus every fee.
	Total float64 `json:"total"`
	// FeesPct is the fees as a percentage of the price.
	FeesPct float64 `json:"fees_pct"`
}

// Purchase prices a BTR acquisition at price, including the
// additional-dwelling stamp duty surcharge.
func Purchase(price float64) PurchaseCosts {
	c := PurchaseCosts{
		Price:     price,
		StampDuty: StampDuty(price, true),
		Legal:     math.Round(math.Max(price*legalFeeRate, minLegalFee)),
		Survey:    surveyFee,
	}
	fees := c.StampDuty + c.Legal + c.Survey
	c.Total = price + fees
	if price > 0 {
		c.FeesPct = fees / price * 100
	}
	return c
}

// RentalIncome is the annual rent net of running costs.
type RentalIncome struct {
	AnnualRent    float64 `json:"annual_rent"`
	ManagementFee float64 `json:"management_fee"`
	Maintenance   float64 `json:"maintenance"`
	Voids         float64 `json:"voids"`
	Insurance     float64 `json:"insurance"`
	ServiceCharge float64 `json:"service_charge"`
	GroundRent    float64 `json:"ground_rent"`
	TotalExpenses float64 `json:"total_expenses"`
	NetAnnualRent float64 `json:"net_annual_rent"`
	// NetYieldPct is the net rent over the total purchase cost.
	NetYieldPct float64 `json:"net_yield_pct"`
}

// Leasehold reports whether the property should be costed as leasehold.
// Flats of unknown tenure are treated as leasehold.
func (p PropertyProfile) Leasehold() bool {
	switch p.Tenure {
	case TenureLeasehold:
		return true
	case TenureFreehold:
		return false
	default:
		return p.PropertyType == PropertyFlat
	}
}

// NetIncome derives running costs from the ONS benchmark rent for a
// property bought at the given costs. It returns nil when the rent is
// unknown.
func NetIncome(p PropertyProfile, costs PurchaseCosts) *RentalIncome {
	if p.Rental == nil || p.Rental.MonthlyRent <= 0 || costs.Total <= 0 {
		return nil
	}
	annual := p.Rental.MonthlyRent * 12
	r := &RentalIncome{
		AnnualRent:    annual,
		ManagementFee: annual * managementFeeRate,
		Maintenance:   annual * maintenanceRate,
		Voids:         annual * voidMonthsPerYear / 12,
		Insurance:     costs.Price * insuranceRate,
	}
	if p.Leasehold() {
		r.GroundRent = groundRent
		if p.FloorAreaSqFt != nil {
			r.ServiceCharge = *p.FloorAreaSqFt * serviceChargePerSqFt
		}
	}
	r.TotalExpenses = r.ManagementFee + r.Maintenance + r.Voids + r.Insurance + r.ServiceCharge + r.GroundRent
	r.NetAnnualRent = annual - r.TotalExpenses
	r.NetYieldPct = r.NetAnnualRent / costs.Total * 100
	return r
}

// Financing is the cost of funding a project with bridging finance.
type Financing struct {
	ProjectCost    float64 `json:"project_cost"`
	Loan           float64 `json:"loan"`
	Equity         float64 `json:"equity"`
	ArrangementFee float64 `json:"arrangement_fee"`
	ExitFee        float64 `json:"exit_fee"`
	Legal          float64 `json:"legal"`
	Interest       float64 `json:"interest"`
	Total          float64 `json:"total"`
	InterestPct    float64 `json:"interest_pct"`
	TermMonths     int     `json:"term_months"`
}

// Finance prices bridging finance over the acquisition plus the cost of
// works, simple interest over the term.
func Finance(costs PurchaseCosts, works float64) Financing {
	f := Financing{
		ProjectCost: costs.Total + works,
		Legal:       financeLegalCosts,
		InterestPct: financeInterestRate * 100,
		TermMonths:  financeTermMonths,
	}
	f.Loan = f.ProjectCost * financeLoanToCost
	f.Equity = f.ProjectCost - f.Loan
	f.ArrangementFee = f.Loan * arrangementFeeRate
	f.ExitFee = f.Loan * exitFeeRate
	f.Interest = f.Loan * financeInterestRate * financeTermMonths / 12
	f.Total = f.ArrangementFee + f.ExitFee + f.Legal + f.Interest
	return f
}
