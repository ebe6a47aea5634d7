package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReport(t *testing.T) {
	p := completeProfile()
	area := 900.0
	p.FloorAreaSqFt = &area
	p.PropertyType = PropertyFlat

	s := Score(p)
	v := Valuate(p)
	scenarios := RenovationScenarios(p, v)
	generated := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	r := BuildReport("rpt-1", generated, p, s, scenarios, Unavailable())

	assert.Equal(t, "rpt-1", r.ID)
	assert.Equal(t, generated, r.GeneratedAt)
	assert.Equal(t, s, r.Score)
	assert.Equal(t, v, r.Valuation)
	require.NotNil(t, r.StampDuty)
	assert.Equal(t, StampDuty(v.Value, true), *r.StampDuty)
	require.NotNil(t, r.Purchase)
	assert.Equal(t, Purchase(v.Value), *r.Purchase)
	require.NotNil(t, r.Income)
	assert.Positive(t, r.Income.ServiceCharge, "flats are costed as leasehold")
	require.NotNil(t, r.Financing)
	assert.GreaterOrEqual(t, r.Financing.ProjectCost, r.Purchase.Total)
	require.NotNil(t, r.GrossYieldPct)
	assert.Len(t, r.Scenarios, 5)
	assert.Len(t, r.Forecast, ForecastYears)
	assert.False(t, r.Commentary.Available)
	assert.Contains(t, r.InvestmentAdvice, "flat/maisonette property")
	assert.Contains(t, r.MarketCommentary, "SW1A")
	assert.Contains(t, r.RenovationAdvice, "ROI")
	assert.Equal(t, Disclaimer, r.Disclaimer)
}

func TestBuildReport_CommentaryDoesNotAffectScore(t *testing.T) {
	p := completeProfile()
	s := Score(p)
	curated := 1.0

	with := BuildReport("a", testAsOf, p, s, nil, Commentary{Available: true, Text: "looks cheap", CuratedValue: &curated, Confidence: ConfidenceLow})
	without := BuildReport("a", testAsOf, p, s, nil, Unavailable())

	assert.Equal(t, without.Score, with.Score)
	assert.Equal(t, without.Valuation, with.Valuation)
}

func TestBuildReport_SparseProfile(t *testing.T) {
	p := PropertyProfile{Address: "Somewhere", AsOf: testAsOf, Incomplete: true}
	r := BuildReport("b", testAsOf, p, Score(p), nil, Unavailable())

	assert.Nil(t, r.Valuation)
	assert.Nil(t, r.StampDuty)
	assert.Nil(t, r.Purchase)
	assert.Nil(t, r.Income)
	assert.Nil(t, r.Financing)
	assert.Nil(t, r.Forecast)
	assert.Contains(t, r.MarketCommentary, "Not enough market data")
	assert.Contains(t, r.RenovationAdvice, "no scenarios could be costed")
}

func TestInvestmentAdviceBands(t *testing.T) {
	p := PropertyProfile{PropertyType: PropertyTerraced}
	tests := []struct {
		total float64
		want  string
	}{
		{85, "excellent BTR opportunity"},
		{72, "good BTR opportunity"},
		{65, "above-average"},
		{55, "average BTR potential"},
		{45, "below-average"},
		{10, "unlikely to suit"},
	}
	for _, tt := range tests {
		got := InvestmentAdvice(p, InvestmentScore{Total: tt.total})
		assert.Contains(t, got, tt.want, "total %v", tt.total)
		assert.Contains(t, got, "terraced property")
	}
}

func TestMarketCommentary(t *testing.T) {
	growth := 3.5
	p := PropertyProfile{
		Postcode:  "M1 1AE",
		Amenities: map[AmenityCategory]int{AmenityTransport: 12},
		AreaSales: []SaleRecord{
			{Date: date(2021, 1, 1), Price: 200_000},
			{Date: date(2022, 1, 1), Price: 190_000},
		},
		Rental: &RentalBenchmark{AreaName: "Manchester", MonthlyRent: 1250, AnnualGrowthPct: &growth},
	}

	got := MarketCommentary(p)

	assert.Contains(t, got, "M1 has excellent public transport links")
	assert.Contains(t, got, "fallen by about 5.0% a year")
	assert.Contains(t, got, "Manchester is £1,250 a month, growing at 3.5% a year")
}

func TestFormatPounds(t *testing.T) {
	assert.Equal(t, "0", FormatPounds(0))
	assert.Equal(t, "999", FormatPounds(999))
	assert.Equal(t, "1,000", FormatPounds(1000))
	assert.Equal(t, "1,234,568", FormatPounds(1234567.8))
	assert.Equal(t, "-42,550", FormatPounds(-42550))
}
