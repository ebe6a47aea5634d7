package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ishanyash/btr-propflip/internal/domain"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generated = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fullReport() domain.Report {
	growth := 3.5
	area := 850.0
	p := domain.PropertyProfile{
		Address:           "Buckingham Palace, London SW1A 1AA",
		FormattedAddress:  "Buckingham Palace, London SW1A 1AA, UK",
		Postcode:          "SW1A 1AA",
		Geo:               domain.Geo{Lat: 51.501009, Lon: -0.141588},
		GeoSource:         "postcodes",
		AdminDistrict:     "Westminster",
		AdminDistrictCode: "E09000033",
		PropertyType:      domain.PropertyFlat,
		Tenure:            domain.TenureLeasehold,
		Sales: []domain.SaleRecord{
			{Date: date(2015, 3, 1), Price: 380_000, PropertyType: domain.PropertyFlat, Source: "landregistry"},
			{Date: date(2022, 5, 20), Price: 500_000, PropertyType: domain.PropertyFlat, Source: "landregistry"},
		},
		AreaSales: []domain.SaleRecord{
			{Date: date(2020, 1, 1), Price: 450_000},
			{Date: date(2024, 1, 1), Price: 520_000},
		},
		EPC:                domain.EPCC,
		EPCPotentialRating: domain.EPCB,
		FloorAreaSqFt:      &area,
		Amenities: map[domain.AmenityCategory]int{
			domain.AmenityTransport: 4, domain.AmenityFood: 5, domain.AmenityShopping: 3,
		},
		Rental: &domain.RentalBenchmark{
			AreaCode: "E09000033", AreaName: "Westminster", MonthlyRent: 2450,
			AnnualGrowthPct: &growth, Period: "2025-03",
		},
		AsOf: generated,
	}
	s := domain.Score(p)
	scenarios := domain.RenovationScenarios(p, domain.Valuate(p))
	curated := 515_000.0
	c := domain.Commentary{
		Available:    true,
		Provider:     "anthropic",
		Text:         "Pricing looks in line with recent district sales.",
		CuratedValue: &curated,
		Confidence:   domain.ConfidenceMedium,
	}
	return domain.BuildReport("rpt-1", generated, p, s, scenarios, c)
}

func sparseReport() domain.Report {
	p := domain.PropertyProfile{
		Address:    "SW1A 1AA",
		Postcode:   "SW1A 1AA",
		AsOf:       generated,
		Incomplete: true,
		Gaps: []domain.DataGap{
			{Source: "landregistry", Reason: domain.GapNotFound},
			{Source: "epc", Reason: domain.GapNotConfigured},
		},
	}
	return domain.BuildReport("rpt-2", generated, p, domain.Score(p), nil, domain.Unavailable())
}

func TestMarkdown_FullReport(t *testing.T) {
	md := Markdown(fullReport())

	for _, want := range []string{
		"# BTR Investment Report",
		"**Report date:** 1 June 2025",
		"## Investment Score:",
		"| Rental yield |",
		"## Valuation",
		"## Sales History",
		"| 20/05/2022 | £500,000 | Flat/Maisonette | landregistry |",
		"## Rental Market",
		"| Average monthly rent | £2,450 |",
		"### Rent Forecast",
		"| Tenure | Leasehold |",
		"## Investment Analysis",
		"| Stamp duty (additional property) |",
		"| Legal fees | £",
		"| Survey | £1,000 |",
		"| Management (10%) | £2,940 |",
		"| Service charge | £2,550 |",
		"| Ground rent | £250 |",
		"| Net yield |",
		"### Bridging Finance",
		"| Interest (14% over 12 months) |",
		"## Renovation Scenarios",
		"| Transport | 4 |",
		"| Leisure | 0 |",
		"## Investment Advice",
		"## Curator Commentary",
		"**Curated value:** £515,000",
		"C (potential B)",
	} {
		assert.Contains(t, md, want)
	}
	assert.NotContains(t, md, "## Data Gaps")
	assert.True(t, strings.HasSuffix(md, "*\n"), "disclaimer closes the document")
}

func TestMarkdown_SalesNewestFirst(t *testing.T) {
	md := Markdown(fullReport())
	assert.Less(t, strings.Index(md, "20/05/2022"), strings.Index(md, "01/03/2015"))
}

func TestMarkdown_SparseReport(t *testing.T) {
	md := Markdown(sparseReport())

	assert.Contains(t, md, "## Investment Score: 50/100")
	assert.Contains(t, md, "| Rental yield | n/a | no data |")
	assert.Contains(t, md, "Some data sources returned nothing")
	assert.Contains(t, md, "- landregistry: not found")
	assert.Contains(t, md, "- epc: not configured")
	for _, absent := range []string{"## Valuation", "## Investment Analysis", "## Sales History", "## Rental Market", "## Renovation Scenarios", "## Local Amenities", "## Curator Commentary"} {
		assert.NotContains(t, md, absent)
	}
}

func TestMarkdown_InvestmentWithoutRent(t *testing.T) {
	r := fullReport()
	r.Income = nil

	md := Markdown(r)

	assert.Contains(t, md, "### Purchase Costs")
	assert.Contains(t, md, "### Bridging Finance")
	assert.NotContains(t, md, "### Running Costs")
}

func TestMarkdown_FreeholdOmitsLeaseholdCosts(t *testing.T) {
	r := fullReport()
	r.Profile.Tenure = domain.TenureFreehold
	pc := *r.Purchase
	r.Income = domain.NetIncome(r.Profile, pc)

	md := Markdown(r)

	assert.Contains(t, md, "### Running Costs")
	assert.NotContains(t, md, "| Service charge |")
	assert.NotContains(t, md, "| Ground rent |")
}

func TestMarkdown_EscapesSourceText(t *testing.T) {
	r := sparseReport()
	r.Profile.Address = "Flat *2*,  Mill_Lane\n#3"

	md := Markdown(r)

	assert.Contains(t, md, `**Address:** Flat \*2\*, Mill\_Lane \#3`)
}

func TestMarkdown_TableCellsDropPipes(t *testing.T) {
	var b strings.Builder
	table(&b, []string{"A", "B"}, [][]string{{"x|y", "z"}})
	assert.Equal(t, "| A | B |\n|---|---|\n| x/y | z |\n\n", b.String())
}

func TestPDF_Valid(t *testing.T) {
	tests := []struct {
		name   string
		report domain.Report
	}{
		{"full report", fullReport()},
		{"sparse report", sparseReport()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := PDF(tt.report)
			require.NoError(t, err)
			require.Greater(t, len(b), 500)
			assert.Equal(t, "%PDF", string(b[:4]))

			conf := model.NewDefaultConfiguration()
			require.NoError(t, api.Validate(bytes.NewReader(b), conf))

			pages, err := api.PageCount(bytes.NewReader(b), conf)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, pages, 1)
		})
	}
}

func TestPDF_LongReportPaginates(t *testing.T) {
	r := fullReport()
	for i := 0; i < 80; i++ {
		r.Profile.Sales = append(r.Profile.Sales, domain.SaleRecord{
			Date: date(1995+i%30, time.Month(1+i%12), 1), Price: float64(100_000 + i*1000), Source: "ppd",
		})
	}

	b, err := PDF(r)
	require.NoError(t, err)

	pages, err := api.PageCount(bytes.NewReader(b), model.NewDefaultConfiguration())
	require.NoError(t, err)
	assert.Greater(t, pages, 1)
}
