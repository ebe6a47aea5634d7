// Package render turns an assembled report into markdown and PDF documents.
package render

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ishanyash/btr-propflip/internal/domain"
)

const dateLayout = "2 January 2006"

var componentTitles = map[string]string{
	domain.ComponentYield:     "Rental yield",
	domain.ComponentGrowth:    "Capital growth",
	domain.ComponentCondition: "Condition (EPC)",
	domain.ComponentAmenities: "Local amenities",
}

var componentOrder = []string{
	domain.ComponentYield,
	domain.ComponentGrowth,
	domain.ComponentCondition,
	domain.ComponentAmenities,
}

// Markdown renders the report as a markdown document. Sections whose data is
// absent are left out rather than printed empty.
func Markdown(r domain.Report) string {
	var b strings.Builder
	p := r.Profile

	fmt.Fprintf(&b, "# BTR Investment Report\n\n")
	fmt.Fprintf(&b, "**Address:** %s\n\n", inline(orDash(p.FormattedAddress, p.Address)))
	fmt.Fprintf(&b, "**Report date:** %s  \n**Report ID:** %s\n\n", r.GeneratedAt.Format(dateLayout), inline(r.ID))
	if p.Incomplete {
		b.WriteString("*Some data sources returned nothing for this property; figures below use what was available.*\n\n")
	}

	writeScore(&b, r.Score)
	writeProfile(&b, p)
	writeValuation(&b, r)
	writeSales(&b, p.SalesHistory())
	writeRental(&b, r)
	writeInvestment(&b, r)
	writeScenarios(&b, r.Scenarios)
	writeAmenities(&b, p.AmenityCounts())

	section(&b, "Investment Advice", r.InvestmentAdvice)
	section(&b, "Market Commentary", r.MarketCommentary)
	section(&b, "Renovation Advice", r.RenovationAdvice)

	writeCommentary(&b, r.Commentary)
	writeGaps(&b, p.Gaps)

	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "*%s*\n", inline(r.Disclaimer))
	return b.String()
}

func writeScore(b *strings.Builder, s domain.InvestmentScore) {
	fmt.Fprintf(b, "## Investment Score: %.0f/100 (%s)\n\n", s.Total, s.Category)
	rows := make([][]string, 0, len(componentOrder))
	for _, name := range componentOrder {
		if slices.Contains(s.Missing, name) {
			rows = append(rows, []string{componentTitles[name], "n/a", "no data"})
			continue
		}
		rows = append(rows, []string{
			componentTitles[name],
			fmt.Sprintf("%.0f", s.Components[name]),
			fmt.Sprintf("%.0f%%", s.Weights[name]*100),
		})
	}
	table(b, []string{"Component", "Score", "Weight"}, rows)
}

func writeProfile(b *strings.Builder, p domain.PropertyProfile) {
	rows := [][]string{
		{"Postcode", orDash(p.Postcode)},
		{"Local authority", orDash(p.AdminDistrict)},
		{"Property type", orDash(p.PropertyType.Name())},
		{"Tenure", orDash(title(string(p.Tenure)))},
		{"Location", fmt.Sprintf("%.5f, %.5f (%s)", p.Geo.Lat, p.Geo.Lon, orDash(p.GeoSource))},
	}
	if p.EPC != domain.EPCUnknown {
		epc := string(p.EPC)
		if p.EPCPotentialRating != domain.EPCUnknown && p.EPCPotentialRating != p.EPC {
			epc += fmt.Sprintf(" (potential %s)", p.EPCPotentialRating)
		}
		rows = append(rows, []string{"EPC rating", epc})
	} else {
		rows = append(rows, []string{"EPC rating", "-"})
	}
	if p.FloorAreaSqFt != nil {
		rows = append(rows, []string{"Floor area", fmt.Sprintf("%.0f sq ft", *p.FloorAreaSqFt)})
	}
	b.WriteString("## Property Profile\n\n")
	table(b, []string{"Field", "Value"}, rows)
}

func writeValuation(b *strings.Builder, r domain.Report) {
	if r.Valuation == nil {
		return
	}
	v := r.Valuation
	b.WriteString("## Valuation\n\n")
	rows := [][]string{
		{"Estimated value", pounds(v.Value)},
		{"Basis", fmt.Sprintf("%s: %s on %s", v.Basis, pounds(v.BasisPrice), v.BasisDate.Format(dateLayout))},
	}
	if v.GrowthPct != nil {
		rows = append(rows, []string{"Area growth", fmt.Sprintf("%.1f%% a year", *v.GrowthPct)})
	}
	table(b, []string{"Measure", "Value"}, rows)
}

func writeSales(b *strings.Builder, sales []domain.SaleRecord) {
	if len(sales) == 0 {
		return
	}
	b.WriteString("## Sales History\n\n")
	rows := make([][]string, 0, len(sales))
	for i := len(sales) - 1; i >= 0; i-- {
		s := sales[i]
		rows = append(rows, []string{
			s.Date.Format("02/01/2006"),
			pounds(s.Price),
			orDash(s.PropertyType.Name()),
			orDash(s.Source),
		})
	}
	table(b, []string{"Date", "Price", "Type", "Source"}, rows)
}

func writeRental(b *strings.Builder, r domain.Report) {
	rent := r.Profile.Rental
	if rent == nil {
		return
	}
	b.WriteString("## Rental Market\n\n")
	area := orDash(rent.AreaName, rent.AreaCode)
	rows := [][]string{
		{"Average monthly rent", pounds(rent.MonthlyRent)},
		{"Area", area},
	}
	if rent.Period != "" {
		rows = append(rows, []string{"Period", rent.Period})
	}
	if rent.AnnualGrowthPct != nil {
		rows = append(rows, []string{"Annual rent growth", fmt.Sprintf("%.1f%%", *rent.AnnualGrowthPct)})
	}
	if r.GrossYieldPct != nil {
		rows = append(rows, []string{"Gross yield", fmt.Sprintf("%.2f%%", *r.GrossYieldPct)})
	}
	table(b, []string{"Measure", "Value"}, rows)

	if len(r.Forecast) == 0 {
		return
	}
	b.WriteString("### Rent Forecast\n\n")
	rows = make([][]string, 0, len(r.Forecast))
	for _, pt := range r.Forecast {
		rows = append(rows, []string{fmt.Sprint(pt.Year), pounds(pt.MonthlyRent), pounds(pt.AnnualRent)})
	}
	table(b, []string{"Year", "Monthly", "Annual"}, rows)
}

func writeInvestment(b *strings.Builder, r domain.Report) {
	pc := r.Purchase
	if pc == nil {
		return
	}
	b.WriteString("## Investment Analysis\n\n")
	b.WriteString("### Purchase Costs\n\n")
	table(b, []string{"Item", "Amount"}, [][]string{
		{"Purchase price", pounds(pc.Price)},
		{"Stamp duty (additional property)", pounds(pc.StampDuty)},
		{"Legal fees", pounds(pc.Legal)},
		{"Survey", pounds(pc.Survey)},
		{"Total acquisition cost", pounds(pc.Total)},
	})

	if in := r.Income; in != nil {
		b.WriteString("### Running Costs\n\n")
		rows := [][]string{
			{"Annual rent", pounds(in.AnnualRent)},
			{"Management (10%)", pounds(in.ManagementFee)},
			{"Maintenance (10%)", pounds(in.Maintenance)},
			{"Voids", pounds(in.Voids)},
			{"Insurance", pounds(in.Insurance)},
		}
		if in.ServiceCharge > 0 {
			rows = append(rows, []string{"Service charge", pounds(in.ServiceCharge)})
		}
		if in.GroundRent > 0 {
			rows = append(rows, []string{"Ground rent", pounds(in.GroundRent)})
		}
		rows = append(rows,
			[]string{"Net annual rent", pounds(in.NetAnnualRent)},
			[]string{"Net yield", fmt.Sprintf("%.2f%%", in.NetYieldPct)},
		)
		table(b, []string{"Item", "Annual"}, rows)
	}

	if f := r.Financing; f != nil {
		b.WriteString("### Bridging Finance\n\n")
		table(b, []string{"Item", "Amount"}, [][]string{
			{"Project cost", pounds(f.ProjectCost)},
			{"Loan", pounds(f.Loan)},
			{"Arrangement fee", pounds(f.ArrangementFee)},
			{"Exit fee", pounds(f.ExitFee)},
			{"Legal", pounds(f.Legal)},
			{fmt.Sprintf("Interest (%.0f%% over %d months)", f.InterestPct, f.TermMonths), pounds(f.Interest)},
			{"Total finance cost", pounds(f.Total)},
		})
	}
}

func writeScenarios(b *strings.Builder, scenarios []domain.RenovationScenario) {
	if len(scenarios) == 0 {
		return
	}
	b.WriteString("## Renovation Scenarios\n\n")
	rows := make([][]string, 0, len(scenarios))
	for _, s := range scenarios {
		rows = append(rows, []string{
			s.Name,
			pounds(s.Cost),
			pounds(s.Uplift),
			pounds(s.ResultingValue),
			fmt.Sprintf("%.1f%%", s.ROIPct),
		})
	}
	table(b, []string{"Scenario", "Cost", "Uplift", "Resulting value", "ROI"}, rows)
}

func writeAmenities(b *strings.Builder, counts map[domain.AmenityCategory]int) {
	if counts == nil {
		return
	}
	b.WriteString("## Local Amenities\n\n")
	rows := make([][]string, 0, len(domain.AmenityCategories))
	for _, c := range domain.AmenityCategories {
		rows = append(rows, []string{title(string(c)), fmt.Sprint(counts[c])})
	}
	table(b, []string{"Category", "Count"}, rows)
}

func writeCommentary(b *strings.Builder, c domain.Commentary) {
	if !c.Available {
		return
	}
	b.WriteString("## Curator Commentary\n\n")
	if c.CuratedValue != nil {
		fmt.Fprintf(b, "**Curated value:** %s  \n", pounds(*c.CuratedValue))
	}
	fmt.Fprintf(b, "**Confidence:** %s  \n**Provider:** %s\n\n", orDash(c.Confidence), orDash(c.Provider))
	if c.Text != "" {
		fmt.Fprintf(b, "%s\n\n", inline(c.Text))
	}
}

func writeGaps(b *strings.Builder, gaps []domain.DataGap) {
	if len(gaps) == 0 {
		return
	}
	b.WriteString("## Data Gaps\n\n")
	for _, g := range gaps {
		fmt.Fprintf(b, "- %s: %s\n", inline(g.Source), strings.ReplaceAll(g.Reason, "_", " "))
	}
	b.WriteString("\n")
}

func section(b *strings.Builder, heading, body string) {
	if body == "" {
		return
	}
	fmt.Fprintf(b, "## %s\n\n%s\n\n", heading, inline(body))
}

func table(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(header)) + "\n")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(inline(c), "|", "/")
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	b.WriteString("\n")
}

// inline flattens text onto one line and escapes the characters that would
// otherwise start emphasis or headings.
func inline(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return markdownEscaper.Replace(s)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"#", `\#`,
	"`", "\\`",
)

func pounds(v float64) string {
	return "£" + domain.FormatPounds(v)
}

func orDash(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "-"
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
