package domain

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

const sqmToSqft = 10.7639

// Fetched carries one source's outcome into Merge. A non-nil Err means the
// source contributed nothing and Value is ignored.
type Fetched[T any] struct {
	Source string
	Value  T
	Err    error
}

// RawRecords is everything the fetch stage collected for one report request.
type RawRecords struct {
	Query    string // address or postcode as entered
	Postcode string // optional explicit postcode
	AsOf     time.Time

	Geo           Fetched[GeoResult]
	PostcodeSales []Fetched[[]SaleRecord]
	DistrictSales []Fetched[[]SaleRecord]
	EPC           Fetched[[]EPCCertificate]
	Amenities     Fetched[map[AmenityCategory]int]
	Rental        Fetched[RentalBenchmark]
}

// Merge joins per-source records into a PropertyProfile. It fails only when
// the address could not be geocoded; every other absent source leaves its
// field nil and records a DataGap.
//
// Rows are matched to the subject property by postcode and AddressKey. When
// the query is a bare postcode no dwelling can be identified and the postcode
// itself stands in for the property.
func Merge(in RawRecords) (PropertyProfile, error) {
	geo := in.Geo.Value
	if in.Geo.Err != nil {
		return PropertyProfile{}, fmt.Errorf("geocode %q: %w: %w", in.Query, ErrMissingCriticalData, in.Geo.Err)
	}
	if geo.IsZero() {
		return PropertyProfile{}, fmt.Errorf("geocode %q: %w: no coordinates", in.Query, ErrMissingCriticalData)
	}

	p := PropertyProfile{
		Address:           strings.TrimSpace(in.Query),
		FormattedAddress:  geo.FormattedAddress,
		Postcode:          ResolvePostcode(geo.Postcode, in.Postcode, in.Query),
		Geo:               geo.Geo,
		GeoSource:         geo.Source,
		AdminDistrict:     geo.AdminDistrict,
		AdminDistrictCode: geo.AdminDistrictCode,
		AsOf:              in.AsOf,
	}
	subject := ParseAddressKey(in.Query)

	// Subject sale history.
	var candidates []SaleRecord
	answered := false
	for _, f := range in.PostcodeSales {
		if f.Err != nil {
			p.addGap(f.Source, f.Err)
			continue
		}
		answered = true
		for _, r := range f.Value {
			if validSale(r) && samePostcode(r.Postcode, p.Postcode) && (subject.IsZero() || subject.Matches(SaleAddressKey(r))) {
				candidates = append(candidates, r)
			}
		}
	}
	p.Sales = ResolveSales(candidates, func(r SaleRecord) string {
		return r.Date.Format(time.DateOnly)
	})
	if answered && len(p.Sales) == 0 {
		p.Gaps = append(p.Gaps, DataGap{Source: "sales", Reason: GapNoMatch})
	}

	// Comparable sales for the district trend.
	var area []SaleRecord
	for _, f := range in.DistrictSales {
		if f.Err != nil {
			p.addGap(f.Source+"_district", f.Err)
			continue
		}
		for _, r := range f.Value {
			if validSale(r) {
				area = append(area, r)
			}
		}
	}
	p.AreaSales = ResolveSales(area, func(r SaleRecord) string {
		k := SaleAddressKey(r)
		return strings.Join([]string{normalizedPostcode(r.Postcode), k.SAON, k.PAON, k.Street, r.Date.Format(time.DateOnly)}, "|")
	})

	// EPC.
	if in.EPC.Err != nil {
		p.addGap(in.EPC.Source, in.EPC.Err)
	} else if cert, ok := latestCertificate(in.EPC.Value, p.Postcode, subject); ok {
		p.EPC = cert.Rating
		p.EPCPotentialRating = cert.PotentialRating
		p.EPCLodgedAt = cert.LodgedAt
		if cert.CurrentEfficiency > 0 {
			p.EPCEfficiency = ptr(cert.CurrentEfficiency)
		}
		if cert.PotentialEfficiency > 0 {
			p.EPCPotential = ptr(cert.PotentialEfficiency)
		}
		if cert.FloorAreaSqM > 0 {
			p.FloorAreaSqFt = ptr(cert.FloorAreaSqM * sqmToSqft)
		}
		if latest, ok := p.LatestSale(); ok && latest.PropertyType != "" {
			p.PropertyType = latest.PropertyType
		} else {
			p.PropertyType = ParsePropertyType(cert.PropertyType)
		}
	} else {
		p.Gaps = append(p.Gaps, DataGap{Source: in.EPC.Source, Reason: GapNoMatch})
	}
	if latest, ok := p.LatestSale(); ok {
		if p.PropertyType == "" {
			p.PropertyType = latest.PropertyType
		}
		p.Tenure = latest.Tenure
	}

	if in.Amenities.Err != nil {
		p.addGap(in.Amenities.Source, in.Amenities.Err)
	} else {
		p.Amenities = maps.Clone(in.Amenities.Value)
		if p.Amenities == nil {
			p.Amenities = map[AmenityCategory]int{}
		}
	}

	if in.Rental.Err != nil {
		p.addGap(in.Rental.Source, in.Rental.Err)
	} else if in.Rental.Value.MonthlyRent > 0 {
		rb := in.Rental.Value
		if rb.AnnualGrowthPct != nil {
			rb.AnnualGrowthPct = ptr(*rb.AnnualGrowthPct)
		}
		p.Rental = &rb
	} else {
		p.Gaps = append(p.Gaps, DataGap{Source: in.Rental.Source, Reason: GapNotFound})
	}

	p.Incomplete = len(p.Gaps) > 0
	return p, nil
}

// ResolveSales deduplicates sale records sharing the same key and returns
// them ordered oldest first. For each key the winner is chosen by:
//
//  1. verified (category A) over unverified
//  2. lower SourceRank (the live Land Registry API before the PPD snapshot
//     taken from it)
//  3. most recently published
//  4. higher price
//  5. lexically smaller transaction ID
//
// The order is total, so the result does not depend on input order.
func ResolveSales(records []SaleRecord, key func(SaleRecord) string) []SaleRecord {
	best := make(map[string]SaleRecord, len(records))
	for _, r := range records {
		k := key(r)
		if cur, ok := best[k]; !ok || preferSale(r, cur) {
			best[k] = r
		}
	}

	out := slices.Collect(maps.Values(best))
	slices.SortFunc(out, func(a, b SaleRecord) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(key(a), key(b))
	})
	if out == nil {
		return []SaleRecord{}
	}
	return out
}

func preferSale(a, b SaleRecord) bool {
	if a.Verified != b.Verified {
		return a.Verified
	}
	if a.SourceRank != b.SourceRank {
		return a.SourceRank < b.SourceRank
	}
	if !a.PublishedAt.Equal(b.PublishedAt) {
		return a.PublishedAt.After(b.PublishedAt)
	}
	if a.Price != b.Price {
		return a.Price > b.Price
	}
	return a.TransactionID < b.TransactionID
}

func latestCertificate(certs []EPCCertificate, postcode string, subject AddressKey) (EPCCertificate, bool) {
	var (
		best  EPCCertificate
		found bool
	)
	for _, c := range certs {
		if !samePostcode(c.Postcode, postcode) {
			continue
		}
		if !subject.IsZero() && !subject.Matches(ParseAddressKey(c.Address)) {
			continue
		}
		if !found || c.LodgedAt.After(best.LodgedAt) ||
			(c.LodgedAt.Equal(best.LodgedAt) && c.CertificateID > best.CertificateID) {
			best, found = c, true
		}
	}
	return best, found
}

func (p *PropertyProfile) addGap(source string, err error) {
	reason := GapUnavailable
	switch {
	case errors.Is(err, ErrNotFound):
		reason = GapNotFound
	case errors.Is(err, ErrNotConfigured):
		reason = GapNotConfigured
	}
	p.Gaps = append(p.Gaps, DataGap{Source: source, Reason: reason})
}

// ResolvePostcode returns the first candidate containing a valid postcode,
// normalized, or "" when none does.
func ResolvePostcode(candidates ...string) string {
	for _, c := range candidates {
		if pc, ok := NormalizePostcode(c); ok {
			return pc
		}
	}
	return ""
}

func normalizedPostcode(s string) string {
	pc, _ := NormalizePostcode(s)
	return pc
}

// samePostcode treats a row without a postcode as belonging to the queried one.
func samePostcode(row, want string) bool {
	if row == "" || want == "" {
		return true
	}
	return normalizedPostcode(row) == want
}

func validSale(r SaleRecord) bool {
	return r.Price > 0 && !r.Date.IsZero()
}

func ptr[T any](v T) *T { return &v }
