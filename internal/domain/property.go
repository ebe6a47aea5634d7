package domain

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// IsZero reports whether both coordinates are unset.
func (g Geo) IsZero() bool {
	return g.Lat == 0 && g.Lon == 0
}

// GeoResult contains location data returned by a geocoding provider.
type GeoResult struct {
	Geo
	FormattedAddress  string
	Postcode          string
	AdminDistrict     string
	AdminDistrictCode string  // ONS GSS code, e.g. "E09000033"
	Confidence        float64 // 0.0–1.0 provider confidence score
	Source            string
}

// PropertyType is the Land Registry property type code.
type PropertyType string

const (
	PropertyDetached     PropertyType = "D"
	PropertySemiDetached PropertyType = "S"
	PropertyTerraced     PropertyType = "T"
	PropertyFlat         PropertyType = "F"
	PropertyOther        PropertyType = "O"
)

// Name returns the human-readable property type.
func (t PropertyType) Name() string {
	switch t {
	case PropertyDetached:
		return "Detached"
	case PropertySemiDetached:
		return "Semi-detached"
	case PropertyTerraced:
		return "Terraced"
	case PropertyFlat:
		return "Flat/Maisonette"
	case PropertyOther:
		return "Other"
	default:
		return ""
	}
}

// Tenure is the estate a property is held on.
type Tenure string

const (
	TenureUnknown   Tenure = ""
	TenureFreehold  Tenure = "freehold"
	TenureLeasehold Tenure = "leasehold"
)

// ParseTenure accepts the Price Paid duration code ("F", "L") or the
// linked-data estate type name ("freehold", "leasehold").
func ParseTenure(s string) Tenure {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f", "freehold":
		return TenureFreehold
	case "l", "leasehold":
		return TenureLeasehold
	default:
		return TenureUnknown
	}
}

// ParsePropertyType accepts a Land Registry code, an EPC built form
// ("Mid-Terrace") or an EPC property type ("Flat", "Bungalow"). Unknown
// values return "".
func ParsePropertyType(s string) PropertyType {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "D", "DETACHED":
		return PropertyDetached
	case "S", "SEMI-DETACHED":
		return PropertySemiDetached
	case "T", "TERRACED", "MID-TERRACE", "END-TERRACE", "ENCLOSED MID-TERRACE", "ENCLOSED END-TERRACE":
		return PropertyTerraced
	case "F", "FLAT", "MAISONETTE":
		return PropertyFlat
	case "O", "HOUSE", "BUNGALOW", "PARK HOME":
		return PropertyOther
	default:
		return ""
	}
}

// SaleRecord is one Price Paid transaction.
type SaleRecord struct {
	TransactionID string       `json:"transaction_id,omitempty"`
	Date          time.Time    `json:"date"`
	Price         float64      `json:"price"`
	Postcode      string       `json:"postcode,omitempty"`
	PAON          string       `json:"paon,omitempty"`
	SAON          string       `json:"saon,omitempty"`
	Street        string       `json:"street,omitempty"`
	Town          string       `json:"town,omitempty"`
	PropertyType  PropertyType `json:"property_type,omitempty"`
	Tenure        Tenure       `json:"tenure,omitempty"`
	NewBuild      bool         `json:"new_build,omitempty"`

	// Verified is true for standard (category A) full-market-value entries.
	Verified bool `json:"verified"`
	// PublishedAt is when the source last published or amended the record.
	PublishedAt time.Time `json:"published_at,omitempty"`
	Source      string    `json:"source"`
	// SourceRank orders sources for conflict resolution; lower wins.
	SourceRank int `json:"-"`
}

// EPCRating is an Energy Performance Certificate band.
type EPCRating string

const (
	EPCUnknown EPCRating = ""
	EPCA       EPCRating = "A"
	EPCB       EPCRating = "B"
	EPCC       EPCRating = "C"
	EPCD       EPCRating = "D"
	EPCE       EPCRating = "E"
	EPCF       EPCRating = "F"
	EPCG       EPCRating = "G"
)

// ParseEPCRating normalizes a band letter. Anything else is EPCUnknown.
func ParseEPCRating(s string) EPCRating {
	switch r := EPCRating(strings.ToUpper(strings.TrimSpace(s))); r {
	case EPCA, EPCB, EPCC, EPCD, EPCE, EPCF, EPCG:
		return r
	default:
		return EPCUnknown
	}
}

// EPCCertificate is one lodged domestic certificate.
type EPCCertificate struct {
	CertificateID       string
	Address             string
	Postcode            string
	Rating              EPCRating
	PotentialRating     EPCRating
	CurrentEfficiency   int
	PotentialEfficiency int
	FloorAreaSqM        float64 // 0 when not recorded
	PropertyType        string
	LodgedAt            time.Time
}

// AmenityCategory groups OSM amenity tags.
type AmenityCategory string

const (
	AmenityTransport  AmenityCategory = "transport"
	AmenityFood       AmenityCategory = "food"
	AmenityShopping   AmenityCategory = "shopping"
	AmenityHealthcare AmenityCategory = "healthcare"
	AmenityEducation  AmenityCategory = "education"
	AmenityLeisure    AmenityCategory = "leisure"
	AmenityOther      AmenityCategory = "other"
)

// AmenityCategories lists the scored categories in presentation order.
var AmenityCategories = []AmenityCategory{
	AmenityTransport, AmenityFood, AmenityShopping,
	AmenityHealthcare, AmenityEducation, AmenityLeisure,
}

// RentalBenchmark is the ONS private rent figure for the local authority.
type RentalBenchmark struct {
	AreaCode        string   `json:"area_code"`
	AreaName        string   `json:"area_name,omitempty"`
	MonthlyRent     float64  `json:"monthly_rent"`
	AnnualGrowthPct *float64 `json:"annual_growth_pct,omitempty"`
	Period          string   `json:"period,omitempty"`
}

// DataGap records a source that contributed nothing to a profile.
type DataGap struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// Gap reasons.
const (
	GapNotFound      = "not_found"
	GapUnavailable   = "unavailable"
	GapNoMatch       = "no_match"
	GapNotConfigured = "not_configured"
)

// PropertyProfile is the merged per-property record driving scoring. It is
// built once by Merge and must not be modified afterwards; nil pointer and
// map fields mean the data was not available.
type PropertyProfile struct {
	Address           string       `json:"address"`
	FormattedAddress  string       `json:"formatted_address,omitempty"`
	Postcode          string       `json:"postcode"`
	Geo               Geo          `json:"geo"`
	GeoSource         string       `json:"geo_source"`
	AdminDistrict     string       `json:"admin_district,omitempty"`
	AdminDistrictCode string       `json:"admin_district_code,omitempty"`
	PropertyType      PropertyType `json:"property_type,omitempty"`
	Tenure            Tenure       `json:"tenure,omitempty"`

	// Sales is the subject property's transaction history, oldest first.
	Sales []SaleRecord `json:"sales"`
	// AreaSales are comparable transactions in the postcode district, oldest first.
	AreaSales []SaleRecord `json:"area_sales,omitempty"`

	EPC                EPCRating `json:"epc_rating,omitempty"`
	EPCPotentialRating EPCRating `json:"epc_potential_rating,omitempty"`
	EPCEfficiency      *int      `json:"epc_efficiency,omitempty"`
	EPCPotential       *int      `json:"epc_potential,omitempty"`
	EPCLodgedAt        time.Time `json:"epc_lodged_at,omitempty"`
	FloorAreaSqFt      *float64  `json:"floor_area_sqft,omitempty"`

	Amenities map[AmenityCategory]int `json:"amenities,omitempty"`
	Rental    *RentalBenchmark        `json:"rental,omitempty"`

	AsOf       time.Time `json:"as_of"`
	Incomplete bool      `json:"incomplete"`
	Gaps       []DataGap `json:"gaps,omitempty"`
}

// District returns the outward code of the profile's postcode.
func (p PropertyProfile) District() string {
	return PostcodeDistrict(p.Postcode)
}

// LatestSale returns the most recent subject sale, if any.
func (p PropertyProfile) LatestSale() (SaleRecord, bool) {
	if len(p.Sales) == 0 {
		return SaleRecord{}, false
	}
	return p.Sales[len(p.Sales)-1], true
}

// SalesHistory returns a copy of the subject's sales, oldest first.
func (p PropertyProfile) SalesHistory() []SaleRecord {
	return slices.Clone(p.Sales)
}

// ComparableSales returns a copy of the district sales, oldest first.
func (p PropertyProfile) ComparableSales() []SaleRecord {
	return slices.Clone(p.AreaSales)
}

// AmenityCounts returns a copy of the amenity counts, or nil when the
// amenity source was absent.
func (p PropertyProfile) AmenityCounts() map[AmenityCategory]int {
	return maps.Clone(p.Amenities)
}

// AmenityTotal sums amenity counts across all categories.
func (p PropertyProfile) AmenityTotal() int {
	total := 0
	for _, n := range p.Amenities {
		total += n
	}
	return total
}
