package domain

import (
	"context"
	"time"
)

// Geocoder resolves a free-text address or postcode to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (GeoResult, error)
}

// SaleSource provides Price Paid transactions.
type SaleSource interface {
	// Name identifies the source in logs, metrics, and merge precedence.
	Name() string

	// SalesByPostcode returns every recorded sale in a full postcode.
	SalesByPostcode(ctx context.Context, postcode string) ([]SaleRecord, error)

	// SalesByDistrict returns sales in a postcode district transferred on or after since.
	SalesByDistrict(ctx context.Context, district string, since time.Time) ([]SaleRecord, error)
}

// EPCSource provides domestic energy certificates for a postcode.
type EPCSource interface {
	Certificates(ctx context.Context, postcode string) ([]EPCCertificate, error)
}

// AmenitySource counts amenities around a point.
type AmenitySource interface {
	Amenities(ctx context.Context, at Geo) (map[AmenityCategory]int, error)
}

// RentalSource provides the private rent benchmark for a local authority.
type RentalSource interface {
	Benchmark(ctx context.Context, areaCode string) (RentalBenchmark, error)
}

// Curator cross-checks a computed valuation with an external model.
type Curator interface {
	Curate(ctx context.Context, summary ValuationSummary) (Commentary, error)
}
