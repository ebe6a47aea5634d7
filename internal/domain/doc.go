// Package domain models UK residential property data for Buy-to-Rent (BTR)
// investment reports.
//
// # Data Sources
//
// A report is built from five public sources, each reached through a small
// interface declared in this package and implemented under internal/adapter:
//
//	Geocoding      postcodes.io, Google Maps, OSM Nominatim (tried in that order)
//	Sale history   HM Land Registry Price Paid Data (linked-data API and a Postgres snapshot)
//	EPC            Energy Performance Certificates, opendatacommunities.org
//	Amenities      OpenStreetMap via the Overpass API
//	Rents          ONS private rental market statistics
//
// Only geocoding is critical. Every other source may be absent, in which case
// the corresponding profile field stays nil and a [DataGap] is recorded.
//
// # UK Data Conventions
//
// Postcodes:
//
//	"<outward> <inward>", e.g. "SW1A 1AA". The outward code ("SW1A") identifies
//	the postcode district and is used as the area key for comparable sales.
//	The inward code is always digit + two letters. Input is normalised to upper
//	case with a single space before the inward code. See [NormalizePostcode].
//
// Addresses:
//
//	Land Registry splits addresses into PAON (primary addressable object name,
//	usually the house number or name), SAON (flat or unit) and street. EPC rows
//	carry free-text address lines. Both are reduced to an [AddressKey] so rows
//	can be matched to the subject property.
//
// Land Registry property types:
//
//	D detached, S semi-detached, T terraced, F flat/maisonette, O other.
//
// EPC ratings:
//
//	Bands A (most efficient) to G. Missing or unparsable ratings map to
//	[EPCUnknown] and are treated as null by the scorer.
//
// # Merge Precedence
//
// When sources disagree the processor applies fixed per-field rules; see
// [Merge]. For sale records sharing a transfer date the winner is chosen by
// verified status, then publication recency, then source rank, then price, so
// that identical inputs always produce the identical profile.
//
// # Scoring
//
// [Score] is a pure weighted sum of four normalised sub-metrics (yield, growth,
// condition, amenities). Sub-metrics whose inputs are null are dropped and the
// remaining weights are renormalised, so incomplete data neither inflates nor
// zeroes the total.
package domain
