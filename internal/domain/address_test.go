package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePostcode(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"SW1A 1AA", "SW1A 1AA", true},
		{"sw1a1aa", "SW1A 1AA", true},
		{"M1 1AE", "M1 1AE", true},
		{"10 Downing Street, London SW1A 2AA", "SW1A 2AA", true},
		{"  ec1v  9hq ", "EC1V 9HQ", true},
		{"no postcode here", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizePostcode(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPostcodeDistrict(t *testing.T) {
	assert.Equal(t, "SW1A", PostcodeDistrict("sw1a 1aa"))
	assert.Equal(t, "M1", PostcodeDistrict("M1 1AE"))
	assert.Empty(t, PostcodeDistrict("London"))
}

func TestCanonicalAddress(t *testing.T) {
	assert.Equal(t, "10 DOWNING STREET, LONDON", CanonicalAddress("10 Downing St., London SW1A 2AA"))
	assert.Equal(t, "ROSE COTTAGE, HIGH STREET", CanonicalAddress("Rose Cottage,  High St"))
	assert.Equal(t, "FLAT 2, 4-6 PARK ROAD", CanonicalAddress("Flt 2, 4-6 Park Rd"))
	assert.Empty(t, CanonicalAddress("SW1A 1AA"))
}

func TestParseAddressKey(t *testing.T) {
	t.Run("numbered house", func(t *testing.T) {
		k := ParseAddressKey("10 Downing St, London SW1A 2AA")
		assert.Equal(t, AddressKey{PAON: "10", Street: "DOWNING STREET"}, k)
	})

	t.Run("flat on its own line", func(t *testing.T) {
		k := ParseAddressKey("Flat 3, 10 Downing St, London SW1A 2AA")
		assert.Equal(t, AddressKey{SAON: "FLAT 3", PAON: "10", Street: "DOWNING STREET"}, k)
	})

	t.Run("flat inline", func(t *testing.T) {
		k := ParseAddressKey("Flat 3 10 Downing Street")
		assert.Equal(t, AddressKey{SAON: "FLAT 3", PAON: "10", Street: "DOWNING STREET"}, k)
	})

	t.Run("named house", func(t *testing.T) {
		k := ParseAddressKey("Rose Cottage, High St, Alton")
		assert.Equal(t, AddressKey{PAON: "ROSE COTTAGE", Street: "HIGH STREET"}, k)
	})

	t.Run("bare postcode", func(t *testing.T) {
		assert.True(t, ParseAddressKey("SW1A 1AA").IsZero())
	})
}

func TestAddressKeyMatches(t *testing.T) {
	subject := ParseAddressKey("10 Downing Street London")

	assert.True(t, subject.Matches(SaleAddressKey(SaleRecord{PAON: "10", Street: "Downing Street"})))
	assert.True(t, subject.Matches(SaleAddressKey(SaleRecord{PAON: "10"})), "missing street is not a mismatch")
	assert.False(t, subject.Matches(SaleAddressKey(SaleRecord{PAON: "11", Street: "Downing Street"})))
	assert.False(t, subject.Matches(SaleAddressKey(SaleRecord{PAON: "10", Street: "Whitehall"})))

	flat := AddressKey{SAON: "FLAT 1", PAON: "10"}
	assert.False(t, flat.Matches(AddressKey{SAON: "FLAT 2", PAON: "10"}))
	assert.False(t, AddressKey{}.Matches(AddressKey{}))
}

func TestParsePropertyType(t *testing.T) {
	assert.Equal(t, PropertyFlat, ParsePropertyType("f"))
	assert.Equal(t, PropertyFlat, ParsePropertyType("Maisonette"))
	assert.Equal(t, PropertyTerraced, ParsePropertyType("Mid-Terrace"))
	assert.Equal(t, PropertySemiDetached, ParsePropertyType("Semi-Detached"))
	assert.Equal(t, PropertyType(""), ParsePropertyType("castle"))
	assert.Equal(t, "Flat/Maisonette", PropertyFlat.Name())
}

func TestParseEPCRating(t *testing.T) {
	assert.Equal(t, EPCC, ParseEPCRating(" c "))
	assert.Equal(t, EPCUnknown, ParseEPCRating("H"))
	assert.Equal(t, EPCUnknown, ParseEPCRating(""))
}
