package domain

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// postcodeRe matches a UK postcode anywhere in free text, with or without
	// the separating space, e.g. "sw1a1aa" or "SW1A 1AA".
	postcodeRe = regexp.MustCompile(`\b([A-Za-z]{1,2}\d[\dA-Za-z]?)\s*(\d[ABD-HJLNP-UW-Zabd-hjlnp-uw-z]{2})\b`)

	// houseNumberRe matches a primary house number such as "10", "10A" or "10-12".
	houseNumberRe = regexp.MustCompile(`^\d+[A-Z]?(-\d+[A-Z]?)?$`)

	// unitRe matches a secondary object prefix such as "FLAT 3".
	unitRe = regexp.MustCompile(`^(FLAT|APARTMENT|UNIT|STUDIO)\s+(\S+)\s*`)
)

// abbreviations expands common UK street-type abbreviations token by token.
var abbreviations = map[string]string{
	"RD":   "ROAD",
	"ST":   "STREET",
	"AVE":  "AVENUE",
	"AV":   "AVENUE",
	"GDNS": "GARDENS",
	"CT":   "COURT",
	"DR":   "DRIVE",
	"LN":   "LANE",
	"PL":   "PLACE",
	"SQ":   "SQUARE",
	"CRES": "CRESCENT",
	"TER":  "TERRACE",
	"TERR": "TERRACE",
	"CL":   "CLOSE",
	"PK":   "PARK",
	"GRN":  "GREEN",
	"GR":   "GROVE",
	"WY":   "WAY",
	"APT":  "APARTMENT",
	"FLT":  "FLAT",
	"HSE":  "HOUSE",
	"CTG":  "COTTAGE",
	"MNR":  "MANOR",
	"EST":  "ESTATE",
	"NTH":  "NORTH",
	"STH":  "SOUTH",
}

// NormalizePostcode returns the canonical "OUTWARD INWARD" form of the first
// postcode found in s.
func NormalizePostcode(s string) (string, bool) {
	m := postcodeRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]) + " " + strings.ToUpper(m[2]), true
}

// PostcodeDistrict returns the outward code ("SW1A") of a postcode, or "" if
// none can be parsed.
func PostcodeDistrict(postcode string) string {
	pc, ok := NormalizePostcode(postcode)
	if !ok {
		return ""
	}
	outward, _, _ := strings.Cut(pc, " ")
	return outward
}

// CanonicalAddress upper-cases an address, drops any postcode, replaces
// punctuation with spaces and expands abbreviations. Commas are kept so
// callers can still split address lines.
func CanonicalAddress(raw string) string {
	s := postcodeRe.ReplaceAllString(strings.ToUpper(raw), " ")

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == ',' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	lines := strings.Split(b.String(), ",")
	out := lines[:0]
	for _, line := range lines {
		tokens := strings.Fields(line)
		for i, tok := range tokens {
			if full, ok := abbreviations[tok]; ok {
				tokens[i] = full
			}
		}
		if len(tokens) > 0 {
			out = append(out, strings.Join(tokens, " "))
		}
	}
	return strings.Join(out, ", ")
}

// AddressKey identifies a dwelling within a postcode.
type AddressKey struct {
	SAON   string // flat or unit, e.g. "FLAT 3"
	PAON   string // house number or name
	Street string
}

// IsZero reports whether no addressable object could be parsed.
func (k AddressKey) IsZero() bool {
	return k.PAON == "" && k.SAON == ""
}

// Matches reports whether two keys plausibly describe the same dwelling. The
// primary object must agree; street and secondary object are compared only
// when both sides carry them, and a street may trail into the town name.
func (k AddressKey) Matches(other AddressKey) bool {
	if k.PAON == "" || k.PAON != other.PAON {
		return false
	}
	if k.Street != "" && other.Street != "" &&
		!strings.HasPrefix(k.Street, other.Street) && !strings.HasPrefix(other.Street, k.Street) {
		return false
	}
	if k.SAON != "" && other.SAON != "" && k.SAON != other.SAON {
		return false
	}
	return true
}

// ParseAddressKey extracts the SAON, PAON and street from a free-text address
// such as "Flat 3, 10 Downing St, London SW1A 2AA".
func ParseAddressKey(raw string) AddressKey {
	var key AddressKey

	var lines []string
	for _, line := range strings.Split(CanonicalAddress(raw), ",") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return key
	}

	first := lines[0]
	if m := unitRe.FindStringSubmatch(first); m != nil {
		key.SAON = m[1] + " " + m[2]
		first = strings.TrimSpace(first[len(m[0]):])
		if first == "" {
			lines = lines[1:]
			if len(lines) == 0 {
				return key
			}
			first = lines[0]
		}
	}

	tokens := strings.Fields(first)
	if len(tokens) > 0 && houseNumberRe.MatchString(tokens[0]) {
		key.PAON = tokens[0]
		key.Street = strings.Join(tokens[1:], " ")
		if key.Street == "" && len(lines) > 1 {
			key.Street = lines[1]
		}
		return key
	}

	// Named house: "ROSE COTTAGE, HIGH STREET".
	key.PAON = first
	if len(lines) > 1 {
		street := strings.Fields(lines[1])
		if len(street) > 0 && houseNumberRe.MatchString(street[0]) {
			key.PAON = street[0]
			street = street[1:]
		}
		key.Street = strings.Join(street, " ")
	}
	return key
}

// SaleAddressKey builds the key for a Price Paid row from its structured fields.
func SaleAddressKey(r SaleRecord) AddressKey {
	return AddressKey{
		SAON:   CanonicalAddress(r.SAON),
		PAON:   CanonicalAddress(r.PAON),
		Street: CanonicalAddress(r.Street),
	}
}
