package ppd

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `"{8E3D9B3A-0C43-4F2B-E053-6B04A8C0A1F2}","450000","2018-06-15 00:00","SW1A 2AA","T","N","L","10","","DOWNING STREET","","LONDON","CITY OF WESTMINSTER","GREATER LONDON","A","A"
"{9F4EAC4B-1D54-5A3C-E053-6B04A8C0B2A3}","520000","2022-03-01 00:00","SW1A 2AA","F","Y","L","10","FLAT 2","DOWNING STREET","","LONDON","CITY OF WESTMINSTER","GREATER LONDON","B","D"
"{BAD}","n/a","2022-03-01 00:00","SW1A 2AA","F","N","L","","","","","","","","A","A"
`

func records(t *testing.T, s string) [][]string {
	t.Helper()
	cr := csv.NewReader(strings.NewReader(s))
	recs, err := cr.ReadAll()
	require.NoError(t, err)
	return recs
}

func TestParseRow(t *testing.T) {
	recs := records(t, sampleCSV)

	r, err := parseRow(recs[0])
	require.NoError(t, err)
	assert.Equal(t, "8E3D9B3A-0C43-4F2B-E053-6B04A8C0A1F2", r.TransactionID)
	assert.Equal(t, int64(450000), r.Price)
	assert.Equal(t, time.Date(2018, 6, 15, 0, 0, 0, 0, time.UTC), r.Date)
	assert.Equal(t, "SW1A 2AA", r.Postcode)
	assert.Equal(t, "T", r.PropertyType)
	assert.Equal(t, "10", r.PAON)
	assert.Equal(t, "DOWNING STREET", r.Street)
	assert.Equal(t, "A", r.Category)
	assert.Equal(t, "A", r.Status)

	r, err = parseRow(recs[1])
	require.NoError(t, err)
	assert.Equal(t, "FLAT 2", r.SAON)
	assert.Equal(t, "D", r.Status)
}

func TestParseRow_Invalid(t *testing.T) {
	recs := records(t, sampleCSV)

	_, err := parseRow(recs[2])
	assert.ErrorContains(t, err, "price")

	_, err = parseRow([]string{"{X}", "100"})
	assert.ErrorContains(t, err, "columns")

	bad := append([]string(nil), recs[0]...)
	bad[colDate] = "15/06/2018"
	_, err = parseRow(bad)
	assert.ErrorContains(t, err, "date")
}
