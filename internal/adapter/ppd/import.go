package ppd

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Column order of the HM Land Registry Price Paid CSV files. The files have
// no header row.
const (
	colTransactionID = iota
	colPrice
	colDate
	colPostcode
	colPropertyType
	colOldNew
	colDuration
	colPAON
	colSAON
	colStreet
	colLocality
	colTown
	colDistrict
	colCounty
	colCategory
	colStatus
	numColumns
)

// row is one parsed line of a Price Paid CSV file.
type row struct {
	TransactionID string
	Price         int64
	Date          time.Time
	Postcode      string
	PropertyType  string
	OldNew        string
	Duration      string
	PAON          string
	SAON          string
	Street        string
	Locality      string
	Town          string
	District      string
	County        string
	Category      string
	Status        string
}

func parseRow(rec []string) (row, error) {
	if len(rec) < numColumns {
		return row{}, fmt.Errorf("want %d columns, got %d", numColumns, len(rec))
	}
	price, err := strconv.ParseInt(strings.TrimSpace(rec[colPrice]), 10, 64)
	if err != nil {
		return row{}, fmt.Errorf("price %q: %w", rec[colPrice], err)
	}
	// Dates are published as "2018-06-15 00:00".
	date, err := time.Parse(time.DateOnly, strings.Fields(rec[colDate]+" ")[0])
	if err != nil {
		return row{}, fmt.Errorf("date %q: %w", rec[colDate], err)
	}

	field := func(i int) string { return strings.TrimSpace(rec[i]) }
	r := row{
		TransactionID: strings.Trim(field(colTransactionID), "{}"),
		Price:         price,
		Date:          date,
		Postcode:      field(colPostcode),
		PropertyType:  field(colPropertyType),
		OldNew:        field(colOldNew),
		Duration:      field(colDuration),
		PAON:          field(colPAON),
		SAON:          field(colSAON),
		Street:        field(colStreet),
		Locality:      field(colLocality),
		Town:          field(colTown),
		District:      field(colDistrict),
		County:        field(colCounty),
		Category:      field(colCategory),
		Status:        field(colStatus),
	}
	if r.TransactionID == "" {
		return row{}, errors.New("empty transaction id")
	}
	return r, nil
}

// ImportStats summarises one Import run.
type ImportStats struct {
	Upserted int
	Deleted  int
	Skipped  int
}

const upsertSale = `
	INSERT INTO price_paid (transaction_id, price, date_of_transfer, postcode, property_type, old_new,
		duration, paon, saon, street, locality, town_city, district, county, ppd_category_type,
		record_status, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	ON CONFLICT (transaction_id) DO UPDATE SET
		price = EXCLUDED.price,
		date_of_transfer = EXCLUDED.date_of_transfer,
		postcode = EXCLUDED.postcode,
		property_type = EXCLUDED.property_type,
		old_new = EXCLUDED.old_new,
		duration = EXCLUDED.duration,
		paon = EXCLUDED.paon,
		saon = EXCLUDED.saon,
		street = EXCLUDED.street,
		locality = EXCLUDED.locality,
		town_city = EXCLUDED.town_city,
		district = EXCLUDED.district,
		county = EXCLUDED.county,
		ppd_category_type = EXCLUDED.ppd_category_type,
		record_status = EXCLUDED.record_status,
		updated_at = EXCLUDED.updated_at`

// Import applies a Price Paid CSV file (complete or monthly change file) in
// a single transaction. Rows with record status D are deleted; unparsable
// rows are counted and skipped.
func (s *Store) Import(ctx context.Context, r io.Reader, publishedAt time.Time) (ImportStats, error) {
	var stats ImportStats

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("ppd import: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	upsert, err := tx.PrepareContext(ctx, upsertSale)
	if err != nil {
		return stats, fmt.Errorf("ppd import: prepare: %w", err)
	}
	defer upsert.Close()

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("ppd import: read: %w", err)
		}

		row, err := parseRow(rec)
		if err != nil {
			stats.Skipped++
			continue
		}

		if row.Status == "D" {
			if _, err := tx.ExecContext(ctx, `DELETE FROM price_paid WHERE transaction_id = $1`, row.TransactionID); err != nil {
				return stats, fmt.Errorf("ppd import: delete %s: %w", row.TransactionID, err)
			}
			stats.Deleted++
			continue
		}

		if _, err := upsert.ExecContext(ctx, row.TransactionID, row.Price, row.Date, row.Postcode,
			row.PropertyType, row.OldNew, row.Duration, row.PAON, row.SAON, row.Street, row.Locality,
			row.Town, row.District, row.County, row.Category, row.Status, publishedAt); err != nil {
			return stats, fmt.Errorf("ppd import: upsert %s: %w", row.TransactionID, err)
		}
		stats.Upserted++
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("ppd import: commit: %w", err)
	}
	return stats, nil
}
