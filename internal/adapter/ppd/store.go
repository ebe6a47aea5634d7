// Package ppd serves Price Paid Data from a Postgres snapshot of the HM Land
// Registry bulk files. The snapshot backs up the linked-data API and covers
// district-wide queries that are slow over SPARQL.
package ppd

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/ishanyash/btr-propflip/internal/domain"
)

const (
	// Name identifies this source in logs, metrics, and data gaps.
	Name = "ppd"

	// Rank orders the snapshot behind the live Land Registry API.
	Rank = 1
)

var districtRe = regexp.MustCompile(`^[A-Z]{1,2}\d[A-Z\d]?$`)

// Store implements domain.SaleSource over the price_paid table.
type Store struct {
	db *sql.DB
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("ppd: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ppd: ping: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Name returns the source name.
func (s *Store) Name() string { return Name }

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the price_paid table and its indexes if missing.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS price_paid (
			transaction_id    TEXT        PRIMARY KEY,
			price             BIGINT      NOT NULL,
			date_of_transfer  DATE        NOT NULL,
			postcode          TEXT        NOT NULL DEFAULT '',
			property_type     CHAR(1)     NOT NULL DEFAULT 'O',
			old_new           CHAR(1)     NOT NULL DEFAULT 'N',
			duration          CHAR(1)     NOT NULL DEFAULT 'U',
			paon              TEXT        NOT NULL DEFAULT '',
			saon              TEXT        NOT NULL DEFAULT '',
			street            TEXT        NOT NULL DEFAULT '',
			locality          TEXT        NOT NULL DEFAULT '',
			town_city         TEXT        NOT NULL DEFAULT '',
			district          TEXT        NOT NULL DEFAULT '',
			county            TEXT        NOT NULL DEFAULT '',
			ppd_category_type CHAR(1)     NOT NULL DEFAULT 'A',
			record_status     CHAR(1)     NOT NULL DEFAULT 'A',
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_price_paid_postcode ON price_paid(postcode);
		CREATE INDEX IF NOT EXISTS idx_price_paid_date     ON price_paid(date_of_transfer);
	`)
	if err != nil {
		return fmt.Errorf("ppd: migrate: %w", err)
	}
	return nil
}

const selectSales = `
	SELECT transaction_id, price, date_of_transfer, postcode, property_type, old_new, duration,
	       paon, saon, street, town_city, ppd_category_type, updated_at
	FROM price_paid
	WHERE record_status <> 'D' AND `

// SalesByPostcode returns every transaction recorded against a full postcode.
func (s *Store) SalesByPostcode(ctx context.Context, postcode string) ([]domain.SaleRecord, error) {
	pc, ok := domain.NormalizePostcode(postcode)
	if !ok {
		return nil, fmt.Errorf("ppd postcode %q: %w", postcode, domain.ErrNotFound)
	}
	return s.query(ctx, selectSales+`postcode = $1 ORDER BY date_of_transfer`, pc)
}

// SalesByDistrict returns transactions in a postcode district from since onwards.
func (s *Store) SalesByDistrict(ctx context.Context, district string, since time.Time) ([]domain.SaleRecord, error) {
	district = strings.ToUpper(strings.TrimSpace(district))
	if !districtRe.MatchString(district) {
		return nil, fmt.Errorf("ppd district %q: %w", district, domain.ErrNotFound)
	}
	return s.query(ctx,
		selectSales+`postcode LIKE $1 AND date_of_transfer >= $2 ORDER BY date_of_transfer`,
		district+" %", since)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]domain.SaleRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("ppd query: %w: %w", domain.ErrSourceUnavailable, err)
	}
	defer rows.Close()

	var sales []domain.SaleRecord
	for rows.Next() {
		var (
			r                                        domain.SaleRecord
			propertyType, oldNew, duration, category string
		)
		if err := rows.Scan(&r.TransactionID, &r.Price, &r.Date, &r.Postcode, &propertyType, &oldNew, &duration,
			&r.PAON, &r.SAON, &r.Street, &r.Town, &category, &r.PublishedAt); err != nil {
			return nil, fmt.Errorf("ppd scan: %w: %w", domain.ErrSourceUnavailable, err)
		}
		r.PropertyType = domain.ParsePropertyType(propertyType)
		r.NewBuild = oldNew == "Y"
		r.Tenure = domain.ParseTenure(duration)
		r.Verified = category == "A"
		r.Source = Name
		r.SourceRank = Rank
		sales = append(sales, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ppd rows: %w: %w", domain.ErrSourceUnavailable, err)
	}
	if len(sales) == 0 {
		return nil, fmt.Errorf("ppd: no transactions: %w", domain.ErrNotFound)
	}
	return sales, nil
}
