// Package epc reads domestic Energy Performance Certificates from the Open
// Data Communities EPC register.
package epc

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ishanyash/btr-propflip/internal/adapter/apiclient"
	"github.com/ishanyash/btr-propflip/internal/domain"
)

const (
	// Name identifies this source in logs, metrics, and data gaps.
	Name = "epc"

	DefaultBaseURL = "https://epc.opendatacommunities.org"

	// pageSize covers every certificate in a single postcode.
	pageSize = 1000
)

// Client implements domain.EPCSource. Requests authenticate with HTTP basic
// auth using the registered email address and API key.
type Client struct {
	email      string
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates an EPC register client.
func NewClient(baseURL, email, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		email:      email,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the source name.
func (c *Client) Name() string { return Name }

// Certificates returns every domestic certificate lodged for postcode.
func (c *Client) Certificates(ctx context.Context, postcode string) ([]domain.EPCCertificate, error) {
	pc, ok := domain.NormalizePostcode(postcode)
	if !ok {
		return nil, fmt.Errorf("epc postcode %q: %w", postcode, domain.ErrNotFound)
	}

	params := url.Values{
		"postcode": {pc},
		"size":     {strconv.Itoa(pageSize)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/domestic/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.email, c.apiKey)

	var resp searchResponse
	if err := apiclient.DoJSON(c.httpClient, req, Name, &resp); err != nil {
		return nil, err
	}
	if len(resp.Rows) == 0 {
		return nil, fmt.Errorf("epc %s: no certificates: %w", pc, domain.ErrNotFound)
	}

	certs := make([]domain.EPCCertificate, 0, len(resp.Rows))
	for _, r := range resp.Rows {
		certs = append(certs, r.toCertificate())
	}
	return certs, nil
}

// EPC API response types. Every value is a string.

type searchResponse struct {
	ColumnNames []string `json:"column-names"`
	Rows        []row    `json:"rows"`
}

type row struct {
	LMKKey                    string `json:"lmk-key"`
	Address                   string `json:"address"`
	Postcode                  string `json:"postcode"`
	CurrentEnergyRating       string `json:"current-energy-rating"`
	PotentialEnergyRating     string `json:"potential-energy-rating"`
	CurrentEnergyEfficiency   string `json:"current-energy-efficiency"`
	PotentialEnergyEfficiency string `json:"potential-energy-efficiency"`
	TotalFloorArea            string `json:"total-floor-area"`
	PropertyType              string `json:"property-type"`
	BuiltForm                 string `json:"built-form"`
	LodgementDate             string `json:"lodgement-date"`
}

func (r row) toCertificate() domain.EPCCertificate {
	cert := domain.EPCCertificate{
		CertificateID:   r.LMKKey,
		Address:         r.Address,
		Postcode:        r.Postcode,
		Rating:          domain.ParseEPCRating(r.CurrentEnergyRating),
		PotentialRating: domain.ParseEPCRating(r.PotentialEnergyRating),
		PropertyType:    r.propertyType(),
	}
	cert.CurrentEfficiency, _ = strconv.Atoi(strings.TrimSpace(r.CurrentEnergyEfficiency))
	cert.PotentialEfficiency, _ = strconv.Atoi(strings.TrimSpace(r.PotentialEnergyEfficiency))
	if area, err := strconv.ParseFloat(strings.TrimSpace(r.TotalFloorArea), 64); err == nil && area > 0 {
		cert.FloorAreaSqM = area
	}
	if t, err := time.Parse(time.DateOnly, strings.TrimSpace(r.LodgementDate)); err == nil {
		cert.LodgedAt = t
	}
	return cert
}

// propertyType prefers the built form for houses ("Semi-Detached") and the
// property type for flats and maisonettes.
func (r row) propertyType() string {
	switch strings.ToUpper(r.PropertyType) {
	case "HOUSE", "BUNGALOW":
		if domain.ParsePropertyType(r.BuiltForm) != "" {
			return r.BuiltForm
		}
	}
	return r.PropertyType
}
