// Package postcodes geocodes UK postcodes with the postcodes.io API.
package postcodes

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ishanyash/btr-propflip/internal/adapter/apiclient"
	"github.com/ishanyash/btr-propflip/internal/domain"
)

const (
	// Name identifies this geocoder in logs and metrics.
	Name = "postcodes"

	DefaultBaseURL = "https://api.postcodes.io"
)

// Client implements domain.Geocoder for queries containing a postcode.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a postcodes.io client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// Name returns the provider name.
func (c *Client) Name() string { return Name }

// Geocode resolves the first postcode found in query. Free-text addresses
// without a postcode return domain.ErrNotFound so the next provider is tried.
func (c *Client) Geocode(ctx context.Context, query string) (domain.GeoResult, error) {
	pc, ok := domain.NormalizePostcode(query)
	if !ok {
		return domain.GeoResult{}, fmt.Errorf("no postcode in %q: %w", query, domain.ErrNotFound)
	}

	u := fmt.Sprintf("%s/postcodes/%s", c.baseURL, url.PathEscape(pc))
	var resp lookupResponse
	if err := c.get(ctx, u, &resp); err != nil {
		return domain.GeoResult{}, err
	}
	return resp.Result.toGeoResult(), nil
}

// Reverse returns the nearest postcode to a point, with its local authority.
func (c *Client) Reverse(ctx context.Context, at domain.Geo) (domain.GeoResult, error) {
	params := url.Values{
		"lat":   {strconv.FormatFloat(at.Lat, 'f', 6, 64)},
		"lon":   {strconv.FormatFloat(at.Lon, 'f', 6, 64)},
		"limit": {"1"},
	}
	var resp reverseResponse
	if err := c.get(ctx, c.baseURL+"/postcodes?"+params.Encode(), &resp); err != nil {
		return domain.GeoResult{}, err
	}
	if len(resp.Result) == 0 {
		return domain.GeoResult{}, fmt.Errorf("no postcode near %.6f,%.6f: %w", at.Lat, at.Lon, domain.ErrNotFound)
	}
	return resp.Result[0].toGeoResult(), nil
}

func (c *Client) get(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return apiclient.DoJSON(c.httpClient, req, Name, out)
}

// postcodes.io response types.

type lookupResponse struct {
	Status int      `json:"status"`
	Result postcode `json:"result"`
}

type reverseResponse struct {
	Status int        `json:"status"`
	Result []postcode `json:"result"` // null when nothing is in range
}

type postcode struct {
	Postcode      string  `json:"postcode"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	AdminDistrict string  `json:"admin_district"`
	Region        string  `json:"region"`
	Codes         struct {
		AdminDistrict string `json:"admin_district"`
	} `json:"codes"`
}

func (p postcode) toGeoResult() domain.GeoResult {
	formatted := p.Postcode
	if p.AdminDistrict != "" {
		formatted += ", " + p.AdminDistrict
	}
	return domain.GeoResult{
		Geo:               domain.Geo{Lat: p.Latitude, Lon: p.Longitude},
		FormattedAddress:  formatted,
		Postcode:          p.Postcode,
		AdminDistrict:     p.AdminDistrict,
		AdminDistrictCode: p.Codes.AdminDistrict,
		Confidence:        1,
		Source:            Name,
	}
}
