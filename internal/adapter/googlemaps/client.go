// Package googlemaps geocodes free-text UK addresses with the Google Maps
// Geocoding API.
package googlemaps

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/ishanyash/btr-propflip/internal/adapter/apiclient"
	"github.com/ishanyash/btr-propflip/internal/domain"
)

const (
	// Name identifies this geocoder in logs and metrics.
	Name = "googlemaps"

	DefaultBaseURL = "https://maps.googleapis.com"
)

// Client implements domain.Geocoder using the Google Maps Geocoding API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Google Maps geocoding client.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: DefaultBaseURL,
		logger:  logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string { return Name }

// Geocode converts an address to coordinates, restricted to Great Britain.
func (c *Client) Geocode(ctx context.Context, query string) (domain.GeoResult, error) {
	params := url.Values{
		"address":    {query},
		"key":        {c.apiKey},
		"region":     {"uk"},
		"components": {"country:GB"},
	}
	u := c.baseURL + "/maps/api/geocode/json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.GeoResult{}, fmt.Errorf("create request: %w", err)
	}

	var resp response
	if err := apiclient.DoJSON(c.httpClient, req, Name, &resp); err != nil {
		return domain.GeoResult{}, err
	}

	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return domain.GeoResult{}, fmt.Errorf("google maps %q: %w", query, domain.ErrNotFound)
	default:
		// REQUEST_DENIED, OVER_QUERY_LIMIT and friends arrive with HTTP 200.
		c.logger.Warn("google maps geocode rejected", "status", resp.Status, "error", resp.ErrorMessage)
		return domain.GeoResult{}, fmt.Errorf("google maps status %s: %w", resp.Status, domain.ErrSourceUnavailable)
	}
	if len(resp.Results) == 0 {
		return domain.GeoResult{}, fmt.Errorf("google maps %q: %w", query, domain.ErrNotFound)
	}

	r := resp.Results[0]
	result := domain.GeoResult{
		Geo:              domain.Geo{Lat: r.Geometry.Location.Lat, Lon: r.Geometry.Location.Lng},
		FormattedAddress: r.FormattedAddress,
		Confidence:       locationConfidence[r.Geometry.LocationType],
		Source:           Name,
	}
	var county, town string
	for _, comp := range r.AddressComponents {
		switch {
		case slices.Contains(comp.Types, "postal_code"):
			result.Postcode = comp.LongName
		case slices.Contains(comp.Types, "administrative_area_level_2"):
			county = comp.LongName
		case slices.Contains(comp.Types, "postal_town"):
			town = comp.LongName
		}
	}
	// The level 2 area is the local authority; the postal town only stands in.
	result.AdminDistrict = county
	if county == "" {
		result.AdminDistrict = town
	}
	return result, nil
}

// locationConfidence maps geometry.location_type onto a 0–1 score.
var locationConfidence = map[string]float64{
	"ROOFTOP":            1.0,
	"RANGE_INTERPOLATED": 0.8,
	"GEOMETRIC_CENTER":   0.6,
	"APPROXIMATE":        0.4,
}

// Google Maps API response types.

type response struct {
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message"`
	Results      []result `json:"results"`
}

type result struct {
	FormattedAddress  string      `json:"formatted_address"`
	Geometry          geometry    `json:"geometry"`
	AddressComponents []component `json:"address_components"`
}

type geometry struct {
	Location struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
	LocationType string `json:"location_type"`
}

type component struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}
