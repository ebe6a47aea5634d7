// Package nominatim geocodes free-text addresses with OpenStreetMap Nominatim.
// The public instance allows one request per second per client, so every call
// waits on a rate limiter before it is sent.
package nominatim

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/ishanyash/btr-propflip/internal/adapter/apiclient"
	"github.com/ishanyash/btr-propflip/internal/domain"
)

const (
	// Name identifies this geocoder in logs and metrics.
	Name = "nominatim"

	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 1.0
)

// Client implements domain.Geocoder using the Nominatim search API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit sets the allowed requests per second.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewClient creates a Nominatim client. userAgent is mandatory under the
// OSM usage policy.
func NewClient(userAgent string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the provider name.
func (c *Client) Name() string { return Name }

// Geocode searches for query within Great Britain and returns the best match.
func (c *Client) Geocode(ctx context.Context, query string) (domain.GeoResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.GeoResult{}, fmt.Errorf("nominatim rate limit: %w: %w", domain.ErrSourceUnavailable, err)
	}

	params := url.Values{
		"q":              {query},
		"format":         {"jsonv2"},
		"countrycodes":   {"gb"},
		"limit":          {"1"},
		"addressdetails": {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return domain.GeoResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	var places []place
	if err := apiclient.DoJSON(c.httpClient, req, Name, &places); err != nil {
		return domain.GeoResult{}, err
	}
	if len(places) == 0 {
		return domain.GeoResult{}, fmt.Errorf("nominatim %q: %w", query, domain.ErrNotFound)
	}
	return places[0].toGeoResult()
}

// Nominatim response types. Coordinates arrive as strings.

type place struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
	Address     struct {
		Postcode string `json:"postcode"`
		City     string `json:"city"`
		Town     string `json:"town"`
		County   string `json:"county"`
	} `json:"address"`
}

func (p place) toGeoResult() (domain.GeoResult, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return domain.GeoResult{}, fmt.Errorf("nominatim lat %q: %w: %w", p.Lat, domain.ErrSourceUnavailable, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return domain.GeoResult{}, fmt.Errorf("nominatim lon %q: %w: %w", p.Lon, domain.ErrSourceUnavailable, err)
	}

	district := p.Address.City
	if district == "" {
		district = p.Address.Town
	}
	if district == "" {
		district = p.Address.County
	}

	return domain.GeoResult{
		Geo:              domain.Geo{Lat: lat, Lon: lon},
		FormattedAddress: p.DisplayName,
		Postcode:         p.Address.Postcode,
		AdminDistrict:    district,
		Confidence:       min(p.Importance, 1),
		Source:           Name,
	}, nil
}
