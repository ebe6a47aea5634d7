// Package overpass counts OpenStreetMap amenities around a point using the
// Overpass API.
package overpass

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ishanyash/btr-propflip/internal/adapter/apiclient"
	"github.com/ishanyash/btr-propflip/internal/domain"
)

const (
	// Name identifies this source in logs, metrics, and data gaps.
	Name = "overpass"

	DefaultBaseURL = "https://overpass-api.de"
	DefaultRadius  = 1000
)

// Client implements domain.AmenitySource.
type Client struct {
	httpClient *http.Client
	baseURL    string
	radius     int
}

// NewClient creates an Overpass client that searches radius metres around
// each point.
func NewClient(baseURL string, radius int, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if radius <= 0 {
		radius = DefaultRadius
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		radius:     radius,
	}
}

// Name returns the source name.
func (c *Client) Name() string { return Name }

// Amenities returns amenity counts per category. Every scored category is
// present in the result, with zero when nothing of that kind is nearby.
func (c *Client) Amenities(ctx context.Context, at domain.Geo) (map[domain.AmenityCategory]int, error) {
	form := url.Values{"data": {buildQuery(at, c.radius)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/interpreter", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp response
	if err := apiclient.DoJSON(c.httpClient, req, Name, &resp); err != nil {
		return nil, err
	}
	if resp.Remark != "" && len(resp.Elements) == 0 {
		// Overpass reports query timeouts and memory limits as a 200 with a remark.
		return nil, fmt.Errorf("overpass: %s: %w", resp.Remark, domain.ErrSourceUnavailable)
	}

	counts := make(map[domain.AmenityCategory]int, len(domain.AmenityCategories)+1)
	for _, cat := range domain.AmenityCategories {
		counts[cat] = 0
	}
	for _, e := range resp.Elements {
		counts[Classify(e.Tags)]++
	}
	return counts, nil
}

func buildQuery(at domain.Geo, radius int) string {
	around := fmt.Sprintf("(around:%d,%.6f,%.6f)", radius, at.Lat, at.Lon)
	var b strings.Builder
	b.WriteString("[out:json][timeout:25];\n(\n")
	for _, sel := range []string{
		"nwr" + around + "[amenity]",
		"nwr" + around + "[shop]",
		"nwr" + around + "[healthcare]",
		"nwr" + around + `[leisure~"^(park|sports_centre|fitness_centre|playground|swimming_pool)$"]`,
		"node" + around + "[highway=bus_stop]",
		"node" + around + `[railway~"^(station|halt|tram_stop|subway_entrance)$"]`,
	} {
		b.WriteString("  " + sel + ";\n")
	}
	b.WriteString(");\nout tags;")
	return b.String()
}

var amenityCategories = map[string]domain.AmenityCategory{
	"bus_station":      domain.AmenityTransport,
	"ferry_terminal":   domain.AmenityTransport,
	"taxi":             domain.AmenityTransport,
	"bicycle_rental":   domain.AmenityTransport,
	"restaurant":       domain.AmenityFood,
	"cafe":             domain.AmenityFood,
	"fast_food":        domain.AmenityFood,
	"pub":              domain.AmenityFood,
	"bar":              domain.AmenityFood,
	"food_court":       domain.AmenityFood,
	"marketplace":      domain.AmenityShopping,
	"hospital":         domain.AmenityHealthcare,
	"clinic":           domain.AmenityHealthcare,
	"doctors":          domain.AmenityHealthcare,
	"dentist":          domain.AmenityHealthcare,
	"pharmacy":         domain.AmenityHealthcare,
	"school":           domain.AmenityEducation,
	"college":          domain.AmenityEducation,
	"university":       domain.AmenityEducation,
	"kindergarten":     domain.AmenityEducation,
	"library":          domain.AmenityEducation,
	"cinema":           domain.AmenityLeisure,
	"theatre":          domain.AmenityLeisure,
	"arts_centre":      domain.AmenityLeisure,
	"community_centre": domain.AmenityLeisure,
}

// Classify assigns one OSM element to an amenity category by its tags.
func Classify(tags map[string]string) domain.AmenityCategory {
	if tags["railway"] != "" || tags["highway"] == "bus_stop" {
		return domain.AmenityTransport
	}
	if cat, ok := amenityCategories[tags["amenity"]]; ok {
		return cat
	}
	switch {
	case tags["shop"] != "":
		return domain.AmenityShopping
	case tags["healthcare"] != "":
		return domain.AmenityHealthcare
	case tags["leisure"] != "":
		return domain.AmenityLeisure
	default:
		return domain.AmenityOther
	}
}

// Overpass API response types.

type response struct {
	Remark   string    `json:"remark"`
	Elements []element `json:"elements"`
}

type element struct {
	Type string            `json:"type"`
	ID   int64             `json:"id"`
	Tags map[string]string `json:"tags"`
}
