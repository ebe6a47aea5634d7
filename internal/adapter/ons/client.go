// Package ons reads private rent benchmarks from the ONS Customise My Data
// API (api.beta.ons.gov.uk).
package ons

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ishanyash/btr-propflip/internal/adapter/apiclient"
	"github.com/ishanyash/btr-propflip/internal/domain"
)

const (
	// Name identifies this source in logs, metrics, and data gaps.
	Name = "ons"

	DefaultBaseURL = "https://api.beta.ons.gov.uk/v1"
	DefaultDataset = "price-index-of-private-rents"
	DefaultEdition = "time-series"

	// LatestVersion resolves to the edition's newest published version.
	LatestVersion = "latest"
)

// Dataset selects one edition and version of an ONS dataset.
type Dataset struct {
	ID      string
	Edition string
	Version string
	// Dimensions pins any dimensions besides time and geography, which the
	// observations endpoint requires to be fully specified.
	Dimensions map[string]string
}

// Client implements domain.RentalSource.
type Client struct {
	httpClient *http.Client
	baseURL    string
	dataset    Dataset
}

// NewClient creates an ONS client for dataset.
func NewClient(baseURL string, dataset Dataset, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if dataset.ID == "" {
		dataset.ID = DefaultDataset
	}
	if dataset.Edition == "" {
		dataset.Edition = DefaultEdition
	}
	if dataset.Version == "" {
		dataset.Version = LatestVersion
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		dataset:    dataset,
	}
}

// Name returns the source name.
func (c *Client) Name() string { return Name }

// Benchmark returns the latest monthly private rent for a local authority
// GSS code, with the change against the same month a year earlier.
func (c *Client) Benchmark(ctx context.Context, areaCode string) (domain.RentalBenchmark, error) {
	areaCode = strings.ToUpper(strings.TrimSpace(areaCode))
	if areaCode == "" {
		return domain.RentalBenchmark{}, fmt.Errorf("ons: no area code: %w", domain.ErrNotFound)
	}

	version, err := c.resolveVersion(ctx)
	if err != nil {
		return domain.RentalBenchmark{}, err
	}

	params := url.Values{"time": {"*"}, "geography": {areaCode}}
	for dim, v := range c.dataset.Dimensions {
		params.Set(dim, v)
	}
	u := fmt.Sprintf("%s/versions/%s/observations?%s", c.editionURL(), url.PathEscape(version), params.Encode())

	var resp observationsResponse
	if err := c.get(ctx, u, &resp); err != nil {
		return domain.RentalBenchmark{}, err
	}
	return resp.benchmark(areaCode)
}

func (c *Client) editionURL() string {
	return fmt.Sprintf("%s/datasets/%s/editions/%s", c.baseURL, url.PathEscape(c.dataset.ID), url.PathEscape(c.dataset.Edition))
}

func (c *Client) resolveVersion(ctx context.Context) (string, error) {
	if c.dataset.Version != LatestVersion {
		return c.dataset.Version, nil
	}
	var ed edition
	if err := c.get(ctx, c.editionURL(), &ed); err != nil {
		return "", err
	}
	if ed.Links.LatestVersion.ID == "" {
		return "", fmt.Errorf("ons edition %s has no latest version: %w", c.dataset.Edition, domain.ErrSourceUnavailable)
	}
	return ed.Links.LatestVersion.ID, nil
}

func (c *Client) get(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return apiclient.DoJSON(c.httpClient, req, Name, out)
}

// ONS API response types.

type edition struct {
	Links struct {
		LatestVersion struct {
			HRef string `json:"href"`
			ID   string `json:"id"`
		} `json:"latest_version"`
	} `json:"links"`
}

type observationsResponse struct {
	Observations []observation `json:"observations"`
}

type observation struct {
	Dimensions  map[string]dimension `json:"dimensions"`
	Observation string               `json:"observation"`
}

type dimension struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// dimension looks a dimension up by name, ignoring case ("Time" or "time").
func (o observation) dimension(name string) dimension {
	for k, d := range o.Dimensions {
		if strings.EqualFold(k, name) {
			return d
		}
	}
	return dimension{}
}

type point struct {
	month time.Time
	label string
	rent  float64
}

// monthLayouts are the period formats ONS uses for monthly series.
var monthLayouts = []string{"Jan-06", "2006-01", "Jan 2006", "January 2006"}

func parseMonth(s string) (time.Time, bool) {
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (r observationsResponse) benchmark(areaCode string) (domain.RentalBenchmark, error) {
	var (
		points   []point
		areaName string
	)
	for _, o := range r.Observations {
		rent, ok := parseRent(o.Observation)
		if !ok {
			continue
		}
		t := o.dimension("time")
		month, ok := parseMonth(t.ID)
		if !ok {
			if month, ok = parseMonth(t.Label); !ok {
				continue
			}
		}
		label := t.Label
		if label == "" {
			label = t.ID
		}
		points = append(points, point{month: month, label: label, rent: rent})
		if areaName == "" {
			areaName = o.dimension("geography").Label
		}
	}
	if len(points) == 0 {
		return domain.RentalBenchmark{}, fmt.Errorf("ons %s: no observations: %w", areaCode, domain.ErrNotFound)
	}

	slices.SortFunc(points, func(a, b point) int { return a.month.Compare(b.month) })
	latest := points[len(points)-1]

	b := domain.RentalBenchmark{
		AreaCode:    areaCode,
		AreaName:    areaName,
		MonthlyRent: latest.rent,
		Period:      latest.label,
	}
	yearAgo := latest.month.AddDate(-1, 0, 0)
	if i := slices.IndexFunc(points, func(p point) bool { return p.month.Equal(yearAgo) }); i >= 0 && points[i].rent > 0 {
		growth := (latest.rent/points[i].rent - 1) * 100
		b.AnnualGrowthPct = &growth
	}
	return b, nil
}

func parseRent(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
