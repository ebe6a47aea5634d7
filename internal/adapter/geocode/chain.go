// Package geocode combines the individual geocoding providers into one
// domain.Geocoder: an ordered fallback chain and an LRU cache decorator.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ishanyash/btr-propflip/internal/domain"
)

// Provider is a named geocoder that can take part in a Chain.
type Provider interface {
	domain.Geocoder
	Name() string
}

// Reverser finds the postcode and local authority nearest to a point.
type Reverser interface {
	Reverse(ctx context.Context, at domain.Geo) (domain.GeoResult, error)
}

// Chain asks each provider in order and returns the first answer.
type Chain struct {
	providers []Provider
	reverser  Reverser
	logger    *slog.Logger
}

// NewChain creates a fallback chain. reverser may be nil; when set it fills
// in the postcode and local authority code a free-text provider left empty.
func NewChain(logger *slog.Logger, reverser Reverser, providers ...Provider) *Chain {
	return &Chain{
		providers: providers,
		reverser:  reverser,
		logger:    logger,
	}
}

// Geocode returns the first provider's result. A provider that answers "not
// found" passes the query on quietly; one that fails is logged and skipped.
// If no provider answers, the error wraps domain.ErrSourceUnavailable when
// any provider failed, domain.ErrNotFound otherwise.
func (c *Chain) Geocode(ctx context.Context, query string) (domain.GeoResult, error) {
	if len(c.providers) == 0 {
		return domain.GeoResult{}, fmt.Errorf("geocode: %w", domain.ErrNotConfigured)
	}

	var failures []error
	for _, p := range c.providers {
		result, err := p.Geocode(ctx, query)
		if err == nil && !result.IsZero() {
			if result.Source == "" {
				result.Source = p.Name()
			}
			return c.enrich(ctx, result), nil
		}
		if err == nil || errors.Is(err, domain.ErrNotFound) {
			c.logger.Debug("geocoder has no match", "provider", p.Name(), "query", query)
			continue
		}
		c.logger.Warn("geocoder failed", "provider", p.Name(), "query", query, "error", err)
		failures = append(failures, err)
	}

	if len(failures) > 0 {
		return domain.GeoResult{}, fmt.Errorf("geocode %q: %w", query, errors.Join(failures...))
	}
	return domain.GeoResult{}, fmt.Errorf("geocode %q: %w", query, domain.ErrNotFound)
}

func (c *Chain) enrich(ctx context.Context, result domain.GeoResult) domain.GeoResult {
	if c.reverser == nil || (result.Postcode != "" && result.AdminDistrictCode != "") {
		return result
	}

	nearest, err := c.reverser.Reverse(ctx, result.Geo)
	if err != nil {
		c.logger.Debug("reverse lookup failed", "lat", result.Lat, "lon", result.Lon, "error", err)
		return result
	}
	if result.Postcode == "" {
		result.Postcode = nearest.Postcode
	}
	if result.AdminDistrict == "" || result.AdminDistrictCode == "" {
		result.AdminDistrict = nearest.AdminDistrict
		result.AdminDistrictCode = nearest.AdminDistrictCode
	}
	return result
}
