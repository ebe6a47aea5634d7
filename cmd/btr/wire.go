package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ishanyash/btr-propflip/internal/adapter/epc"
	"github.com/ishanyash/btr-propflip/internal/adapter/geocode"
	"github.com/ishanyash/btr-propflip/internal/adapter/googlemaps"
	"github.com/ishanyash/btr-propflip/internal/adapter/kafka"
	"github.com/ishanyash/btr-propflip/internal/adapter/landregistry"
	"github.com/ishanyash/btr-propflip/internal/adapter/llm"
	"github.com/ishanyash/btr-propflip/internal/adapter/nominatim"
	"github.com/ishanyash/btr-propflip/internal/adapter/ons"
	"github.com/ishanyash/btr-propflip/internal/adapter/overpass"
	"github.com/ishanyash/btr-propflip/internal/adapter/postcodes"
	"github.com/ishanyash/btr-propflip/internal/adapter/ppd"
	"github.com/ishanyash/btr-propflip/internal/config"
	"github.com/ishanyash/btr-propflip/internal/domain"
	"github.com/ishanyash/btr-propflip/internal/observability"
	"github.com/ishanyash/btr-propflip/internal/pipeline"
)

// app bundles the pipeline with the resources that must be released on exit.
type app struct {
	pipeline *pipeline.Pipeline
	closers  []func() error
	logger   *slog.Logger
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("close error", "error", err)
		}
	}
}

// newApp builds every configured source and the pipeline over them.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*app, error) {
	a := &app{logger: logger}

	src := pipeline.Sources{
		Geocoder:  newGeocoder(cfg, logger, metrics),
		Sales:     []domain.SaleSource{landregistry.NewClient(cfg.LandRegistryBaseURL, cfg.FetchTimeout)},
		Amenities: overpass.NewClient(cfg.OverpassBaseURL, cfg.AmenityRadiusMetres, cfg.FetchTimeout),
		Rental: ons.NewClient(cfg.ONSBaseURL, ons.Dataset{
			ID:         cfg.ONSDataset,
			Edition:    cfg.ONSEdition,
			Version:    cfg.ONSVersion,
			Dimensions: cfg.ONSDimensions,
		}, cfg.FetchTimeout),
	}

	if cfg.PPDDatabaseURL != "" {
		store, err := ppd.Open(ctx, cfg.PPDDatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open price paid store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		src.Sales = append(src.Sales, store)
		logger.Info("price paid snapshot enabled")
	}

	if cfg.EPCEnabled() {
		src.EPC = epc.NewClient(cfg.EPCBaseURL, cfg.EPCAPIEmail, cfg.EPCAPIKey, cfg.FetchTimeout)
	} else {
		logger.Info("epc lookups disabled")
	}

	curator, err := newCurator(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if curator != nil {
		src.Curator = curator
		logger.Info("llm curator enabled", "provider", cfg.LLMProvider)
	}

	opts := pipeline.Options{
		FetchTimeout:   cfg.FetchTimeout,
		LLMTimeout:     cfg.LLMTimeout,
		AreaSalesYears: cfg.AreaSalesYears,
	}
	if cfg.KafkaEnabled() {
		pub := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaReportTopic, logger, metrics)
		a.closers = append(a.closers, pub.Close)
		opts.Publisher = pub
		logger.Info("report events enabled", "topic", cfg.KafkaReportTopic)
	}

	a.pipeline = pipeline.New(src, opts, logger, metrics)
	return a, nil
}

// newGeocoder chains postcodes.io, Google Maps (when a key is set) and
// Nominatim behind the LRU cache. postcodes.io also fills in missing
// postcodes and local authority codes by reverse lookup.
func newGeocoder(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) domain.Geocoder {
	pc := postcodes.NewClient(cfg.PostcodesBaseURL, cfg.FetchTimeout)
	providers := []geocode.Provider{pc}

	if cfg.GoogleMapsAPIKey != "" {
		providers = append(providers, googlemaps.NewClient(cfg.GoogleMapsAPIKey, cfg.FetchTimeout, logger))
	} else {
		logger.Info("google maps geocoding disabled")
	}

	providers = append(providers, nominatim.NewClient(cfg.NominatimUserAgent,
		nominatim.WithBaseURL(cfg.NominatimBaseURL),
		nominatim.WithRateLimit(cfg.NominatimRateLimit),
	))

	chain := geocode.NewChain(logger, pc, providers...)
	return geocode.NewCachedGeocoder(chain, cfg.GeocodeCacheSize, metrics)
}

func newCurator(ctx context.Context, cfg *config.Config) (*llm.Curator, error) {
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		return llm.NewCurator(llm.NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel, "")), nil
	case config.ProviderGemini:
		g, err := llm.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, "")
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		return llm.NewCurator(g), nil
	default:
		return nil, nil
	}
}
