package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// LLM provider names.
const (
	ProviderNone      = "none"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	OutputDir       string

	// FetchTimeout bounds every individual data-source call.
	FetchTimeout     time.Duration
	GeocodeCacheSize int

	PostcodesBaseURL   string
	GoogleMapsAPIKey   string
	NominatimBaseURL   string
	NominatimUserAgent string
	NominatimRateLimit float64

	LandRegistryBaseURL string
	PPDDatabaseURL      string
	// AreaSalesYears is how far back district comparables are fetched.
	AreaSalesYears      int

	EPCBaseURL  string
	EPCAPIEmail string
	EPCAPIKey   string

	OverpassBaseURL     string
	AmenityRadiusMetres int
	ONSBaseURL          string
	ONSDataset          string
	ONSEdition          string
	ONSVersion          string
	ONSDimensions       map[string]string

	LLMProvider     string
	AnthropicAPIKey string
	AnthropicModel  string
	GeminiAPIKey    string
	GeminiModel     string
	LLMTimeout      time.Duration

	KafkaBrokers     []string
	KafkaReportTopic string
}

// EPCEnabled reports whether both EPC credentials are set.
func (c *Config) EPCEnabled() bool {
	return c.EPCAPIEmail != "" && c.EPCAPIKey != ""
}

// KafkaEnabled reports whether report events should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first if present;
// variables already set in the environment take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	llmTimeout, err := parseDuration("LLM_TIMEOUT", "20s")
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("GEOCODE_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	radius, err := parsePositiveInt("AMENITY_RADIUS_METRES", 1000)
	if err != nil {
		return nil, err
	}
	rateLimit, err := parsePositiveFloat("NOMINATIM_RATE_LIMIT", 1)
	if err != nil {
		return nil, err
	}
	areaYears, err := parsePositiveInt("AREA_SALES_YEARS", 10)
	if err != nil {
		return nil, err
	}
	dimensions, err := parsePairs("ONS_DIMENSIONS")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		OutputDir:       sharedcfg.EnvOrDefault("OUTPUT_DIR", "reports"),

		FetchTimeout:     fetchTimeout,
		GeocodeCacheSize: cacheSize,

		PostcodesBaseURL:   sharedcfg.EnvOrDefault("POSTCODES_BASE_URL", "https://api.postcodes.io"),
		GoogleMapsAPIKey:   os.Getenv("GOOGLE_MAPS_API_KEY"),
		NominatimBaseURL:   sharedcfg.EnvOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: sharedcfg.EnvOrDefault("NOMINATIM_USER_AGENT", "btr-propflip/1.0"),
		NominatimRateLimit: rateLimit,

		LandRegistryBaseURL: sharedcfg.EnvOrDefault("LAND_REGISTRY_BASE_URL", "https://landregistry.data.gov.uk"),
		PPDDatabaseURL:      os.Getenv("PPD_DATABASE_URL"),
		AreaSalesYears:      areaYears,

		EPCBaseURL:  sharedcfg.EnvOrDefault("EPC_BASE_URL", "https://epc.opendatacommunities.org"),
		EPCAPIEmail: os.Getenv("EPC_API_EMAIL"),
		EPCAPIKey:   os.Getenv("EPC_API_KEY"),

		OverpassBaseURL:     sharedcfg.EnvOrDefault("OVERPASS_BASE_URL", "https://overpass-api.de"),
		AmenityRadiusMetres: radius,
		ONSBaseURL:          sharedcfg.EnvOrDefault("ONS_BASE_URL", "https://api.beta.ons.gov.uk/v1"),
		ONSDataset:          sharedcfg.EnvOrDefault("ONS_DATASET", "price-index-of-private-rents"),
		ONSEdition:          sharedcfg.EnvOrDefault("ONS_EDITION", "time-series"),
		ONSVersion:          sharedcfg.EnvOrDefault("ONS_VERSION", "latest"),
		ONSDimensions:       dimensions,

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  sharedcfg.EnvOrDefault("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     sharedcfg.EnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		LLMTimeout:      llmTimeout,

		KafkaBrokers:     sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaReportTopic: sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "btr-reports"),
	}

	cfg.LLMProvider = strings.ToLower(os.Getenv("LLM_PROVIDER"))
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = inferProvider(cfg)
	}

	switch cfg.LLMProvider {
	case ProviderNone:
	case ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, errors.New("LLM_PROVIDER is anthropic but ANTHROPIC_API_KEY is not set")
		}
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, errors.New("LLM_PROVIDER is gemini but GEMINI_API_KEY is not set")
		}
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER %q: want anthropic, gemini or none", cfg.LLMProvider)
	}

	if (cfg.EPCAPIEmail == "") != (cfg.EPCAPIKey == "") {
		return nil, errors.New("EPC_API_EMAIL and EPC_API_KEY must be set together")
	}
	if cfg.KafkaEnabled() && cfg.KafkaReportTopic == "" {
		return nil, errors.New("KAFKA_REPORT_TOPIC is required when KAFKA_BROKERS is set")
	}
	if cfg.NominatimUserAgent == "" {
		return nil, errors.New("NOMINATIM_USER_AGENT is required")
	}

	return cfg, nil
}

func inferProvider(cfg *Config) string {
	switch {
	case cfg.AnthropicAPIKey != "":
		return ProviderAnthropic
	case cfg.GeminiAPIKey != "":
		return ProviderGemini
	default:
		return ProviderNone
	}
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parsePositiveFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive number", key)
	}
	return f, nil
}

// parsePairs reads a "key=value,key=value" list.
func parsePairs(key string) (map[string]string, error) {
	s := os.Getenv(key)
	if s == "" {
		return nil, nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("invalid %s: want key=value pairs separated by commas", key)
		}
		out[k] = v
	}
	return out, nil
}
