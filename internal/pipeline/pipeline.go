package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ishanyash/btr-propflip/internal/domain"
	"github.com/ishanyash/btr-propflip/internal/observability"
	"github.com/ishanyash/btr-propflip/internal/render"
)

const (
	defaultFetchTimeout   = 10 * time.Second
	defaultLLMTimeout     = 20 * time.Second
	defaultAreaSalesYears = 10
)

// Sources are the collaborators a report is built from. Only Geocoder is
// required; a nil source is recorded as not configured.
type Sources struct {
	Geocoder  domain.Geocoder
	Sales     []domain.SaleSource
	EPC       domain.EPCSource
	Amenities domain.AmenitySource
	Rental    domain.RentalSource
	Curator   domain.Curator
}

// Publisher announces a finished report.
type Publisher interface {
	Publish(ctx context.Context, r domain.Report) error
}

// Options tune a Pipeline. Zero values fall back to defaults.
type Options struct {
	FetchTimeout   time.Duration
	LLMTimeout     time.Duration
	AreaSalesYears int
	Publisher      Publisher
}

// Request identifies the property to report on.
type Request struct {
	Address  string
	Postcode string
}

// Result is the output of one run.
type Result struct {
	Report   domain.Report
	Markdown string
	PDF      []byte
}

// Pipeline builds property reports. Runs are serialized.
type Pipeline struct {
	src     Sources
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
	mu      sync.Mutex
}

// New creates a Pipeline over the given sources.
func New(src Sources, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.LLMTimeout <= 0 {
		opts.LLMTimeout = defaultLLMTimeout
	}
	if opts.AreaSalesYears <= 0 {
		opts.AreaSalesYears = defaultAreaSalesYears
	}
	return &Pipeline{
		src:     src,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// CheckReadiness returns nil if a geocoder is configured and every source
// that can be pinged answers.
func (p *Pipeline) CheckReadiness(ctx context.Context) error {
	if p.src.Geocoder == nil {
		return errors.New("no geocoder configured")
	}
	for _, s := range p.src.Sales {
		if pg, ok := s.(pinger); ok {
			if err := pg.Ping(ctx); err != nil {
				return fmt.Errorf("%s: %w", s.Name(), err)
			}
		}
	}
	return nil
}

// Run builds one report. Only a failed geocode or a cancelled context aborts
// the run; every other source degrades to a data gap.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	query := buildQuery(req)
	if query == "" {
		p.metrics.Reports.WithLabelValues("missing_data").Inc()
		return Result{}, fmt.Errorf("empty request: %w", domain.ErrMissingCriticalData)
	}
	logger := p.logger.With("query", query)

	raw := p.collect(ctx, logger, query, req.Postcode)
	if err := ctx.Err(); err != nil {
		p.metrics.Reports.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("report %q: %w", query, err)
	}

	profile, err := domain.Merge(raw)
	if err != nil {
		p.metrics.Reports.WithLabelValues("missing_data").Inc()
		logger.Error("report aborted", "error", err)
		return Result{}, err
	}

	score := domain.Score(profile)
	scenarios := domain.RenovationScenarios(profile, domain.Valuate(profile))
	commentary := p.curate(ctx, logger, domain.Summarize(profile, score))

	report := domain.BuildReport(uuid.New().String(), domain.Now(), profile, score, scenarios, commentary)
	md := render.Markdown(report)
	pdf, err := render.PDF(report)
	if err != nil {
		p.metrics.Reports.WithLabelValues("error").Inc()
		logger.Error("render failed", "error", err, "report_id", report.ID)
		return Result{}, fmt.Errorf("render report %s: %w", report.ID, err)
	}

	if p.opts.Publisher != nil {
		if err := p.opts.Publisher.Publish(ctx, report); err != nil {
			logger.Warn("publish failed", "error", err, "report_id", report.ID)
		}
	}

	outcome := "success"
	if profile.Incomplete {
		outcome = "incomplete"
	}
	p.metrics.Reports.WithLabelValues(outcome).Inc()
	p.metrics.ReportDuration.Observe(time.Since(start).Seconds())
	p.metrics.InvestmentScore.Observe(score.Total)

	logger.Info("report generated",
		"report_id", report.ID,
		"postcode", profile.Postcode,
		"score", score.Total,
		"category", score.Category,
		"gaps", len(profile.Gaps),
		"curated", commentary.Available,
		"duration", time.Since(start),
	)
	return Result{Report: report, Markdown: md, PDF: pdf}, nil
}

// collect queries every source for one request. Sources that depend on the
// geocode are skipped when it fails, since Merge will reject the run anyway.
func (p *Pipeline) collect(ctx context.Context, logger *slog.Logger, query, postcode string) domain.RawRecords {
	raw := domain.RawRecords{
		Query:    query,
		Postcode: postcode,
		AsOf:     domain.Now(),
	}

	raw.Geo = fetch(ctx, p, logger, "geocode", p.src.Geocoder != nil, func(ctx context.Context) (domain.GeoResult, error) {
		return p.src.Geocoder.Geocode(ctx, query)
	})
	if raw.Geo.Err != nil {
		return raw
	}

	geo := raw.Geo.Value
	pc := domain.ResolvePostcode(geo.Postcode, postcode, query)
	district := domain.PostcodeDistrict(pc)
	since := raw.AsOf.AddDate(-p.opts.AreaSalesYears, 0, 0)

	if len(p.src.Sales) == 0 {
		raw.PostcodeSales = append(raw.PostcodeSales, domain.Fetched[[]domain.SaleRecord]{Source: "sales", Err: domain.ErrNotConfigured})
	}
	for _, s := range p.src.Sales {
		raw.PostcodeSales = append(raw.PostcodeSales, fetch(ctx, p, logger, s.Name(), pc != "", func(ctx context.Context) ([]domain.SaleRecord, error) {
			return s.SalesByPostcode(ctx, pc)
		}))
		raw.DistrictSales = append(raw.DistrictSales, fetch(ctx, p, logger, s.Name()+"_district", district != "", func(ctx context.Context) ([]domain.SaleRecord, error) {
			return s.SalesByDistrict(ctx, district, since)
		}))
	}

	raw.EPC = fetch(ctx, p, logger, sourceName(p.src.EPC, "epc"), p.src.EPC != nil && pc != "", func(ctx context.Context) ([]domain.EPCCertificate, error) {
		return p.src.EPC.Certificates(ctx, pc)
	})
	raw.Amenities = fetch(ctx, p, logger, sourceName(p.src.Amenities, "amenities"), p.src.Amenities != nil, func(ctx context.Context) (map[domain.AmenityCategory]int, error) {
		return p.src.Amenities.Amenities(ctx, geo.Geo)
	})
	raw.Rental = fetch(ctx, p, logger, sourceName(p.src.Rental, "rental"), p.src.Rental != nil && geo.AdminDistrictCode != "", func(ctx context.Context) (domain.RentalBenchmark, error) {
		return p.src.Rental.Benchmark(ctx, geo.AdminDistrictCode)
	})
	return raw
}

// curate asks the curator for commentary. Any failure leaves the commentary
// unavailable; the score is computed before this and is never touched.
func (p *Pipeline) curate(ctx context.Context, logger *slog.Logger, summary domain.ValuationSummary) domain.Commentary {
	if p.src.Curator == nil {
		p.metrics.CuratorRequests.WithLabelValues("disabled").Inc()
		return domain.Unavailable()
	}

	cctx, cancel := context.WithTimeout(ctx, p.opts.LLMTimeout)
	defer cancel()

	c, err := p.src.Curator.Curate(cctx, summary)
	if err != nil {
		if !errors.Is(err, domain.ErrCuratorUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrCuratorUnavailable, err)
		}
		p.metrics.CuratorRequests.WithLabelValues("unavailable").Inc()
		logger.Warn("curator unavailable", "error", err)
		return domain.Unavailable()
	}
	c.Available = true
	p.metrics.CuratorRequests.WithLabelValues("success").Inc()
	return c
}

// buildQuery appends the explicit postcode to the address unless the address
// already carries it.
func buildQuery(req Request) string {
	addr := strings.Join(strings.Fields(req.Address), " ")
	pc, ok := domain.NormalizePostcode(req.Postcode)
	switch {
	case !ok:
		return addr
	case addr == "":
		return pc
	}
	if have, found := domain.NormalizePostcode(addr); found && have == pc {
		return addr
	}
	return addr + ", " + pc
}
