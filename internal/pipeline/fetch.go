package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ishanyash/btr-propflip/internal/domain"
)

// Fetch outcomes recorded on btr_fetch_requests_total.
const (
	outcomeSuccess     = "success"
	outcomeNotFound    = "not_found"
	outcomeUnavailable = "unavailable"
	outcomeTimeout     = "timeout"
	outcomeSkipped     = "skipped"
)

// fetch runs one source call under the fetch timeout and converts its result
// into a Fetched value for Merge. When enabled is false the call is skipped
// and recorded as not configured.
func fetch[T any](ctx context.Context, p *Pipeline, logger *slog.Logger, source string, enabled bool, call func(context.Context) (T, error)) domain.Fetched[T] {
	out := domain.Fetched[T]{Source: source}
	if !enabled {
		p.metrics.FetchRequests.WithLabelValues(source, outcomeSkipped).Inc()
		out.Err = domain.ErrNotConfigured
		return out
	}

	fctx, cancel := context.WithTimeout(ctx, p.opts.FetchTimeout)
	defer cancel()

	start := time.Now()
	v, err := call(fctx)
	p.metrics.FetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

	outcome := outcomeSuccess
	switch {
	case err == nil:
		out.Value = v
	case errors.Is(err, domain.ErrNotConfigured):
		outcome = outcomeSkipped
	case errors.Is(err, domain.ErrNotFound):
		outcome = outcomeNotFound
		logger.Debug("source has no data", "source", source, "error", err)
	case ctx.Err() == nil && errors.Is(fctx.Err(), context.DeadlineExceeded):
		outcome = outcomeTimeout
		err = fmt.Errorf("%s timed out after %s: %w: %w", source, p.opts.FetchTimeout, domain.ErrSourceUnavailable, err)
		logger.Warn("fetch timed out", "source", source, "timeout", p.opts.FetchTimeout)
	default:
		outcome = outcomeUnavailable
		if !errors.Is(err, domain.ErrSourceUnavailable) {
			err = fmt.Errorf("%s: %w: %w", source, domain.ErrSourceUnavailable, err)
		}
		logger.Warn("fetch failed", "source", source, "error", err)
	}
	out.Err = err
	p.metrics.FetchRequests.WithLabelValues(source, outcome).Inc()
	return out
}

type named interface {
	Name() string
}

func sourceName(src any, fallback string) string {
	if n, ok := src.(named); ok {
		return n.Name()
	}
	return fallback
}
