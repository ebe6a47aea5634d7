package domain

import "errors"

var (
	// ErrMissingCriticalData aborts a report: the address could not be geocoded.
	ErrMissingCriticalData = errors.New("missing critical data")

	// ErrSourceUnavailable marks a transport, timeout, or upstream failure.
	// The affected fields degrade to null and the run continues.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrNotFound means the source answered but holds nothing for the query.
	ErrNotFound = errors.New("not found")

	// ErrCuratorUnavailable means the LLM curator produced no usable commentary.
	ErrCuratorUnavailable = errors.New("curator unavailable")
)

// ErrNotConfigured marks an optional source that has no credentials or
// endpoint configured. It is reported as a data gap, never as a failure.
var ErrNotConfigured = errors.New("source not configured")
