// Package apiclient holds the request plumbing shared by the HTTP data-source
// adapters: status mapping onto the domain error sentinels and JSON decoding.
package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ishanyash/btr-propflip/internal/domain"
)

// maxErrorBody caps how much of an error response is kept for the message.
const maxErrorBody = 512

// APIError is a non-2xx response from an upstream API.
type APIError struct {
	Source     string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: status %d: %s", e.Source, e.StatusCode, e.Message)
}

// Unwrap classifies the response: 404 is domain.ErrNotFound, anything else
// is domain.ErrSourceUnavailable.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return domain.ErrSourceUnavailable
}

// DoJSON executes req and decodes a 200 response body into out. A 204 or an
// empty 200 body is domain.ErrNotFound.
func DoJSON(c *http.Client, req *http.Request, source string, out any) error {
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w: %w", source, domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return fmt.Errorf("%s: empty response: %w", source, domain.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Source: source, StatusCode: resp.StatusCode, Message: string(body)}
	}

	err = json.NewDecoder(resp.Body).Decode(out)
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: empty response: %w", source, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s decode response: %w: %w", source, domain.ErrSourceUnavailable, err)
	}
	return nil
}
