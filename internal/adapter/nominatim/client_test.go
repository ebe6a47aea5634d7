package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ishanyash/btr-propflip/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserAgent = "btr-propflip-test/1.0"

const downingStreet = `[{
  "lat": "51.5033635",
  "lon": "-0.1276248",
  "display_name": "10 Downing Street, Westminster, London, SW1A 2AA, United Kingdom",
  "importance": 0.72,
  "address": {"postcode": "SW1A 2AA", "city": "London"}
}]`

func testClient(baseURL string) *Client {
	return NewClient(testUserAgent,
		WithBaseURL(baseURL),
		WithHTTPClient(&http.Client{Timeout: 5 * time.Second}),
		WithRateLimit(1000),
	)
}

func TestClient_Geocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "10 Downing Street, London", r.URL.Query().Get("q"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "gb", r.URL.Query().Get("countrycodes"))
		_, _ = w.Write([]byte(downingStreet))
	}))
	defer srv.Close()

	result, err := testClient(srv.URL).Geocode(context.Background(), "10 Downing Street, London")
	require.NoError(t, err)

	assert.Equal(t, 51.5033635, result.Lat)
	assert.Equal(t, -0.1276248, result.Lon)
	assert.Equal(t, "SW1A 2AA", result.Postcode)
	assert.Equal(t, "London", result.AdminDistrict)
	assert.InDelta(t, 0.72, result.Confidence, 1e-9)
	assert.Equal(t, Name, result.Source)
}

func TestClient_Geocode_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Geocode(context.Background(), "Nowhere Lane")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_Geocode_BadCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"north","lon":"-0.1"}]`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Geocode(context.Background(), "Downing Street")
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestClient_Geocode_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("Access blocked"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Geocode(context.Background(), "Downing Street")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "403")
}

func TestClient_Geocode_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(downingStreet))
	}))
	defer srv.Close()

	c := NewClient(testUserAgent, WithBaseURL(srv.URL), WithRateLimit(1))

	_, err := c.Geocode(context.Background(), "Downing Street")
	require.NoError(t, err)

	// The bucket is empty until a second has passed.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = c.Geocode(ctx, "Downing Street")

	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}
