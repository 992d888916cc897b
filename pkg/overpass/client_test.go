package overpass

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-cli/internal/resilience"
	"github.com/sells-group/lead-cli/internal/store"
)

const sampleResponse = `{
  "elements": [
    {
      "type": "node", "id": 101, "lat": 41.9, "lon": 12.5,
      "tags": {
        "name": "Caffè Roma", "amenity": "cafe",
        "website": "caferoma.it", "phone": "+39 06 123456",
        "addr:housenumber": "12", "addr:street": "Via del Corso", "addr:city": "Roma"
      }
    },
    {
      "type": "way", "id": 202, "center": {"lat": 41.8, "lon": 12.4},
      "tags": {
        "name": "Bar Sport", "shop": "cafe",
        "contact:website": "https://barsport.example", "contact:email": "ciao@barsport.example",
        "addr:full": "Piazza Navona 1, Roma"
      }
    },
    {"type": "node", "id": 303, "lat": 41.7, "lon": 12.3}
  ]
}`

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, Multiplier: 1}
}

func TestQuery_ParsesElements(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("data")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, sampleResponse)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRetry(fastRetry()))
	recs, err := c.Query(context.Background(), "cafe", 41.9, 12.5, 1000)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Contains(t, gotQuery, `node["amenity"="cafe"](around:1000,41.9,12.5);`)
	assert.Contains(t, gotQuery, `relation["shop"="cafe"](around:1000,41.9,12.5);`)
	assert.Contains(t, gotQuery, "out center tags;")

	first := recs[0]
	assert.Equal(t, "node/101", first.Key())
	assert.Equal(t, "Caffè Roma", *first.Name)
	assert.Equal(t, "cafe", *first.Category)
	assert.Equal(t, "caferoma.it", *first.Website)
	assert.Equal(t, "12, Via del Corso, Roma", *first.Address)
	assert.Nil(t, first.Email)
	assert.Equal(t, 41.9, *first.Latitude)

	second := recs[1]
	assert.Equal(t, "https://barsport.example", *second.Website)
	assert.Equal(t, "ciao@barsport.example", *second.Email)
	assert.Equal(t, "Piazza Navona 1, Roma", *second.Address)
	assert.Equal(t, 41.8, *second.Latitude)
	assert.Equal(t, 12.4, *second.Longitude)

	bare := recs[2]
	assert.Nil(t, bare.Name)
	assert.Nil(t, bare.Website)
	assert.Nil(t, bare.Address)
}

func TestQuery_CacheHitSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, sampleResponse)
	}))
	defer srv.Close()

	cache := store.NewMemory()
	c := NewClient(WithBaseURL(srv.URL), WithCache(cache), WithRetry(fastRetry()))

	first, err := c.Query(context.Background(), "cafe", 41.9, 12.5, 1000)
	require.NoError(t, err)
	second, err := c.Query(context.Background(), "cafe", 41.90001, 12.50001, 1000)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())

	data, err := cache.Get(context.Background(), "overpass::cafe::41.9000::12.5000::1000")
	require.NoError(t, err)
	assert.NotNil(t, data)
}

func TestQuery_EmptyResultCached(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"elements":[]}`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithCache(store.NewMemory()))
	for range 2 {
		recs, err := c.Query(context.Background(), "bakery", 1, 2, 500)
		require.NoError(t, err)
		assert.Empty(t, recs)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestQuery_RetriesGatewayTimeout(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusGatewayTimeout)
			return
		}
		_, _ = io.WriteString(w, sampleResponse)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRetry(fastRetry()))
	recs, err := c.Query(context.Background(), "cafe", 41.9, 12.5, 1000)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
	assert.Equal(t, int32(2), calls.Load())
}

func TestQuery_FailureNotCached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cache := store.NewMemory()
	c := NewClient(WithBaseURL(srv.URL), WithCache(cache), WithRetry(fastRetry()))
	_, err := c.Query(context.Background(), "cafe", 41.9, 12.5, 1000)
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestQuery_CircuitOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
		ShouldTrip:       resilience.IsTransient,
	})
	c := NewClient(
		WithBaseURL(srv.URL),
		WithRetry(resilience.RetryConfig{MaxAttempts: 1}),
		WithCircuitBreaker(cb),
	)

	for range 2 {
		_, err := c.Query(context.Background(), "cafe", 1, 2, 100)
		require.Error(t, err)
	}
	assert.Equal(t, resilience.CircuitOpen, cb.State())

	_, err := c.Query(context.Background(), "cafe", 1, 2, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Equal(t, int32(2), calls.Load())
}

func TestQuery_InvalidInput(t *testing.T) {
	c := NewClient()
	_, err := c.Query(context.Background(), "  ", 1, 2, 100)
	require.Error(t, err)
	_, err = c.Query(context.Background(), "cafe", 1, 2, 0)
	require.Error(t, err)
}

func TestBuildQuery_EscapesTerm(t *testing.T) {
	q := BuildQuery(`fast"food`, 1, 2, 300, 25*time.Second)
	assert.Contains(t, q, "[out:json][timeout:25];")
	assert.Contains(t, q, `way["amenity"="fast\"food"](around:300,1,2);`)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "overpass::cafe::41.8933::12.4829::2000", CacheKey("cafe", 41.893321, 12.482932, 2000))
}

func TestElementRecord_TrimsTags(t *testing.T) {
	el := element{Type: "node", ID: 1, Tags: map[string]string{"name": "  Shop  ", "website": ""}}
	rec := el.record()
	assert.Equal(t, "Shop", *rec.Name)
	// Present but blank stays distinguishable from absent.
	require.NotNil(t, rec.Website)
	assert.Equal(t, "", *rec.Website)
	assert.Nil(t, rec.Latitude)
}
