// Package overpass queries the OpenStreetMap Overpass API for businesses
// around a point.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/resilience"
	"github.com/sells-group/lead-cli/internal/store"
)

// DefaultBaseURL is the main public Overpass instance.
const DefaultBaseURL = "https://overpass-api.de/api/interpreter"

// DefaultTimeout is the server-side query timeout.
const DefaultTimeout = 60 * time.Second

// Cache memoizes query results. A miss is (nil, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the interpreter endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the Overpass query timeout. The HTTP timeout is derived
// from it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithCache memoizes results in cache.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithRetry overrides the retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithCircuitBreaker overrides the breaker guarding the endpoint.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

// Client runs Overpass QL queries.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	cache   Cache
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// NewClient creates a Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout + 10*time.Second}
	}
	if c.breaker == nil {
		c.breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: 3,
			ResetTimeout:     time.Minute,
			ShouldTrip:       resilience.IsTransient,
			OnStateChange: func(from, to resilience.CircuitState) {
				zap.L().Warn("overpass: circuit state change",
					zap.Stringer("from", from),
					zap.Stringer("to", to),
				)
			},
		})
	}
	return c
}

// CacheKey returns the cache key for a query.
func CacheKey(term string, lat, lon float64, radius int) string {
	return fmt.Sprintf("%s%s::%.4f::%.4f::%d", store.PrefixOverpass, term, lat, lon, radius)
}

// Query returns the nodes, ways and relations tagged amenity=term or
// shop=term within radius meters of (lat, lon).
func (c *Client) Query(ctx context.Context, term string, lat, lon float64, radius int) ([]model.RawRecord, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, eris.New("overpass: empty search term")
	}
	if radius <= 0 {
		return nil, eris.Errorf("overpass: invalid radius %d", radius)
	}

	key := CacheKey(term, lat, lon, radius)
	if recs, ok := c.cached(ctx, key); ok {
		return recs, nil
	}

	cfg := c.retry
	cfg.ShouldRetry = resilience.IsTransient
	cfg.OnRetry = resilience.RetryLogger("overpass", term)

	q := BuildQuery(term, lat, lon, radius, c.timeout)
	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*response, error) {
		return resilience.ExecuteVal(ctx, c.breaker, func(ctx context.Context) (*response, error) {
			return c.do(ctx, q)
		})
	})
	if err != nil {
		return nil, eris.Wrapf(err, "overpass: query %q", term)
	}

	recs := resp.records()
	zap.L().Debug("overpass: query complete",
		zap.String("term", term),
		zap.Int("radius", radius),
		zap.Int("elements", len(recs)),
	)
	c.store(ctx, key, recs)
	return recs, nil
}

// BuildQuery renders the Overpass QL for a term search.
func BuildQuery(term string, lat, lon float64, radius int, timeout time.Duration) string {
	term = strings.ReplaceAll(term, `\`, `\\`)
	term = strings.ReplaceAll(term, `"`, `\"`)
	around := fmt.Sprintf("(around:%d,%g,%g)", radius, lat, lon)

	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", int(timeout.Seconds()))
	for _, tag := range []string{"amenity", "shop"} {
		for _, kind := range []string{"node", "way", "relation"} {
			fmt.Fprintf(&b, "  %s[\"%s\"=\"%s\"]%s;\n", kind, tag, term, around)
		}
	}
	b.WriteString(");\nout center tags;\n")
	return b.String()
}

func (c *Client) do(ctx context.Context, q string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+url.Values{"data": {q}}.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if resilience.IsTransient(err) && ctx.Err() == nil {
			return nil, resilience.NewTransientError(err, 0)
		}
		return nil, eris.Wrap(err, "overpass: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.HTTPStatus(c.baseURL, resp.StatusCode, resilience.IsTransientHTTPStatus)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: read response")
	}

	var out response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "overpass: unmarshal response")
	}
	return &out, nil
}

func (c *Client) cached(ctx context.Context, key string) ([]model.RawRecord, bool) {
	if c.cache == nil {
		return nil, false
	}
	data, err := c.cache.Get(ctx, key)
	if err != nil || data == nil {
		if err != nil {
			zap.L().Debug("overpass: cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var recs []model.RawRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		zap.L().Debug("overpass: corrupt cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return recs, true
}

func (c *Client) store(ctx context.Context, key string, recs []model.RawRecord) {
	if c.cache == nil {
		return
	}
	if recs == nil {
		recs = []model.RawRecord{}
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return
	}
	if err := c.cache.Put(ctx, key, data); err != nil {
		zap.L().Warn("overpass: cache write failed", zap.String("key", key), zap.Error(err))
	}
}
