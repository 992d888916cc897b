// Package geocode resolves place names to coordinates through the Nominatim
// search API.
package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-cli/internal/resilience"
)

const (
	// DefaultBaseURL is the public Nominatim instance.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"
	// DefaultUserAgent identifies the client, as required by the Nominatim
	// usage policy.
	DefaultUserAgent = "lead-cli/1.0"
)

// Point is a resolved coordinate.
type Point struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name,omitempty"`
}

// Cache is the key-value store used to memoize lookups. A miss is
// (nil, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another Nominatim instance.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRateLimit sets the requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithCache memoizes lookups in cache.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithRetry overrides the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// Client resolves places against Nominatim.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      Cache
	retry      resilience.RetryConfig
}

// NewClient creates a Client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(1, 1),
		retry:      resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Resolve geocodes place. An unknown place is (Point{}, false, nil).
func (c *Client) Resolve(ctx context.Context, place string) (Point, bool, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return Point{}, false, nil
	}

	key := cacheKey(place)
	if p, ok := c.cached(ctx, key); ok {
		return p, true, nil
	}

	cfg := c.retry
	cfg.ShouldRetry = resilience.IsTransient
	cfg.OnRetry = resilience.RetryLogger("geocode", place)
	res, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (lookup, error) {
		p, found, err := c.search(ctx, place)
		return lookup{point: p, found: found}, err
	})
	if err != nil {
		return Point{}, false, eris.Wrapf(err, "geocode: resolve %q", place)
	}
	if !res.found {
		zap.L().Debug("geocode: place not found", zap.String("place", place))
		return Point{}, false, nil
	}
	c.store(ctx, key, res.point)
	return res.point, true, nil
}

type lookup struct {
	point Point
	found bool
}

func (c *Client) search(ctx context.Context, place string) (Point, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Point{}, false, eris.Wrap(err, "geocode: rate limit")
	}

	params := url.Values{
		"format": {"json"},
		"limit":  {"1"},
		"q":      {place},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return Point{}, false, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if resilience.IsTransient(err) {
			return Point{}, false, resilience.NewTransientError(err, 0)
		}
		return Point{}, false, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return Point{}, false, resilience.HTTPStatus(req.URL.String(), resp.StatusCode, resilience.IsTransientHTTPStatus)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Point{}, false, eris.Wrap(err, "geocode: read body")
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return Point{}, false, eris.Wrap(err, "geocode: parse response")
	}
	if len(results) == 0 {
		return Point{}, false, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Point{}, false, eris.Wrap(err, "geocode: parse latitude")
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Point{}, false, eris.Wrap(err, "geocode: parse longitude")
	}
	return Point{Latitude: lat, Longitude: lon, DisplayName: results[0].DisplayName}, true, nil
}
