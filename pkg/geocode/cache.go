package geocode

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/sells-group/lead-cli/internal/store"
)

// cacheKey folds case and whitespace so "Rome, Italy" and " rome, ITALY"
// share an entry.
func cacheKey(place string) string {
	return store.PrefixGeocode + strings.Join(strings.Fields(cases.Fold().String(place)), " ")
}

func (c *Client) cached(ctx context.Context, key string) (Point, bool) {
	if c.cache == nil {
		return Point{}, false
	}
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		zap.L().Debug("geocode: cache read failed", zap.String("key", key), zap.Error(err))
		return Point{}, false
	}
	if data == nil {
		return Point{}, false
	}
	var p Point
	if err := json.Unmarshal(data, &p); err != nil {
		zap.L().Debug("geocode: corrupt cache entry", zap.String("key", key), zap.Error(err))
		return Point{}, false
	}
	zap.L().Debug("geocode: cache hit", zap.String("key", key))
	return p, true
}

// store writes a found point. Not-found lookups are never stored.
func (c *Client) store(ctx context.Context, key string, p Point) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.cache.Put(ctx, key, data); err != nil {
		zap.L().Warn("geocode: cache write failed", zap.String("key", key), zap.Error(err))
	}
}
