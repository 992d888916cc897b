package crawler

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/store"
	"github.com/sells-group/lead-cli/internal/weburl"
)

// Cache holds crawl results keyed by normalized website URL. Entries are
// never expired. An entry that cannot be read or decoded is a miss and is
// replaced by the next successful crawl.
type Cache struct {
	store store.Store
}

// NewCache wraps st.
func NewCache(st store.Store) *Cache {
	return &Cache{store: st}
}

// Key returns the store key for a website value.
func Key(rawURL string) (string, bool) {
	u, ok := weburl.Normalize(rawURL)
	if !ok {
		return "", false
	}
	return store.PrefixCrawl + u, true
}

// Get returns the cached result for rawURL.
func (c *Cache) Get(ctx context.Context, rawURL string) (model.CrawlResult, bool) {
	key, ok := Key(rawURL)
	if !ok {
		return model.CrawlResult{}, false
	}
	data, err := c.store.Get(ctx, key)
	if err != nil {
		zap.L().Debug("crawl cache: read failed, treating as miss",
			zap.String("key", key), zap.Error(err))
		return model.CrawlResult{}, false
	}
	if data == nil {
		return model.CrawlResult{}, false
	}

	var r model.CrawlResult
	if err := json.Unmarshal(data, &r); err != nil || r.URL == "" {
		zap.L().Debug("crawl cache: corrupt entry, treating as miss",
			zap.String("key", key), zap.Error(err))
		return model.CrawlResult{}, false
	}
	if r.Social == nil {
		r.Social = model.SocialLinks{}
	}
	return r, true
}

// Put stores r under rawURL, replacing any existing entry.
func (c *Cache) Put(ctx context.Context, rawURL string, r model.CrawlResult) error {
	key, ok := Key(rawURL)
	if !ok {
		return eris.Errorf("crawl cache: invalid url %q", rawURL)
	}
	data, err := json.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "crawl cache: marshal")
	}
	return eris.Wrap(c.store.Put(ctx, key, data), "crawl cache: put")
}

// Delete drops the entry for rawURL.
func (c *Cache) Delete(ctx context.Context, rawURL string) error {
	key, ok := Key(rawURL)
	if !ok {
		return eris.Errorf("crawl cache: invalid url %q", rawURL)
	}
	return eris.Wrap(c.store.Delete(ctx, key), "crawl cache: delete")
}
