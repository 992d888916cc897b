// Package crawler visits a business website and collects its contact
// details, following a bounded number of contact/about pages.
package crawler

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/contact"
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/resilience"
	"github.com/sells-group/lead-cli/internal/scrape"
	"github.com/sells-group/lead-cli/internal/weburl"
)

// DefaultMaxFollow caps the sub-pages fetched per site.
const DefaultMaxFollow = 5

// Crawler fetches a landing page plus up to MaxFollow linked sub-pages.
// It never returns an error: failures yield an empty CrawlResult.
type Crawler struct {
	fetcher   scrape.Fetcher
	cache     *Cache
	extractor *contact.Extractor
	matcher   *scrape.PathMatcher
	retry     resilience.RetryConfig
	maxFollow int
	refresh   bool
	now       func() time.Time
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithCache enables result caching.
func WithCache(c *Cache) Option {
	return func(cr *Crawler) { cr.cache = c }
}

// WithRetry sets the per-fetch retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(cr *Crawler) { cr.retry = cfg }
}

// WithMaxFollow sets how many sub-pages may be fetched. Zero disables the
// follow hop.
func WithMaxFollow(n int) Option {
	return func(cr *Crawler) {
		if n >= 0 {
			cr.maxFollow = n
		}
	}
}

// WithExtractor replaces the default contact extractor.
func WithExtractor(e *contact.Extractor) Option {
	return func(cr *Crawler) {
		if e != nil {
			cr.extractor = e
		}
	}
}

// WithPathMatcher sets the sub-page exclude patterns.
func WithPathMatcher(m *scrape.PathMatcher) Option {
	return func(cr *Crawler) {
		if m != nil {
			cr.matcher = m
		}
	}
}

// WithRefresh skips cache reads. Results are still written.
func WithRefresh(refresh bool) Option {
	return func(cr *Crawler) { cr.refresh = refresh }
}

// New creates a Crawler using f for all network access.
func New(f scrape.Fetcher, opts ...Option) *Crawler {
	cr := &Crawler{
		fetcher:   f,
		extractor: contact.New(),
		matcher:   scrape.NewPathMatcher(nil),
		retry:     resilience.DefaultRetryConfig(),
		maxFollow: DefaultMaxFollow,
		now:       time.Now,
	}
	for _, o := range opts {
		o(cr)
	}
	return cr
}

// Crawl returns the contacts found on rawURL's site. A cache hit returns
// without network access. A landing page that cannot be fetched after all
// retries yields an empty result, which is not cached. Results of a crawl
// interrupted by ctx are returned but not cached.
func (c *Crawler) Crawl(ctx context.Context, rawURL string) model.CrawlResult {
	target, ok := weburl.Normalize(rawURL)
	if !ok {
		return model.EmptyCrawlResult(rawURL)
	}

	if c.cache != nil && !c.refresh {
		if r, hit := c.cache.Get(ctx, target); hit {
			zap.L().Debug("crawl: cache hit", zap.String("url", target))
			return r
		}
	}

	log := zap.L().With(zap.String("url", target))

	landing, err := c.fetch(ctx, target)
	if err != nil {
		log.Debug("crawl: landing page failed", zap.Error(err))
		return model.EmptyCrawlResult(target)
	}

	visited := map[string]struct{}{visitKey(target): {}}
	base := target
	if landing.FinalURL != "" {
		visited[visitKey(landing.FinalURL)] = struct{}{}
		base = landing.FinalURL
	}

	set := model.NewContactSet()
	found := c.extract(landing, base)
	set.AddEmails(found.Emails)
	set.AddSocial(found.Social)
	pages := 1

	followed := 0
	for _, link := range found.FollowLinks {
		if followed >= c.maxFollow || ctx.Err() != nil {
			break
		}
		if _, seen := visited[visitKey(link)]; seen {
			continue
		}
		visited[visitKey(link)] = struct{}{}
		if c.matcher.IsExcluded(link) {
			continue
		}
		followed++

		page, err := c.fetch(ctx, link)
		if err != nil {
			log.Debug("crawl: sub-page failed", zap.String("page", link), zap.Error(err))
			continue
		}
		visited[visitKey(page.FinalURL)] = struct{}{}
		pages++

		sub := c.extract(page, base)
		set.AddEmails(sub.Emails)
		set.AddSocial(sub.Social)
	}

	result := set.Result(target, pages, c.now().UTC())

	if ctx.Err() != nil {
		log.Debug("crawl: interrupted, result not cached", zap.Int("pages", pages))
		return result
	}
	if c.cache != nil {
		if err := c.cache.Put(ctx, target, result); err != nil {
			log.Warn("crawl: cache write failed", zap.Error(err))
		}
	}

	log.Debug("crawl: complete",
		zap.Int("pages", pages),
		zap.Int("emails", len(result.Emails)),
		zap.Int("social", result.Social.Count()),
	)
	return result
}

// visitKey treats "http://x.com" and "http://x.com/" as the same page.
func visitKey(u string) string {
	return strings.TrimSuffix(u, "/")
}

func (c *Crawler) fetch(ctx context.Context, url string) (*model.Page, error) {
	cfg := c.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("crawler", url)
	}
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*model.Page, error) {
		return c.fetcher.Fetch(ctx, url)
	})
}

func (c *Crawler) extract(page *model.Page, base string) contact.Extraction {
	if !page.IsHTML() || contact.IsBinary(page.Body) {
		return contact.Extraction{Social: model.SocialLinks{}}
	}
	return c.extractor.Extract(string(page.Body), base)
}
