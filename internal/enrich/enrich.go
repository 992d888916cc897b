// Package enrich crawls lead websites in parallel under a concurrency cap and
// merges the results back into leads once the batch is done.
package enrich

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-cli/internal/model"
)

// DefaultConcurrency is the number of simultaneous crawls when none is set.
const DefaultConcurrency = 6

// Crawler crawls one website. Implementations must not return errors;
// failures are empty results.
type Crawler interface {
	Crawl(ctx context.Context, url string) model.CrawlResult
}

// Stats describes a finished batch.
type Stats struct {
	Requested   int           `json:"requested"`
	Unique      int           `json:"unique"`
	Completed   int           `json:"completed"`
	Empty       int           `json:"empty"`
	Panicked    int           `json:"panicked"`
	MaxInFlight int           `json:"max_in_flight"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Scheduler runs crawls for a batch of URLs.
type Scheduler struct {
	crawler  Crawler
	progress func(done, total int)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithProgress registers a callback invoked after each crawl completes.
// Calls may come from several goroutines but never concurrently.
func WithProgress(fn func(done, total int)) Option {
	return func(s *Scheduler) { s.progress = fn }
}

// New creates a Scheduler around c.
func New(c Crawler, opts ...Option) *Scheduler {
	s := &Scheduler{crawler: c}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Enrich crawls each distinct URL once, with at most concurrency crawls in
// flight, and returns one result per URL. A failing or panicking crawl
// yields an empty result and does not affect the others.
//
// If ctx is cancelled, URLs whose crawl had not started are left out of the
// map and ctx.Err() is returned alongside the completed results.
func (s *Scheduler) Enrich(ctx context.Context, urls []string, concurrency int) (map[string]model.CrawlResult, error) {
	results, _, err := s.Run(ctx, urls, concurrency)
	return results, err
}

// Run is Enrich that also reports batch statistics.
func (s *Scheduler) Run(ctx context.Context, urls []string, concurrency int) (map[string]model.CrawlResult, Stats, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	start := time.Now()
	unique := Unique(urls)
	stats := Stats{Requested: len(urls), Unique: len(unique)}
	results := make(map[string]model.CrawlResult, len(unique))

	var (
		mu          sync.Mutex
		inFlight    atomic.Int64
		maxInFlight atomic.Int64
		empty       atomic.Int64
		panicked    atomic.Int64
	)

	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	for _, u := range unique {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			n := inFlight.Add(1)
			for {
				peak := maxInFlight.Load()
				if n <= peak || maxInFlight.CompareAndSwap(peak, n) {
					break
				}
			}
			r, ok := s.crawl(ctx, u)
			inFlight.Add(-1)

			if !ok {
				panicked.Add(1)
			}
			if r.IsEmpty() {
				empty.Add(1)
			}

			mu.Lock()
			defer mu.Unlock()
			results[u] = r
			if s.progress != nil {
				s.progress(len(results), len(unique))
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.Completed = len(results)
	stats.Empty = int(empty.Load())
	stats.Panicked = int(panicked.Load())
	stats.MaxInFlight = int(maxInFlight.Load())
	stats.Elapsed = time.Since(start)

	zap.L().Debug("enrich: batch complete",
		zap.Int("unique", stats.Unique),
		zap.Int("completed", stats.Completed),
		zap.Int("empty", stats.Empty),
		zap.Int("max_in_flight", stats.MaxInFlight),
		zap.Duration("elapsed", stats.Elapsed),
	)

	if err := ctx.Err(); err != nil {
		return results, stats, err
	}
	return results, stats, nil
}

// crawl runs one crawl, converting a panic into an empty result.
func (s *Scheduler) crawl(ctx context.Context, url string) (r model.CrawlResult, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			zap.L().Warn("enrich: crawl panicked",
				zap.String("url", url),
				zap.String("panic", fmt.Sprint(p)),
			)
			r, ok = model.EmptyCrawlResult(url), false
		}
	}()
	return s.crawler.Crawl(ctx, url), true
}

// Unique drops blank and repeated URLs, keeping first-seen order.
func Unique(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
