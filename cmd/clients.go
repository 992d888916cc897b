package main

import (
	"time"

	"github.com/sells-group/lead-cli/internal/contact"
	"github.com/sells-group/lead-cli/internal/crawler"
	"github.com/sells-group/lead-cli/internal/resilience"
	"github.com/sells-group/lead-cli/internal/scorer"
	"github.com/sells-group/lead-cli/internal/scrape"
	"github.com/sells-group/lead-cli/internal/store"
	"github.com/sells-group/lead-cli/internal/verify"
	"github.com/sells-group/lead-cli/pkg/geocode"
	"github.com/sells-group/lead-cli/pkg/overpass"
)

func newCrawler(st store.Store, refresh bool) *crawler.Crawler {
	c := cfg.Crawl
	fetcher := scrape.NewHTTPFetcher(
		scrape.WithTimeout(time.Duration(c.TimeoutSecs)*time.Second),
		scrape.WithUserAgent(c.UserAgent),
		scrape.WithMaxBytes(c.MaxBodyBytes),
	)
	return crawler.New(fetcher,
		crawler.WithCache(crawler.NewCache(st)),
		crawler.WithRetry(resilience.FromRetryConfig(c.MaxAttempts, c.BackoffMs, c.BackoffMultiplier, c.Jitter)),
		crawler.WithMaxFollow(c.MaxFollow),
		crawler.WithExtractor(contact.New(c.FollowKeywords...)),
		crawler.WithPathMatcher(scrape.NewPathMatcher(c.ExcludePaths)),
		crawler.WithRefresh(refresh),
	)
}

func newGeocoder(st store.Store) *geocode.Client {
	return geocode.NewClient(
		geocode.WithBaseURL(cfg.Geocode.BaseURL),
		geocode.WithUserAgent(cfg.Geocode.UserAgent),
		geocode.WithRateLimit(cfg.Geocode.RPS),
		geocode.WithCache(st),
	)
}

func newOverpass(st store.Store) *overpass.Client {
	o := cfg.Overpass
	return overpass.NewClient(
		overpass.WithBaseURL(o.BaseURL),
		overpass.WithTimeout(time.Duration(o.TimeoutSecs)*time.Second),
		overpass.WithCache(st),
		overpass.WithRetry(resilience.FromRetryConfig(o.MaxAttempts, o.BackoffMs, 2, 0.1)),
		overpass.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.FromCircuitConfig(o.FailureThreshold, o.ResetTimeoutSecs))),
	)
}

func newVerifier() *verify.Verifier {
	v := cfg.Verify
	return verify.New(verify.NewDNSResolver(v.Resolvers, time.Duration(v.TimeoutSecs)*time.Second))
}

func weights() scorer.Weights {
	s := cfg.Score
	return scorer.Weights{
		PersonalEmail: s.PersonalEmail,
		GenericEmail:  s.GenericEmail,
		Social:        s.Social,
		Website:       s.Website,
	}
}
