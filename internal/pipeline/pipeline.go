// Package pipeline runs a lead search: geocode a place, query points of
// interest around it, enrich, verify, score and deduplicate.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/dedupe"
	"github.com/sells-group/lead-cli/internal/enrich"
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/scorer"
	"github.com/sells-group/lead-cli/pkg/geocode"
)

// Geocoder resolves a place name.
type Geocoder interface {
	Resolve(ctx context.Context, place string) (geocode.Point, bool, error)
}

// POISource finds points of interest around a coordinate.
type POISource interface {
	Query(ctx context.Context, term string, lat, lon float64, radius int) ([]model.RawRecord, error)
}

// Enricher crawls websites for contacts.
type Enricher interface {
	Run(ctx context.Context, urls []string, concurrency int) (map[string]model.CrawlResult, enrich.Stats, error)
}

// EmailVerifier sets EmailStatus on leads.
type EmailVerifier interface {
	Leads(ctx context.Context, leads []model.Lead, concurrency int) (int, error)
}

// Phase records one step of a run.
type Phase struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Result is the outcome of a search.
type Result struct {
	RunID     string            `json:"run_id"`
	Center    model.SearchPoint `json:"center"`
	Fetched   int               `json:"fetched"`
	Unique    int               `json:"unique"`
	Enriched  int               `json:"enriched"`
	Verified  int               `json:"verified"`
	Removed   int               `json:"removed_duplicates"`
	Leads     []model.Lead      `json:"leads"`
	Phases    []Phase           `json:"phases"`
	Enrich    *enrich.Stats     `json:"enrich,omitempty"`
	Cancelled bool              `json:"cancelled"`
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithEnricher enables website enrichment.
func WithEnricher(e Enricher) Option {
	return func(p *Pipeline) { p.enricher = e }
}

// WithVerifier enables email verification.
func WithVerifier(v EmailVerifier) Option {
	return func(p *Pipeline) { p.verifier = v }
}

// WithWeights overrides the scoring weights.
func WithWeights(w scorer.Weights) Option {
	return func(p *Pipeline) { p.weights = w }
}

// Pipeline runs searches.
type Pipeline struct {
	geocoder Geocoder
	poi      POISource
	enricher Enricher
	verifier EmailVerifier
	weights  scorer.Weights
}

// New creates a Pipeline.
func New(geo Geocoder, poi POISource, opts ...Option) *Pipeline {
	p := &Pipeline{geocoder: geo, poi: poi, weights: scorer.DefaultWeights()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run executes a search. Only an invalid request, a geocoding failure or a
// POI source failure return an error without a result.
//
// If ctx is cancelled during enrichment, contacts gathered by the crawls that
// completed are kept, verification is skipped and the scored, deduplicated
// result is returned together with the context error.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	req = req.withDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.NewString()}
	log := zap.L().With(zap.String("run_id", res.RunID))
	log.Info("pipeline: starting search",
		zap.String("place", req.Place()),
		zap.Strings("terms", req.Terms),
		zap.Int("radius", req.Radius),
		zap.Int("steps", req.Steps),
	)

	track := func(name string, fn func() error) error {
		start := time.Now()
		err := fn()
		ph := Phase{Name: name, Duration: time.Since(start)}
		if err != nil {
			ph.Error = err.Error()
		}
		res.Phases = append(res.Phases, ph)
		log.Info("pipeline: phase complete",
			zap.String("phase", name),
			zap.Duration("duration", ph.Duration),
			zap.Bool("failed", err != nil),
		)
		return err
	}

	// Phase 1: locate.
	if err := track("geocode", func() error {
		c, err := p.center(ctx, req)
		res.Center = c
		return err
	}); err != nil {
		return nil, err
	}

	// Phase 2: fetch points of interest.
	var records []model.RawRecord
	if err := track("fetch", func() error {
		var err error
		records, err = p.fetch(ctx, req, res.Center)
		return err
	}); err != nil {
		return nil, err
	}
	res.Fetched = len(records)
	records = uniqueRecords(records)
	res.Unique = len(records)

	leads := make([]model.Lead, 0, len(records))
	for _, rec := range records {
		leads = append(leads, NewLead(rec, req.PhoneRegion))
	}

	// Phase 3: enrich.
	var runErr error
	if req.Enrich && p.enricher != nil {
		_ = track("enrich", func() error {
			results, stats, err := p.enricher.Run(ctx, enrich.Websites(leads), req.Concurrency)
			res.Enrich = &stats
			res.Enriched = enrich.Apply(leads, results, req.DropGeneric)
			if err != nil {
				res.Cancelled = true
				runErr = err
			}
			return err
		})
	}

	// Phase 4: verify.
	if req.Verify && p.verifier != nil && runErr == nil {
		_ = track("verify", func() error {
			n, err := p.verifier.Leads(ctx, leads, req.Concurrency)
			res.Verified = n
			if err != nil {
				res.Cancelled = true
				runErr = err
			}
			return err
		})
	}

	// Phase 5: score, then dedupe.
	p.weights.ScoreAll(leads)
	res.Leads = dedupe.Dedupe(leads)
	res.Removed = len(leads) - len(res.Leads)

	log.Info("pipeline: search complete",
		zap.Int("fetched", res.Fetched),
		zap.Int("leads", len(res.Leads)),
		zap.Int("enriched", res.Enriched),
		zap.Int("removed_duplicates", res.Removed),
		zap.Bool("cancelled", res.Cancelled),
	)
	return res, runErr
}

func (p *Pipeline) center(ctx context.Context, req Request) (model.SearchPoint, error) {
	if req.Latitude != nil && req.Longitude != nil {
		return model.SearchPoint{Latitude: *req.Latitude, Longitude: *req.Longitude}, nil
	}
	place := req.Place()
	pt, ok, err := p.geocoder.Resolve(ctx, place)
	if err != nil {
		return model.SearchPoint{}, eris.Wrapf(err, "pipeline: could not resolve location %q", place)
	}
	if !ok {
		return model.SearchPoint{}, eris.Errorf("pipeline: could not resolve location %q", place)
	}
	return model.SearchPoint{Latitude: pt.Latitude, Longitude: pt.Longitude}, nil
}

// fetch queries each term with growing radii, stopping at the first radius
// that returns anything.
func (p *Pipeline) fetch(ctx context.Context, req Request, c model.SearchPoint) ([]model.RawRecord, error) {
	var all []model.RawRecord
	for _, term := range req.Terms {
		for step := range req.Steps {
			radius := req.Radius * (step + 1)
			recs, err := p.poi.Query(ctx, term, c.Latitude, c.Longitude, radius)
			if err != nil {
				return nil, eris.Wrapf(err, "pipeline: fetch %q within %dm", term, radius)
			}
			zap.L().Debug("pipeline: poi query",
				zap.String("term", term),
				zap.Int("radius", radius),
				zap.Int("results", len(recs)),
			)
			if len(recs) > 0 {
				all = append(all, recs...)
				break
			}
		}
	}
	return all, nil
}

// Place is the geocoder query for the request.
func (r Request) Place() string {
	var parts []string
	for _, s := range []string{r.City, r.Country} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
