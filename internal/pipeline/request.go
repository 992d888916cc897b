package pipeline

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lead-cli/internal/enrich"
)

// Default search parameters.
const (
	DefaultRadius = 1000
	DefaultSteps  = 2
	MaxSteps      = 5
)

// Request describes one search.
type Request struct {
	Name        string   `yaml:"name" json:"name,omitempty"`
	City        string   `yaml:"city" json:"city"`
	Country     string   `yaml:"country" json:"country"`
	Latitude    *float64 `yaml:"latitude" json:"latitude,omitempty"`
	Longitude   *float64 `yaml:"longitude" json:"longitude,omitempty"`
	Terms       []string `yaml:"terms" json:"terms"`
	Radius      int      `yaml:"radius" json:"radius"`
	Steps       int      `yaml:"steps" json:"steps"`
	Enrich      bool     `yaml:"enrich" json:"enrich"`
	Concurrency int      `yaml:"concurrency" json:"concurrency"`
	Verify      bool     `yaml:"verify" json:"verify"`
	DropGeneric bool     `yaml:"drop_generic_emails" json:"drop_generic_emails"`
	PhoneRegion string   `yaml:"phone_region" json:"phone_region,omitempty"`
}

func (r Request) withDefaults() Request {
	if r.Radius <= 0 {
		r.Radius = DefaultRadius
	}
	if r.Steps <= 0 {
		r.Steps = DefaultSteps
	}
	if r.Concurrency <= 0 {
		r.Concurrency = enrich.DefaultConcurrency
	}
	terms := make([]string, 0, len(r.Terms))
	for _, t := range r.Terms {
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				terms = append(terms, part)
			}
		}
	}
	r.Terms = terms
	return r
}

// Validate checks a request after defaults are applied.
func (r Request) Validate() error {
	if len(r.Terms) == 0 {
		return eris.New("pipeline: at least one search term is required")
	}
	hasCoords := r.Latitude != nil && r.Longitude != nil
	if !hasCoords && r.Place() == "" {
		return eris.New("pipeline: a city/country or coordinates are required")
	}
	if r.Steps > MaxSteps {
		return eris.Errorf("pipeline: steps must be at most %d, got %d", MaxSteps, r.Steps)
	}
	return nil
}

// Plan is a file of searches run in sequence.
type Plan struct {
	Defaults Request   `yaml:"defaults"`
	Searches []Request `yaml:"searches"`
}

// LoadPlan reads a YAML plan. Fields left unset on a search inherit from
// defaults.
func LoadPlan(path string) ([]Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: read plan %s", path)
	}
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, eris.Wrapf(err, "pipeline: parse plan %s", path)
	}
	if len(plan.Searches) == 0 {
		return nil, eris.Errorf("pipeline: plan %s has no searches", path)
	}
	out := make([]Request, 0, len(plan.Searches))
	for _, s := range plan.Searches {
		out = append(out, merge(plan.Defaults, s))
	}
	return out, nil
}

func merge(d, s Request) Request {
	if s.City == "" {
		s.City = d.City
	}
	if s.Country == "" {
		s.Country = d.Country
	}
	if s.Latitude == nil && s.Longitude == nil {
		s.Latitude, s.Longitude = d.Latitude, d.Longitude
	}
	if len(s.Terms) == 0 {
		s.Terms = d.Terms
	}
	if s.Radius == 0 {
		s.Radius = d.Radius
	}
	if s.Steps == 0 {
		s.Steps = d.Steps
	}
	if s.Concurrency == 0 {
		s.Concurrency = d.Concurrency
	}
	if s.PhoneRegion == "" {
		s.PhoneRegion = d.PhoneRegion
	}
	s.Enrich = s.Enrich || d.Enrich
	s.Verify = s.Verify || d.Verify
	s.DropGeneric = s.DropGeneric || d.DropGeneric
	return s
}
