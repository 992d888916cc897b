// Package scorer assigns lead scores from contact completeness.
package scorer

import (
	"github.com/sells-group/lead-cli/internal/contact"
	"github.com/sells-group/lead-cli/internal/model"
)

// Weights are the points awarded per signal.
type Weights struct {
	PersonalEmail int `mapstructure:"personal_email" json:"personal_email"`
	GenericEmail  int `mapstructure:"generic_email" json:"generic_email"`
	Social        int `mapstructure:"social" json:"social"`
	Website       int `mapstructure:"website" json:"website"`
}

// DefaultWeights returns the standard weighting: +3 per personal email,
// +1 per generic email, +1 per social platform and +2 for a website.
func DefaultWeights() Weights {
	return Weights{PersonalEmail: 3, GenericEmail: 1, Social: 1, Website: 2}
}

// Tier buckets.
const (
	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"
)

// Score computes the score of a lead with DefaultWeights. It depends only on
// the lead's fields.
func Score(l model.Lead) int {
	return DefaultWeights().Score(l)
}

// Score computes the score of a lead with w.
func (w Weights) Score(l model.Lead) int {
	s := 0
	for _, e := range l.Emails {
		if contact.IsGeneric(e) {
			s += w.GenericEmail
		} else {
			s += w.PersonalEmail
		}
	}
	s += w.Social * l.Social.Count()
	if l.HasWebsite() {
		s += w.Website
	}
	return s
}

// ScoreAll sets Score on every lead in place.
func ScoreAll(leads []model.Lead) {
	DefaultWeights().ScoreAll(leads)
}

// ScoreAll sets Score on every lead in place using w.
func (w Weights) ScoreAll(leads []model.Lead) {
	for i := range leads {
		leads[i].Score = w.Score(leads[i])
	}
}

// Tier labels a score for display.
func Tier(score int) string {
	switch {
	case score >= 8:
		return TierHigh
	case score >= 4:
		return TierMedium
	default:
		return TierLow
	}
}
