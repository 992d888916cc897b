// Package dedupe collapses leads that share a registrable domain.
package dedupe

import (
	"cmp"
	"slices"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/weburl"
)

// Domain returns the deduplication key of a lead: the registrable domain of
// its website.
func Domain(l model.Lead) (string, bool) {
	if l.Website == nil {
		return "", false
	}
	return weburl.Registrable(*l.Website)
}

// Dedupe keeps one lead per registrable domain, the one with the highest
// Score, ties going to the earliest in input order. Leads without a
// resolvable domain are always kept.
//
// The result is a single ordering by descending Score over every retained
// lead; leads with equal scores keep their input order. Scores must be
// assigned before calling.
func Dedupe(leads []model.Lead) []model.Lead {
	best := make(map[string]int, len(leads))
	for i := range leads {
		d, ok := Domain(leads[i])
		if !ok {
			continue
		}
		j, seen := best[d]
		if !seen || leads[i].Score > leads[j].Score {
			best[d] = i
		}
	}

	out := make([]model.Lead, 0, len(leads))
	for i := range leads {
		if d, ok := Domain(leads[i]); ok && best[d] != i {
			continue
		}
		out = append(out, leads[i])
	}

	slices.SortStableFunc(out, func(a, b model.Lead) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}
