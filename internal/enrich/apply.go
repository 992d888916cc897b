package enrich

import (
	"github.com/sells-group/lead-cli/internal/contact"
	"github.com/sells-group/lead-cli/internal/model"
)

// Websites returns the website of every lead that has one.
func Websites(leads []model.Lead) []string {
	urls := make([]string, 0, len(leads))
	for i := range leads {
		if leads[i].HasWebsite() {
			urls = append(urls, *leads[i].Website)
		}
	}
	return urls
}

// Apply merges crawl results into the leads whose website was crawled.
// Emails are unioned and ordered personal-first; when dropGeneric is set,
// role addresses are removed from leads that have a personal one. Existing
// social links are kept. It returns the number of leads that gained data.
func Apply(leads []model.Lead, results map[string]model.CrawlResult, dropGeneric bool) int {
	enriched := 0
	for i := range leads {
		l := &leads[i]
		if !l.HasWebsite() {
			continue
		}
		r, ok := results[*l.Website]
		if !ok {
			continue
		}

		beforeEmails, beforeSocial := len(l.Emails), l.Social.Count()

		merged := make([]string, 0, len(l.Emails)+len(r.Emails))
		merged = append(merged, l.Emails...)
		merged = append(merged, r.Emails...)
		l.Emails = nil
		for _, e := range contact.Prefer(merged, dropGeneric) {
			l.AddEmail(e)
		}

		for _, p := range model.AllPlatforms() {
			l.SetSocial(p, r.Social[p])
		}

		if len(l.Emails) > beforeEmails || l.Social.Count() > beforeSocial {
			enriched++
		}
	}
	return enriched
}
