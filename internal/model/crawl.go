package model

import (
	"slices"
	"strings"
	"time"
)

// Platform identifies a social network tracked on leads.
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
	PlatformTikTok    Platform = "tiktok"
	PlatformYouTube   Platform = "youtube"
)

// AllPlatforms returns the fixed platform keys in display order.
func AllPlatforms() []Platform {
	return []Platform{
		PlatformFacebook,
		PlatformInstagram,
		PlatformLinkedIn,
		PlatformTwitter,
		PlatformTikTok,
		PlatformYouTube,
	}
}

// SocialLinks maps a platform to the first profile URL found for it.
// A platform with no entry is absent.
type SocialLinks map[Platform]string

// Count returns the number of populated platforms.
func (s SocialLinks) Count() int {
	n := 0
	for _, p := range AllPlatforms() {
		if s[p] != "" {
			n++
		}
	}
	return n
}

// Clone returns an independent copy.
func (s SocialLinks) Clone() SocialLinks {
	out := make(SocialLinks, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// CrawlResult is the contact information extracted from one website. It is
// created once per distinct URL and never modified afterwards; a re-crawl
// produces a replacement value.
type CrawlResult struct {
	URL       string      `json:"url"`
	Emails    []string    `json:"emails"`
	Social    SocialLinks `json:"social_links"`
	Pages     int         `json:"pages"`
	CrawledAt time.Time   `json:"crawled_at"`
}

// EmptyCrawlResult is the soft-failure value for a URL.
func EmptyCrawlResult(url string) CrawlResult {
	return CrawlResult{URL: url, Social: SocialLinks{}}
}

// IsEmpty reports whether no contact information was found.
func (r CrawlResult) IsEmpty() bool {
	return len(r.Emails) == 0 && r.Social.Count() == 0
}

// ContactSet accumulates emails and social links across the pages of one
// crawl. Emails are unioned; the first link seen for a platform wins.
type ContactSet struct {
	emails map[string]struct{}
	social SocialLinks
}

// NewContactSet returns an empty ContactSet.
func NewContactSet() *ContactSet {
	return &ContactSet{emails: make(map[string]struct{}), social: SocialLinks{}}
}

// AddEmails unions emails into the set.
func (c *ContactSet) AddEmails(emails []string) {
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		c.emails[e] = struct{}{}
	}
}

// AddSocial records links for platforms not yet seen.
func (c *ContactSet) AddSocial(links SocialLinks) {
	for _, p := range AllPlatforms() {
		if _, ok := c.social[p]; ok {
			continue
		}
		if u := links[p]; u != "" {
			c.social[p] = u
		}
	}
}

// Result freezes the set into a CrawlResult with sorted emails.
func (c *ContactSet) Result(url string, pages int, at time.Time) CrawlResult {
	emails := make([]string, 0, len(c.emails))
	for e := range c.emails {
		emails = append(emails, e)
	}
	slices.Sort(emails)
	return CrawlResult{
		URL:       url,
		Emails:    emails,
		Social:    c.social.Clone(),
		Pages:     pages,
		CrawledAt: at,
	}
}
