package model

import (
	"fmt"
	"strings"
)

// Unknown is how absent values are rendered for display.
const Unknown = "N/A"

// EmailStatus is the outcome of verifying a lead's primary email.
type EmailStatus string

const (
	EmailUnchecked EmailStatus = "unchecked"
	EmailValid     EmailStatus = "valid"
	EmailRisky     EmailStatus = "risky"
	EmailInvalid   EmailStatus = "invalid"
)

// Lead is a point of interest augmented with contact and score metadata.
//
// Pointer fields are optional: nil means the source did not provide the
// value, a pointer to "" means the source provided an empty value.
type Lead struct {
	ID          string      `json:"id"`
	Name        *string     `json:"name"`
	Category    *string     `json:"category"`
	Latitude    *float64    `json:"latitude"`
	Longitude   *float64    `json:"longitude"`
	Phone       *string     `json:"phone"`
	Website     *string     `json:"website"`
	Address     *string     `json:"address"`
	Emails      []string    `json:"emails"`
	Social      SocialLinks `json:"social_links"`
	EmailStatus EmailStatus `json:"email_status"`
	Score       int         `json:"lead_score"`
}

// AddEmail appends email unless an equal address (case-insensitive) is
// already present. It reports whether the email was added.
func (l *Lead) AddEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, e := range l.Emails {
		if e == email {
			return false
		}
	}
	l.Emails = append(l.Emails, email)
	return true
}

// SetSocial records url for platform if none is recorded yet.
func (l *Lead) SetSocial(p Platform, url string) {
	if url == "" {
		return
	}
	if l.Social == nil {
		l.Social = SocialLinks{}
	}
	if _, ok := l.Social[p]; !ok {
		l.Social[p] = url
	}
}

// HasWebsite reports whether the lead carries a usable website URL.
func (l *Lead) HasWebsite() bool {
	return l.Website != nil && strings.TrimSpace(*l.Website) != ""
}

// PrimaryEmail returns the first email, if any.
func (l *Lead) PrimaryEmail() (string, bool) {
	if len(l.Emails) == 0 {
		return "", false
	}
	return l.Emails[0], true
}

// MapsURL returns a Google Maps link for the lead's coordinates.
func (l *Lead) MapsURL() (string, bool) {
	if l.Latitude == nil || l.Longitude == nil {
		return "", false
	}
	return fmt.Sprintf("https://www.google.com/maps?q=%g,%g", *l.Latitude, *l.Longitude), true
}

// Text returns a pointer to s.
func Text(s string) *string { return &s }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

// Display renders an optional string, using Unknown for absent values.
func Display(s *string) string {
	if s == nil {
		return Unknown
	}
	return *s
}
