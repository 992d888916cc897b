// Package weburl normalizes website URLs and derives registrable domains.
package weburl

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/sells-group/lead-cli/internal/model"
)

// Normalize rewrites a website value into an absolute URL. Protocol-relative
// values ("//example.com") become https, values without an http(s) scheme get
// "http://" prepended. Empty values and the "N/A" marker are absent.
func Normalize(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, model.Unknown) {
		return "", false
	}
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(s, "//"):
		s = "https:" + s
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
	default:
		s = "http://" + s
	}
	return s, true
}

// Host returns the lowercased host of a website value, without port.
func Host(raw string) (string, bool) {
	s, ok := Normalize(raw)
	if !ok {
		return "", false
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", false
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return "", false
	}
	return host, true
}

// Registrable returns the effective TLD+1 of a website value, for example
// "example.co.uk" for "https://shop.example.co.uk/about". IP hosts are
// returned as-is. Single-label hosts have no registrable domain.
func Registrable(raw string) (string, bool) {
	host, ok := Host(raw)
	if !ok {
		return "", false
	}
	if net.ParseIP(host) != nil {
		return host, true
	}
	if !strings.Contains(host, ".") {
		return "", false
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil || etld1 == "" {
		return "", false
	}
	return etld1, true
}

// Root returns scheme://registrable-domain[:port]/ for a website value.
func Root(raw string) (*url.URL, bool) {
	s, ok := Normalize(raw)
	if !ok {
		return nil, false
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, false
	}
	domain, ok := Registrable(s)
	if !ok {
		return nil, false
	}
	host := domain
	if port := u.Port(); port != "" {
		host = net.JoinHostPort(domain, port)
	}
	return &url.URL{Scheme: strings.ToLower(u.Scheme), Host: host, Path: "/"}, true
}

// Resolve turns an href found on a page of base into an absolute http(s)
// URL. Relative references resolve against Root(base), not the page itself.
// Fragments are dropped. Non-web schemes (mailto, tel, javascript) are
// rejected.
func Resolve(base, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	root, ok := Root(base)
	if !ok {
		return "", false
	}
	abs := root.ResolveReference(ref)
	scheme := strings.ToLower(abs.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}
	if abs.Host == "" {
		return "", false
	}
	abs.Fragment = ""
	abs.RawFragment = ""
	return abs.String(), true
}

// SameSite reports whether a and b share a registrable domain.
func SameSite(a, b string) bool {
	da, ok := Registrable(a)
	if !ok {
		return false
	}
	db, ok := Registrable(b)
	return ok && da == db
}
