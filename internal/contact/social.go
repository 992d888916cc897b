package contact

import (
	"net/url"
	"strings"

	"github.com/sells-group/lead-cli/internal/model"
)

// socialHosts maps a profile host (or parent domain) to its platform.
var socialHosts = map[string]model.Platform{
	"facebook.com":  model.PlatformFacebook,
	"fb.com":        model.PlatformFacebook,
	"instagram.com": model.PlatformInstagram,
	"linkedin.com":  model.PlatformLinkedIn,
	"twitter.com":   model.PlatformTwitter,
	"x.com":         model.PlatformTwitter,
	"tiktok.com":    model.PlatformTikTok,
	"youtube.com":   model.PlatformYouTube,
	"youtu.be":      model.PlatformYouTube,
}

// Share buttons point at the platform but not at the business profile.
var shareMarkers = []string{"/sharer", "/share", "/intent/", "sharearticle", "/dialog/"}

// classifySocial reports the platform an href links to, returning the
// absolute profile URL.
func classifySocial(href string) (model.Platform, string, bool) {
	raw := href
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", "", false
	}
	p, ok := platformForHost(u.Hostname())
	if !ok {
		return "", "", false
	}
	path := strings.ToLower(u.Path)
	if strings.Trim(path, "/") == "" {
		return "", "", false
	}
	for _, m := range shareMarkers {
		if strings.Contains(path, m) {
			return "", "", false
		}
	}
	u.Fragment = ""
	return p, u.String(), true
}

func platformForHost(host string) (model.Platform, bool) {
	host = strings.ToLower(strings.Trim(host, "."))
	for domain, p := range socialHosts {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return p, true
		}
	}
	return "", false
}
