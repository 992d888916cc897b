package scrape

import (
	"net/http"
	"strings"
)

// challengeMarkers appear in interstitial pages served in place of a site.
var challengeMarkers = []string{
	"cf-challenge",
	"cf-browser-verification",
	"/cdn-cgi/challenge-platform/",
	"checking your browser",
	"captcha",
}

// IsChallenge reports whether a failed response is an anti-bot interstitial
// rather than an ordinary error. Successful responses are never challenges,
// so a contact page carrying a captcha form is still extracted.
func IsChallenge(resp *http.Response, body []byte) bool {
	if resp == nil || resp.StatusCode < 400 {
		return false
	}
	if strings.EqualFold(resp.Header.Get("cf-mitigated"), "challenge") {
		return true
	}
	switch resp.StatusCode {
	case http.StatusForbidden, http.StatusTooManyRequests, http.StatusServiceUnavailable:
	default:
		return false
	}
	lower := strings.ToLower(string(body))
	for _, m := range challengeMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
