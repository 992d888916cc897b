package scrape

import (
	"net/url"
	"path"
	"strings"
)

// defaultExcludePatterns keep the follow hop off content that never carries
// contact details.
var defaultExcludePatterns = []string{
	"/blog/*",
	"/news/*",
	"/wp-content/*",
	"/*.pdf",
}

// PathMatcher filters URLs by glob-style path patterns. A pattern ending in
// "/*" also matches deeper paths, so "/blog/*" excludes "/blog/2024/01/x".
type PathMatcher struct {
	patterns []string
}

// NewPathMatcher creates a PathMatcher. A nil slice selects the defaults;
// an empty non-nil slice excludes nothing.
func NewPathMatcher(patterns []string) *PathMatcher {
	if patterns == nil {
		patterns = defaultExcludePatterns
	}
	lowered := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lowered = append(lowered, p)
		}
	}
	return &PathMatcher{patterns: lowered}
}

// Patterns returns the configured patterns.
func (m *PathMatcher) Patterns() []string {
	return m.patterns
}

// IsExcluded reports whether rawURL matches any pattern. Unparseable URLs
// are excluded.
func (m *PathMatcher) IsExcluded(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	p := strings.ToLower(u.Path)
	for _, pattern := range m.patterns {
		if matchSegmented(pattern, p) {
			return true
		}
	}
	return false
}

func matchSegmented(pattern, urlPath string) bool {
	if ok, _ := path.Match(pattern, urlPath); ok {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		return urlPath == prefix || strings.HasPrefix(urlPath, prefix+"/")
	}
	return false
}
