// Package contact extracts emails, social profiles and follow-up links from
// HTML pages. Everything here is pure: no network access, no shared state.
package contact

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/weburl"
)

// DefaultFollowKeywords select the sub-pages worth a second hop.
var DefaultFollowKeywords = []string{"contact", "about"}

var emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// Matches like logo@2x.png are image names, not addresses.
var assetSuffixes = []string{
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".ico", ".css", ".js",
}

// Extraction is what one page yields.
type Extraction struct {
	Emails      []string
	Social      model.SocialLinks
	FollowLinks []string
}

// Extractor holds the follow keyword list. The zero value uses
// DefaultFollowKeywords.
type Extractor struct {
	keywords []string
}

// New returns an Extractor matching the given follow keywords. With no
// keywords it falls back to DefaultFollowKeywords.
func New(keywords ...string) *Extractor {
	kw := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			kw = append(kw, k)
		}
	}
	return &Extractor{keywords: kw}
}

// Extract runs the default Extractor.
func Extract(pageHTML, baseURL string) Extraction {
	return (&Extractor{}).Extract(pageHTML, baseURL)
}

// Extract scans pageHTML fetched from baseURL. Emails are matched anywhere in
// the raw markup; social links and follow candidates come from anchors.
// Binary or unparseable input yields an empty Extraction.
func (e *Extractor) Extract(pageHTML, baseURL string) Extraction {
	out := Extraction{Social: model.SocialLinks{}}
	if isBinary(pageHTML) {
		return out
	}

	out.Emails = findEmails(pageHTML)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return out
	}

	fold := cases.Fold()
	keywords := e.keywords
	if len(keywords) == 0 {
		keywords = DefaultFollowKeywords
	}
	folded := make([]string, len(keywords))
	for i, k := range keywords {
		folded[i] = fold.String(k)
	}

	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		if p, link, ok := classifySocial(href); ok {
			if _, dup := out.Social[p]; !dup {
				out.Social[p] = link
			}
			return
		}

		abs, ok := weburl.Resolve(baseURL, href)
		if !ok || !weburl.SameSite(baseURL, abs) {
			return
		}
		if !matchesKeyword(fold.String(sel.Text()), abs, folded, fold) {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		out.FollowLinks = append(out.FollowLinks, abs)
	})

	return out
}

func matchesKeyword(text, abs string, keywords []string, fold cases.Caser) bool {
	path := ""
	if u, err := url.Parse(abs); err == nil {
		path = fold.String(u.Path)
	}
	for _, k := range keywords {
		if strings.Contains(text, k) || strings.Contains(path, k) {
			return true
		}
	}
	return false
}

func findEmails(text string) []string {
	matches := emailRegex.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	emails := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.ToLower(strings.Trim(strings.ReplaceAll(m, "%20", ""), ".-"))
		if isAsset(m) {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		emails = append(emails, m)
	}
	return emails
}

func isAsset(email string) bool {
	for _, s := range assetSuffixes {
		if strings.HasSuffix(email, s) {
			return true
		}
	}
	return false
}

func isBinary(s string) bool {
	return strings.IndexByte(s, 0) >= 0 || !utf8.ValidString(s)
}

// IsBinary reports whether body looks like non-text content.
func IsBinary(body []byte) bool {
	return bytes.IndexByte(body, 0) >= 0 || !utf8.Valid(body)
}
