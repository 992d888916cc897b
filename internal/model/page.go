package model

import "strings"

// Page is a single fetched web page.
type Page struct {
	URL         string `json:"url"`
	FinalURL    string `json:"final_url"`
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"-"`
}

// IsHTML reports whether the page looks like an HTML document. A missing
// Content-Type header is treated as HTML since many small business sites
// omit it.
func (p *Page) IsHTML() bool {
	ct := strings.ToLower(p.ContentType)
	if ct == "" {
		return true
	}
	return strings.Contains(ct, "text/html") ||
		strings.Contains(ct, "application/xhtml") ||
		strings.Contains(ct, "text/plain")
}
