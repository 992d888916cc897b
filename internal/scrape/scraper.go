// Package scrape fetches web pages over plain HTTP.
package scrape

import (
	"context"

	"github.com/sells-group/lead-cli/internal/model"
)

// Fetcher retrieves a single URL.
//
// Errors wrapping resilience.TransientError are safe to retry. ErrBlocked
// and other errors are final for that URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*model.Page, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) (*model.Page, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, url string) (*model.Page, error) {
	return f(ctx, url)
}
