package store

import "context"

// Key namespaces shared by the caches built on a Store.
const (
	PrefixCrawl    = "crawl::"
	PrefixGeocode  = "geocode::"
	PrefixOverpass = "overpass::"
)

// Store is a durable key/value store holding JSON documents.
//
// Get returns (nil, nil) when the key is absent. Put replaces any existing
// value atomically: a reader never observes a partially written value.
// Implementations are safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
