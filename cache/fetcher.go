package cache

import (
	"context"
	"log/slog"
)

// Fetcher retrieves the full content addressed by a URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// CachingFetcher serves documents from a Cache and falls back to another
// fetcher on a miss, storing what it fetched.
type CachingFetcher struct {
	next   Fetcher
	cache  Cache
	logger *slog.Logger
}

// FetcherOption configures a CachingFetcher.
type FetcherOption func(*CachingFetcher)

// WithLogger sets the logger for cache operations.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) FetcherOption {
	return func(f *CachingFetcher) {
		f.logger = logger
	}
}

// NewFetcher wraps next with c.
func NewFetcher(next Fetcher, c Cache, opts ...FetcherOption) *CachingFetcher {
	f := &CachingFetcher{next: next, cache: c}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// log returns the logger, falling back to a discard logger if nil.
func (f *CachingFetcher) log() *slog.Logger {
	if f.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return f.logger
}

// Fetch implements Fetcher. A failure to store a fetched document is logged
// and otherwise ignored; the fetched content is still returned.
func (f *CachingFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	key := Key(uri)
	if data, ok := f.cache.Get(key); ok {
		f.log().Debug("cache hit", "uri", uri, "key", key)
		return data, nil
	}
	f.log().Debug("cache miss", "uri", uri, "key", key)

	data, err := f.next.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	if putErr := f.cache.Put(key, data); putErr != nil {
		f.log().Debug("cache store failed", "uri", uri, "error", putErr)
	}
	return data, nil
}
