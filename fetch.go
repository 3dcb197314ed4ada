package oaf

import "context"

// Fetcher retrieves the full content addressed by an absolute URI.
//
// Implementations must be safe for concurrent use. Errors are passed to
// callers unchanged; no retry is attempted by this package.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// FetcherFunc adapts an ordinary function to the [Fetcher] interface.
type FetcherFunc func(ctx context.Context, uri string) ([]byte, error)

// Fetch calls f(ctx, uri).
func (f FetcherFunc) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return f(ctx, uri)
}
