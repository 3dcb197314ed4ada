package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/meigma/oaf/source/file"
	"github.com/meigma/oaf/source/http"
)

// ErrUnsupportedScheme is returned when no fetcher is registered for a URI scheme.
var ErrUnsupportedScheme = errors.New("source: unsupported scheme")

// Fetcher retrieves the full content addressed by a URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// Router dispatches fetches to the fetcher registered for the URI scheme.
// Plain paths without a scheme use the fetcher registered for "".
// A Router is safe for concurrent use.
type Router struct {
	mu       sync.RWMutex
	fetchers map[string]Fetcher
}

// NewRouter returns a Router serving http, https, file and plain paths.
func NewRouter() *Router {
	r := NewEmptyRouter()
	web := http.NewSource()
	local := file.NewSource()
	r.Register("http", web)
	r.Register("https", web)
	r.Register("file", local)
	r.Register("", local)
	return r
}

// NewEmptyRouter returns a Router with no registered schemes.
func NewEmptyRouter() *Router {
	return &Router{fetchers: make(map[string]Fetcher)}
}

// Register routes URIs with the given scheme to f, replacing any previous
// registration. Schemes are case-insensitive.
func (r *Router) Register(scheme string, f Fetcher) {
	r.mu.Lock()
	r.fetchers[strings.ToLower(scheme)] = f
	r.mu.Unlock()
}

// Fetch implements Fetcher.
func (r *Router) Fetch(ctx context.Context, uri string) ([]byte, error) {
	scheme := ""
	if u, err := url.Parse(uri); err == nil {
		scheme = strings.ToLower(u.Scheme)
	}
	r.mu.RLock()
	f, ok := r.fetchers[scheme]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
	return f.Fetch(ctx, uri)
}
