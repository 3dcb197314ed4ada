// Package file fetches documents from the local filesystem.
package file

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// Source reads files addressed by file URIs or plain paths.
type Source struct {
	root string
}

// Option configures a Source.
type Option func(*Source)

// WithRoot resolves relative plain paths against dir instead of the
// process working directory.
func WithRoot(dir string) Option {
	return func(s *Source) {
		s.root = dir
	}
}

// NewSource creates a Source.
func NewSource(opts ...Option) *Source {
	s := &Source{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch reads the whole file addressed by uri.
func (s *Source) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.Path(uri)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path) //nolint:gosec // caller-provided location is intentional
}

// Path converts uri to a filesystem path.
func (s *Source) Path(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "file":
		if u.Host != "" && u.Host != "localhost" {
			return "", fmt.Errorf("file uri %q: remote host %q", uri, u.Host)
		}
		return filepath.FromSlash(u.Path), nil
	case "":
		p := filepath.FromSlash(u.Path)
		if s.root != "" && !filepath.IsAbs(p) {
			p = filepath.Join(s.root, p)
		}
		return p, nil
	default:
		return "", fmt.Errorf("file uri %q: unsupported scheme %q", uri, u.Scheme)
	}
}
