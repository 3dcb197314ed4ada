// Package testutil provides in-memory fetchers, caches and fixtures for tests.
package testutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/opencontainers/go-digest"
)

// ErrNotFound is returned by MockFetcher for unknown URIs.
var ErrNotFound = errors.New("testutil: not found")

// MockFetcher serves documents from memory and counts fetches per URI.
// It is safe for concurrent use.
type MockFetcher struct {
	mu    sync.Mutex
	data  map[string][]byte
	errs  map[string]error
	calls map[string]int
	order []string
	gate  chan struct{}
	waits chan struct{}
}

// NewMockFetcher returns a fetcher serving data, keyed by URI.
func NewMockFetcher(data map[string][]byte) *MockFetcher {
	m := &MockFetcher{
		data:  make(map[string][]byte, len(data)),
		errs:  make(map[string]error),
		calls: make(map[string]int),
		waits: make(chan struct{}, 1024),
	}
	for k, v := range data {
		m.data[k] = v
	}
	return m
}

// Set serves content at uri.
func (m *MockFetcher) Set(uri string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[uri] = content
}

// FailWith makes fetches of uri fail with err until cleared with a nil err.
func (m *MockFetcher) FailWith(uri string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, uri)
		return
	}
	m.errs[uri] = err
}

// Hold makes every fetch block until Release is called.
func (m *MockFetcher) Hold() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gate = make(chan struct{})
}

// Release unblocks fetches held by Hold.
func (m *MockFetcher) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate != nil {
		close(m.gate)
		m.gate = nil
	}
}

// Started returns a channel receiving one value per fetch that has begun.
func (m *MockFetcher) Started() <-chan struct{} {
	return m.waits
}

// Fetch implements the fetcher interface.
func (m *MockFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	m.mu.Lock()
	m.calls[uri]++
	m.order = append(m.order, uri)
	gate := m.gate
	m.mu.Unlock()

	select {
	case m.waits <- struct{}{}:
	default:
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.errs[uri]; ok {
		return nil, err
	}
	data, ok := m.data[uri]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

// Calls returns how many times uri was fetched.
func (m *MockFetcher) Calls(uri string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[uri]
}

// TotalCalls returns the number of fetches across all URIs.
func (m *MockFetcher) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// Requested returns every fetched URI in call order.
func (m *MockFetcher) Requested() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

// MockCache implements a basic concurrency-safe document cache for tests.
type MockCache struct {
	mu   sync.RWMutex
	data map[digest.Digest][]byte
	puts int
}

// NewMockCache constructs an empty in-memory cache.
func NewMockCache() *MockCache {
	return &MockCache{data: make(map[digest.Digest][]byte)}
}

// Get retrieves data by key.
func (c *MockCache) Get(key digest.Digest) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.data[key]
	return data, ok
}

// Put stores data by key.
func (c *MockCache) Put(key digest.Digest, content []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = content
	c.puts++
	return nil
}

// Puts returns the number of Put calls.
func (c *MockCache) Puts() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.puts
}

// Fragment returns a fragment file holding parts after the OAF header.
func Fragment(parts ...[]byte) []byte {
	out := []byte{0x4F, 0x41, 0x46, 0x01}
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// WriteFiles creates files under dir, keyed by slash-separated relative path.
func WriteFiles(tb testing.TB, dir string, files map[string][]byte) {
	tb.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			tb.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			tb.Fatalf("write %s: %v", path, err)
		}
	}
}
