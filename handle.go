package oaf

import (
	"bytes"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// HandleScheme prefixes every ephemeral handle.
const HandleScheme = "oaf-blob:"

// Handle is a process-local, addressable name for an in-memory asset.
// Handles stay valid until revoked on the registry that issued them.
type Handle string

// String returns the handle as a URI.
func (h Handle) String() string { return string(h) }

// HandleRegistry issues ephemeral handles for asset content and resolves
// them back. It is safe for concurrent use.
type HandleRegistry struct {
	mu      sync.RWMutex
	entries map[Handle]*Content
}

// NewHandleRegistry returns an empty registry.
func NewHandleRegistry() *HandleRegistry {
	return &HandleRegistry{entries: make(map[Handle]*Content)}
}

var defaultHandles = NewHandleRegistry()

// DefaultHandleRegistry returns the registry used by resolvers created
// without [WithHandleRegistry].
func DefaultHandleRegistry() *HandleRegistry {
	return defaultHandles
}

// Register issues a new handle for c.
func (r *HandleRegistry) Register(c *Content) Handle {
	h := Handle(HandleScheme + uuid.NewString())
	r.mu.Lock()
	r.entries[h] = c
	r.mu.Unlock()
	return h
}

// Lookup returns the content registered under h.
func (r *HandleRegistry) Lookup(h Handle) (*Content, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.entries[h]
	return c, ok
}

// Open returns a reader over the content registered under h.
func (r *HandleRegistry) Open(h Handle) (*bytes.Reader, error) {
	if !strings.HasPrefix(string(h), HandleScheme) {
		return nil, ErrUnknownHandle
	}
	c, ok := r.Lookup(h)
	if !ok {
		return nil, ErrUnknownHandle
	}
	return c.Reader(), nil
}

// Revoke forgets h. Revoking an unknown handle is a no-op.
func (r *HandleRegistry) Revoke(h Handle) {
	r.mu.Lock()
	delete(r.entries, h)
	r.mu.Unlock()
}

// Len returns the number of live handles.
func (r *HandleRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
