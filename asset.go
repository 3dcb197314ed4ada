package oaf

import (
	"image"
	"sync"
)

// asset holds the descriptor of one registered path and the views derived
// from it. Each view is computed once and kept for the resolver's lifetime.
type asset struct {
	path string
	desc AssetDescriptor

	mu        sync.Mutex
	content   *Content
	handle    Handle
	buffer    []byte
	text      *string
	object    any
	objectSet bool
	image     image.Image
}

func newAsset(path string, desc AssetDescriptor) *asset {
	return &asset{path: path, desc: desc}
}

// storeContent records c unless another caller got there first, and returns
// the retained value.
func (a *asset) storeContent(c *Content) *Content {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.content == nil {
		a.content = c
	}
	return a.content
}

func (a *asset) cachedContent() *Content {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.content
}
