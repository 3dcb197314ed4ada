// Package cache persists fetched fragments across resolver lifetimes.
//
// A [Cache] stores whole documents keyed by the digest of the URI they were
// fetched from. [NewFetcher] wraps any fetcher so that a cached copy is
// served instead of touching the network. Entries are never invalidated:
// archives are expected to publish new fragments under new ids rather than
// rewrite existing ones.
package cache

import "github.com/opencontainers/go-digest"

// Cache provides storage for fetched documents.
//
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves the document stored under key.
	// Returns nil, false if the document is not cached.
	Get(key digest.Digest) ([]byte, bool)

	// Put stores content under key.
	Put(key digest.Digest, content []byte) error
}

// Key returns the cache key for uri.
func Key(uri string) digest.Digest {
	return digest.FromString(uri)
}
