package oaf

import "log/slog"

// Option configures a Resolver.
type Option func(*Resolver)

// WithFetcher sets the fetcher used for indices and fragments.
// The default routes http, https, file and plain paths (see package source).
func WithFetcher(f Fetcher) Option {
	return func(r *Resolver) {
		r.fetcher = f
	}
}

// WithBaseURI sets the location that relative roots and in-memory indices
// resolve against. The default is the process working directory as a file URI.
func WithBaseURI(uri string) Option {
	return func(r *Resolver) {
		r.baseURI = uri
	}
}

// WithHandleRegistry sets the registry that issues ephemeral handles.
// The default is [DefaultHandleRegistry].
func WithHandleRegistry(h *HandleRegistry) Option {
	return func(r *Resolver) {
		r.handles = h
	}
}

// WithImageDecoder sets the decoder used by [Resolver.Image].
// The default is [StdImageDecoder].
func WithImageDecoder(d ImageDecoder) Option {
	return func(r *Resolver) {
		r.images = d
	}
}

// WithLogger sets the logger for resolver operations.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}
