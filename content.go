package oaf

import "bytes"

// Content is the byte range of one asset, tagged with its mimetype.
//
// Content shares memory with the fragment it was cut from. Callers must not
// modify the slice returned by Bytes; use [Resolver.Buffer] for an owned copy.
type Content struct {
	path     string
	mimeType string
	data     []byte
}

// Path returns the asset path the content was read for.
func (c *Content) Path() string { return c.path }

// MimeType returns the asset mimetype recorded in the index.
func (c *Content) MimeType() string { return c.mimeType }

// Len returns the content length in bytes.
func (c *Content) Len() int { return len(c.data) }

// Bytes returns the content without copying.
func (c *Content) Bytes() []byte { return c.data }

// Reader returns a new reader over the content.
func (c *Content) Reader() *bytes.Reader { return bytes.NewReader(c.data) }
