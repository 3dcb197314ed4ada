package oaf

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/meigma/oaf/source"
)

// AssetResolver serves packed assets by path. [Resolver] is the
// implementation provided by this package.
type AssetResolver interface {
	Exists(path string) bool
	IsLoaded(path string) bool
	Preload(path string) error
	Bytes(ctx context.Context, path string) (*Content, error)
	Handle(ctx context.Context, path string) (Handle, error)
	Buffer(ctx context.Context, path string) ([]byte, error)
	Text(ctx context.Context, path string) (string, error)
	Object(ctx context.Context, path string) (any, error)
	Image(ctx context.Context, path string) (image.Image, error)
}

var _ AssetResolver = (*Resolver)(nil)

// Resolver serves assets from one or more ingested indices.
//
// Fragments are fetched on first demand, at most once per fragment even
// under concurrent demand, and kept for the resolver's lifetime together
// with every view derived from them. Nothing is evicted.
//
// A Resolver is safe for concurrent use.
type Resolver struct {
	mu      sync.RWMutex
	assets  map[string]*asset
	store   *fragmentStore
	fetcher Fetcher
	baseURI string
	handles *HandleRegistry
	images  ImageDecoder
	logger  *slog.Logger
}

// NewResolver creates an empty Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		assets:  make(map[string]*asset),
		handles: DefaultHandleRegistry(),
		images:  StdImageDecoder{},
	}
	if wd, err := WorkingDirURI(); err == nil {
		r.baseURI = wd
	}
	r.fetcher = source.NewRouter()
	for _, opt := range opts {
		opt(r)
	}
	r.store = newFragmentStore(r.fetcher, r.logger)
	return r
}

// log returns the logger, falling back to a discard logger if nil.
func (r *Resolver) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// SetFetcher replaces the fetcher used by subsequent index and fragment
// fetches. Fragments that are already resident are kept.
func (r *Resolver) SetFetcher(f Fetcher) {
	r.mu.Lock()
	r.fetcher = f
	r.mu.Unlock()
	r.store.setFetcher(f)
}

// BaseURI returns the location relative roots and in-memory indices
// resolve against.
func (r *Resolver) BaseURI() string {
	return r.baseURI
}

// AddIndex ingests an in-memory index.
//
// Fragment locations resolve against root when given, itself first
// resolved against the resolver's base URI; otherwise they resolve against
// the base URI directly.
func (r *Resolver) AddIndex(idx *Index, root string) error {
	if err := idx.Validate(); err != nil {
		return err
	}
	base := r.baseURI
	if root != "" {
		var err error
		if base, err = ResolveURI(r.baseURI, root); err != nil {
			return fmt.Errorf("%w: root: %w", ErrInvalidIndex, err)
		}
	}
	resolved, err := idx.Resolve(base)
	if err != nil {
		return err
	}
	r.ingest(resolved)
	return nil
}

// AddIndexFromURI fetches the index at uri and ingests it.
//
// uri itself resolves against the resolver's base URI. Fragment locations
// resolve against root when given (resolved against the base URI first),
// otherwise against the index location, so that "x.oaf" next to
// "http://h/dir/index.json" becomes "http://h/dir/x.oaf".
func (r *Resolver) AddIndexFromURI(ctx context.Context, uri, root string) error {
	indexURI, err := ResolveURI(r.baseURI, uri)
	if err != nil {
		return err
	}
	base := indexURI
	if root != "" {
		if base, err = ResolveURI(r.baseURI, root); err != nil {
			return fmt.Errorf("%w: root: %w", ErrInvalidIndex, err)
		}
	}

	r.mu.RLock()
	fetcher := r.fetcher
	r.mu.RUnlock()
	if fetcher == nil {
		return ErrNoFetcher
	}

	r.log().Debug("fetching index", "uri", indexURI)
	data, err := fetcher.Fetch(ctx, indexURI)
	if err != nil {
		return err
	}
	idx, err := LoadIndex(data, base)
	if err != nil {
		return err
	}
	r.ingest(idx)
	return nil
}

// ingest merges a resolved index. New fragment ids are registered and asset
// paths are added or replaced; nothing is removed.
func (r *Resolver) ingest(idx *Index) {
	for id, loc := range idx.Fragments {
		r.store.register(id, loc)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for path, desc := range idx.Assets {
		r.assets[path] = newAsset(path, desc)
	}
	r.log().Debug("index ingested", "fragments", len(idx.Fragments), "assets", len(idx.Assets))
}

func (r *Resolver) lookup(op, path string) (*asset, error) {
	r.mu.RLock()
	a, ok := r.assets[path]
	r.mu.RUnlock()
	if !ok {
		return nil, &fs.PathError{Op: op, Path: path, Err: ErrUnreferencedAsset}
	}
	return a, nil
}

// Exists reports whether path is a registered asset.
func (r *Resolver) Exists(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.assets[path]
	return ok
}

// IsLoaded reports whether path is registered and its fragment is resident.
func (r *Resolver) IsLoaded(path string) bool {
	r.mu.RLock()
	a, ok := r.assets[path]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return r.store.resident(a.desc.Fragment)
}

// Stat returns the descriptor registered for path.
func (r *Resolver) Stat(path string) (AssetDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.assets[path]
	if !ok {
		return AssetDescriptor{}, false
	}
	return a.desc, true
}

// Assets returns every registered asset path in sorted order.
func (r *Resolver) Assets() []string {
	r.mu.RLock()
	paths := make([]string, 0, len(r.assets))
	for p := range r.assets {
		paths = append(paths, p)
	}
	r.mu.RUnlock()
	sort.Strings(paths)
	return paths
}

// FragmentLocation returns the resolved location of a registered fragment.
func (r *Resolver) FragmentLocation(id string) (string, bool) {
	return r.store.location(id)
}

// Preload starts fetching the fragment holding path without waiting for it.
// Load failures are not reported; a later read retries the fetch.
func (r *Resolver) Preload(path string) error {
	a, err := r.lookup("preload", path)
	if err != nil {
		return err
	}
	r.store.preload(a.desc.Fragment)
	return nil
}

// Bytes returns the content of path. Repeated calls return the same
// *Content.
func (r *Resolver) Bytes(ctx context.Context, path string) (*Content, error) {
	a, err := r.lookup("bytes", path)
	if err != nil {
		return nil, err
	}
	return r.content(ctx, a)
}

func (r *Resolver) content(ctx context.Context, a *asset) (*Content, error) {
	if c := a.cachedContent(); c != nil {
		return c, nil
	}
	payload, err := r.store.get(ctx, a.desc.Fragment)
	if err != nil {
		return nil, err
	}
	start, end := a.desc.Offset, a.desc.Offset+a.desc.Length
	if start < 0 || end < start || end > int64(len(payload)) {
		return nil, &fs.PathError{
			Op:   "slice",
			Path: a.path,
			Err:  fmt.Errorf("%w: [%d, %d) in %d bytes", ErrOutOfRange, start, end, len(payload)),
		}
	}
	c := &Content{
		path:     a.path,
		mimeType: a.desc.MimeType,
		data:     payload[start:end:end],
	}
	return a.storeContent(c), nil
}

// Handle returns an ephemeral handle addressing the content of path.
// The handle is issued once per asset and never revoked by the resolver.
func (r *Resolver) Handle(ctx context.Context, path string) (Handle, error) {
	a, err := r.lookup("handle", path)
	if err != nil {
		return "", err
	}
	return r.handle(ctx, a)
}

func (r *Resolver) handle(ctx context.Context, a *asset) (Handle, error) {
	a.mu.Lock()
	h := a.handle
	a.mu.Unlock()
	if h != "" {
		return h, nil
	}
	c, err := r.content(ctx, a)
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.handle == "" {
		a.handle = r.handles.Register(c)
	}
	return a.handle, nil
}

// Buffer returns an owned copy of the content of path. The copy is made
// once and the same slice is returned by later calls.
func (r *Resolver) Buffer(ctx context.Context, path string) ([]byte, error) {
	a, err := r.lookup("buffer", path)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	buf := a.buffer
	a.mu.Unlock()
	if buf != nil {
		return buf, nil
	}
	c, err := r.content(ctx, a)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.buffer == nil {
		a.buffer = append(make([]byte, 0, c.Len()), c.Bytes()...)
	}
	return a.buffer, nil
}

// Text returns the content of path decoded as UTF-8.
func (r *Resolver) Text(ctx context.Context, path string) (string, error) {
	a, err := r.lookup("text", path)
	if err != nil {
		return "", err
	}
	return r.text(ctx, a)
}

func (r *Resolver) text(ctx context.Context, a *asset) (string, error) {
	a.mu.Lock()
	txt := a.text
	a.mu.Unlock()
	if txt != nil {
		return *txt, nil
	}
	c, err := r.content(ctx, a)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(c.Bytes()) {
		return "", ErrInvalidText
	}
	s := string(c.Bytes())

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.text == nil {
		a.text = &s
	}
	return *a.text, nil
}

// Object returns the content of path decoded as JSON. The mimetype is not
// consulted; content that is not JSON fails with the decoder's error.
func (r *Resolver) Object(ctx context.Context, path string) (any, error) {
	a, err := r.lookup("object", path)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	if a.objectSet {
		v := a.object
		a.mu.Unlock()
		return v, nil
	}
	a.mu.Unlock()

	txt, err := r.text(ctx, a)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal([]byte(txt), &v); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.objectSet {
		a.object = v
		a.objectSet = true
	}
	return a.object, nil
}

// Unmarshal decodes the JSON content of path into v. Unlike [Resolver.Object]
// the result is not cached; the underlying text is.
func (r *Resolver) Unmarshal(ctx context.Context, path string, v any) error {
	a, err := r.lookup("unmarshal", path)
	if err != nil {
		return err
	}
	txt, err := r.text(ctx, a)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(txt), v)
}

// Image decodes the content of path through the resolver's [ImageDecoder],
// addressing it by its ephemeral handle. Decoding errors, including content
// that is not an image, are returned as is.
func (r *Resolver) Image(ctx context.Context, path string) (image.Image, error) {
	a, err := r.lookup("image", path)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	img := a.image
	a.mu.Unlock()
	if img != nil {
		return img, nil
	}
	h, err := r.handle(ctx, a)
	if err != nil {
		return nil, err
	}
	img, err = r.images.DecodeImage(ctx, r.handles, h)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.image == nil {
		a.image = img
	}
	return a.image, nil
}
