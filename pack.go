package oaf

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// FragmentExt is appended to fragment ids to name fragment files.
const FragmentExt = ".oaf"

// AssetSource describes a file to pack.
type AssetSource struct {
	// Path is the asset path recorded in the index.
	Path string

	// File is the filesystem location of the content.
	File string

	// Size is the content length in bytes.
	Size int64

	// MimeType is recorded in the index; empty means DefaultMimeType.
	MimeType string
}

// FragmentPlan lists the assets assigned to one fragment, in payload order.
type FragmentPlan struct {
	ID       string
	Location string

	// Size is the fragment file size, header included.
	Size   int64
	Assets []AssetSource
}

// Plan is the outcome of packing: the index to publish and the fragments
// to materialize, in creation order.
type Plan struct {
	Index     *Index
	Fragments []FragmentPlan
}

// Pack assigns each asset to a fragment and an offset.
//
// Assets are visited in input order and never reordered. Each is appended
// to the current fragment; once the fragment grows past the size threshold
// it is sealed and a new one is started. A single asset larger than the
// threshold therefore gets a fragment of its own rather than being split.
func Pack(assets []AssetSource, opts ...PackOption) (*Plan, error) {
	cfg := defaultPackConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	log := cfg.logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	plan := &Plan{
		Index: &Index{
			Fragments: make(map[string]string),
			Assets:    make(map[string]AssetDescriptor, len(assets)),
		},
	}

	current := FragmentPlan{ID: cfg.idFunc(), Size: cfg.headerLength}
	seal := func() {
		current.Location = current.ID + FragmentExt
		plan.Index.Fragments[current.ID] = current.Location
		plan.Fragments = append(plan.Fragments, current)
		log.Debug("fragment sealed", "fragment", current.ID, "size", current.Size, "assets", len(current.Assets))
	}

	for _, a := range assets {
		if a.Path == "" {
			return nil, errors.New("pack: empty asset path")
		}
		if a.Size < 0 {
			return nil, fmt.Errorf("pack: %s: negative size %d", a.Path, a.Size)
		}
		if a.MimeType == "" {
			a.MimeType = DefaultMimeType
		}
		if _, dup := plan.Index.Assets[a.Path]; dup {
			log.Debug("duplicate asset path, last one wins", "path", a.Path)
		}

		plan.Index.Assets[a.Path] = AssetDescriptor{
			Offset:   current.Size,
			Length:   a.Size,
			MimeType: a.MimeType,
			Fragment: current.ID,
		}
		current.Assets = append(current.Assets, a)
		current.Size += a.Size

		if current.Size > cfg.fragmentSize {
			seal()
			current = FragmentPlan{ID: cfg.idFunc(), Size: cfg.headerLength}
		}
	}
	if len(current.Assets) > 0 {
		seal()
	}
	return plan, nil
}

// WriteFragment writes the fragment header followed by the content of every
// asset of fp, in order. It fails with ErrSizeChanged when a file does not
// hold exactly the number of bytes it was packed with.
func WriteFragment(w io.Writer, fp FragmentPlan) (int64, error) {
	n, err := w.Write(FragmentHeader[:])
	written := int64(n)
	if err != nil {
		return written, err
	}
	for _, a := range fp.Assets {
		copied, err := copyAsset(w, a)
		written += copied
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func copyAsset(w io.Writer, a AssetSource) (int64, error) {
	f, err := os.Open(a.File) //nolint:gosec // caller-provided path is intentional
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n, err := io.CopyN(w, f, a.Size)
	if errors.Is(err, io.EOF) {
		return n, fmt.Errorf("%w: %s: packed %d bytes, read %d", ErrSizeChanged, a.File, a.Size, n)
	}
	if err != nil {
		return n, fmt.Errorf("write %s: %w", a.Path, err)
	}
	var probe [1]byte
	if m, _ := f.Read(probe[:]); m > 0 { //nolint:errcheck // any extra byte means the file grew
		return n, fmt.Errorf("%w: %s: packed %d bytes, file is larger", ErrSizeChanged, a.File, a.Size)
	}
	return n, nil
}
