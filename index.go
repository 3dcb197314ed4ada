package oaf

import (
	"encoding/json"
	"fmt"
	"sort"
)

// DefaultMimeType is applied to assets whose descriptor has no mimetype.
const DefaultMimeType = "application/octet-stream"

// Index maps fragment ids to their locations and asset paths to the byte
// ranges that hold them.
//
// Both maps are required. Fragment locations may be relative; they are
// resolved against a base URI when the index is ingested by a [Resolver].
type Index struct {
	Fragments map[string]string          `json:"fragments"`
	Assets    map[string]AssetDescriptor `json:"assets"`
}

// AssetDescriptor locates one asset inside a fragment.
//
// Offset is relative to the start of the fragment file, header included.
type AssetDescriptor struct {
	Offset   int64  `json:"offset"`
	Length   int64  `json:"length"`
	MimeType string `json:"mimetype"`
	Fragment string `json:"fragment"`
}

// rawIndex distinguishes missing members from zero values while decoding.
type rawIndex struct {
	Fragments map[string]string         `json:"fragments"`
	Assets    map[string]*rawDescriptor `json:"assets"`
}

type rawDescriptor struct {
	Offset   *int64  `json:"offset"`
	Length   *int64  `json:"length"`
	MimeType *string `json:"mimetype"`
	Fragment *string `json:"fragment"`
}

// ParseIndex decodes a JSON index and validates it.
//
// A missing mimetype defaults to [DefaultMimeType]. Fragment locations are
// returned as written; see [Index.Resolve].
func ParseIndex(data []byte) (*Index, error) {
	var raw rawIndex
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIndex, err)
	}
	if raw.Fragments == nil {
		return nil, fmt.Errorf("%w: missing fragments section", ErrInvalidIndex)
	}
	if raw.Assets == nil {
		return nil, fmt.Errorf("%w: missing assets section", ErrInvalidIndex)
	}

	idx := &Index{
		Fragments: raw.Fragments,
		Assets:    make(map[string]AssetDescriptor, len(raw.Assets)),
	}
	for path, rd := range raw.Assets {
		if rd == nil {
			return nil, fmt.Errorf("%w: asset %q: empty descriptor", ErrInvalidIndex, path)
		}
		switch {
		case rd.Offset == nil:
			return nil, fmt.Errorf("%w: asset %q: missing offset", ErrInvalidIndex, path)
		case rd.Length == nil:
			return nil, fmt.Errorf("%w: asset %q: missing length", ErrInvalidIndex, path)
		case rd.Fragment == nil:
			return nil, fmt.Errorf("%w: asset %q: missing fragment", ErrInvalidIndex, path)
		}
		desc := AssetDescriptor{
			Offset:   *rd.Offset,
			Length:   *rd.Length,
			Fragment: *rd.Fragment,
		}
		if rd.MimeType != nil {
			desc.MimeType = *rd.MimeType
		}
		idx.Assets[path] = desc
	}
	if err := idx.Validate(); err != nil {
		return nil, err
	}
	return idx, nil
}

// LoadIndex parses data and resolves every fragment location against base.
func LoadIndex(data []byte, base string) (*Index, error) {
	idx, err := ParseIndex(data)
	if err != nil {
		return nil, err
	}
	return idx.Resolve(base)
}

// Validate checks the structural invariants of the index and fills in
// default mimetypes.
//
// Every asset must reference a fragment declared in the same index and have
// a non-negative offset and length. Ranges are not checked against fragment
// sizes; that surfaces as [ErrOutOfRange] when the asset is read.
func (idx *Index) Validate() error {
	if idx == nil {
		return fmt.Errorf("%w: nil index", ErrInvalidIndex)
	}
	if idx.Fragments == nil {
		return fmt.Errorf("%w: missing fragments section", ErrInvalidIndex)
	}
	if idx.Assets == nil {
		return fmt.Errorf("%w: missing assets section", ErrInvalidIndex)
	}
	for path, desc := range idx.Assets {
		if desc.Fragment == "" {
			return fmt.Errorf("%w: asset %q: missing fragment", ErrInvalidIndex, path)
		}
		if _, ok := idx.Fragments[desc.Fragment]; !ok {
			return fmt.Errorf("%w: asset %q: fragment %q is not declared", ErrInvalidIndex, path, desc.Fragment)
		}
		if desc.Offset < 0 || desc.Length < 0 {
			return fmt.Errorf("%w: asset %q: negative range [%d, +%d)", ErrInvalidIndex, path, desc.Offset, desc.Length)
		}
		if desc.MimeType == "" {
			desc.MimeType = DefaultMimeType
			idx.Assets[path] = desc
		}
	}
	return nil
}

// Resolve returns a copy of the index whose fragment locations are absolute,
// resolved against base. Absolute locations pass through unchanged.
func (idx *Index) Resolve(base string) (*Index, error) {
	out := &Index{
		Fragments: make(map[string]string, len(idx.Fragments)),
		Assets:    make(map[string]AssetDescriptor, len(idx.Assets)),
	}
	for id, loc := range idx.Fragments {
		abs, err := ResolveURI(base, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: fragment %q: %w", ErrInvalidIndex, id, err)
		}
		out.Fragments[id] = abs
	}
	for path, desc := range idx.Assets {
		out.Assets[path] = desc
	}
	return out, nil
}

// Paths returns the asset paths of the index in sorted order.
func (idx *Index) Paths() []string {
	paths := make([]string, 0, len(idx.Assets))
	for p := range idx.Assets {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Marshal encodes the index as JSON.
func (idx *Index) Marshal() ([]byte, error) {
	return json.Marshal(idx)
}
