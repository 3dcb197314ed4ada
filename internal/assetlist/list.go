// Package assetlist expands glob patterns into the files to pack.
package assetlist

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMimeType is reported for files whose extension is unknown.
const DefaultMimeType = "application/octet-stream"

// Pattern selects files relative to a working directory.
type Pattern struct {
	// Pattern is a doublestar glob such as "**/*.png". Matched paths,
	// relative to Dir, become asset paths.
	Pattern string

	// Dir is the directory the pattern is evaluated in. Relative values are
	// resolved against the process working directory; empty means the
	// working directory itself.
	Dir string

	// Exclude lists doublestar globs; files whose asset path matches any of
	// them are skipped.
	Exclude []string
}

// File is one listed file.
type File struct {
	Path     string // slash-separated path relative to the pattern directory
	File     string // absolute filesystem path
	Size     int64
	MimeType string
}

// List expands every pattern and returns the matched regular files.
// Results keep pattern order; files matched by one pattern are sorted.
func List(ctx context.Context, patterns []Pattern) ([]File, error) {
	var files []File
	for _, p := range patterns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		matched, err := listPattern(p)
		if err != nil {
			return nil, err
		}
		files = append(files, matched...)
	}
	return files, nil
}

func listPattern(p Pattern) ([]File, error) {
	dir, pattern, err := split(p)
	if err != nil {
		return nil, err
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("assetlist: invalid pattern %q", p.Pattern)
	}
	for _, ex := range p.Exclude {
		if !doublestar.ValidatePattern(ex) {
			return nil, fmt.Errorf("assetlist: invalid exclude pattern %q", ex)
		}
	}

	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, fmt.Errorf("assetlist: %s: %w", p.Pattern, err)
	}
	sort.Strings(matches)

	files := make([]File, 0, len(matches))
	for _, m := range matches {
		if excluded(m, p.Exclude) {
			continue
		}
		abs := filepath.Join(dir, filepath.FromSlash(m))
		info, err := os.Lstat(abs)
		if err != nil {
			return nil, err
		}
		if !info.Mode().IsRegular() {
			continue
		}
		files = append(files, File{
			Path:     m,
			File:     abs,
			Size:     info.Size(),
			MimeType: MimeType(m),
		})
	}
	return files, nil
}

// split returns the absolute directory to glob in and the pattern relative
// to it. Absolute patterns are split at their last literal directory.
func split(p Pattern) (string, string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", "", err
	}
	dir := wd
	if p.Dir != "" {
		dir = p.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(wd, dir)
		}
	}
	pattern := filepath.ToSlash(p.Pattern)
	if path.IsAbs(pattern) || filepath.IsAbs(p.Pattern) {
		base, rest := doublestar.SplitPattern(pattern)
		return filepath.FromSlash(base), rest, nil
	}
	return dir, pattern, nil
}

func excluded(name string, patterns []string) bool {
	for _, pat := range patterns {
		if matched, err := doublestar.Match(pat, name); err == nil && matched {
			return true
		}
	}
	return false
}

// MimeType returns the media type registered for the extension of name,
// without parameters, or DefaultMimeType.
func MimeType(name string) string {
	t := mime.TypeByExtension(path.Ext(name))
	if t == "" {
		return DefaultMimeType
	}
	mt, _, err := mime.ParseMediaType(t)
	if err != nil {
		return DefaultMimeType
	}
	return mt
}
