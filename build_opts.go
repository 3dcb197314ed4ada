package oaf

import (
	"context"
	"log/slog"

	"github.com/meigma/oaf/internal/assetlist"
)

// DefaultIndexName is the index file name used when no
// BuildWithIndexName option is set.
const DefaultIndexName = "index.json"

// defaultBuildWorkers is used when no BuildWithWorkers option is set.
const defaultBuildWorkers = 4

// Pattern selects files to pack relative to a working directory.
type Pattern = assetlist.Pattern

// Lister expands patterns into the files to pack, in packing order.
type Lister func(ctx context.Context, patterns []Pattern) ([]AssetSource, error)

// buildConfig holds configuration for archive builds.
type buildConfig struct {
	outputDir string
	indexName string
	workers   int
	lister    Lister
	progress  ProgressFunc
	logger    *slog.Logger
	packOpts  []PackOption
}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

// BuildWithOutputDir sets the folder receiving fragments and the index.
// The default is the process working directory.
func BuildWithOutputDir(dir string) BuildOption {
	return func(cfg *buildConfig) {
		cfg.outputDir = dir
	}
}

// BuildWithIndexName sets the index file name (default "index.json").
func BuildWithIndexName(name string) BuildOption {
	return func(cfg *buildConfig) {
		cfg.indexName = name
	}
}

// BuildWithFragmentSize sets the fragment size threshold.
// See PackWithFragmentSize.
func BuildWithFragmentSize(n int64) BuildOption {
	return func(cfg *buildConfig) {
		cfg.packOpts = append(cfg.packOpts, PackWithFragmentSize(n))
	}
}

// BuildWithPackOptions passes options through to Pack.
func BuildWithPackOptions(opts ...PackOption) BuildOption {
	return func(cfg *buildConfig) {
		cfg.packOpts = append(cfg.packOpts, opts...)
	}
}

// BuildWithWorkers sets how many fragments are written concurrently.
// Values < 1 use the default (4).
func BuildWithWorkers(n int) BuildOption {
	return func(cfg *buildConfig) {
		cfg.workers = n
	}
}

// BuildWithLister replaces the glob-based file lister.
func BuildWithLister(l Lister) BuildOption {
	return func(cfg *buildConfig) {
		cfg.lister = l
	}
}

// BuildWithProgress sets a callback for progress updates.
func BuildWithProgress(fn ProgressFunc) BuildOption {
	return func(cfg *buildConfig) {
		cfg.progress = fn
	}
}

// BuildWithLogger sets the logger for build operations.
// If not set, logging is disabled.
func BuildWithLogger(logger *slog.Logger) BuildOption {
	return func(cfg *buildConfig) {
		cfg.logger = logger
	}
}

// ListAssets expands patterns with the default glob lister: files only,
// "**" supported, excludes matched against asset paths, mimetypes derived
// from file extensions.
func ListAssets(ctx context.Context, patterns []Pattern) ([]AssetSource, error) {
	files, err := assetlist.List(ctx, patterns)
	if err != nil {
		return nil, err
	}
	assets := make([]AssetSource, len(files))
	for i, f := range files {
		assets[i] = AssetSource{
			Path:     f.Path,
			File:     f.File,
			Size:     f.Size,
			MimeType: f.MimeType,
		}
	}
	return assets, nil
}
