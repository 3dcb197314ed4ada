package oaf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Build lists the files selected by patterns, packs them and writes every
// fragment plus the index into the output folder. It returns the index
// as written.
//
// Fragments are written concurrently and atomically (temp file + rename).
// Any failure, such as an unreadable source file, aborts the build and
// removes the fragments already written by it.
func Build(ctx context.Context, patterns []Pattern, opts ...BuildOption) (*Index, error) {
	cfg := buildConfig{
		indexName: DefaultIndexName,
		workers:   defaultBuildWorkers,
		lister:    ListAssets,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers < 1 {
		cfg.workers = defaultBuildWorkers
	}
	if cfg.outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		cfg.outputDir = wd
	}

	b := &builder{cfg: cfg, logger: cfg.logger}
	b.report(ProgressEvent{Stage: StageListing})
	assets, err := cfg.lister(ctx, patterns)
	if err != nil {
		return nil, err
	}
	b.log().Info("building archive", "assets", len(assets), "output", cfg.outputDir)

	b.report(ProgressEvent{Stage: StagePacking})
	packOpts := append([]PackOption{PackWithLogger(cfg.logger)}, cfg.packOpts...)
	plan, err := Pack(assets, packOpts...)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.outputDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	if err := b.writeFragments(ctx, plan); err != nil {
		return nil, err
	}

	indexPath := filepath.Join(cfg.outputDir, cfg.indexName)
	b.report(ProgressEvent{Stage: StageWritingIndex, Path: indexPath, FilesDone: len(plan.Fragments), FilesTotal: len(plan.Fragments)})
	data, err := plan.Index.Marshal()
	if err != nil {
		b.removeWritten()
		return nil, err
	}
	if err := writeFileAtomic(indexPath, func(w io.Writer) error {
		_, werr := w.Write(data)
		return werr
	}); err != nil {
		b.removeWritten()
		return nil, fmt.Errorf("write index file: %w", err)
	}

	b.log().Info("archive built", "fragments", len(plan.Fragments), "index", indexPath)
	return plan.Index, nil
}

// builder holds state for one Build run.
type builder struct {
	cfg    buildConfig
	logger *slog.Logger

	mu      sync.Mutex
	written []string
}

// log returns the logger, falling back to a discard logger if nil.
func (b *builder) log() *slog.Logger {
	if b.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.logger
}

// report sends a progress event if a callback is configured.
func (b *builder) report(ev ProgressEvent) {
	if b.cfg.progress == nil {
		return
	}
	b.cfg.progress(ev)
}

func (b *builder) writeFragments(ctx context.Context, plan *Plan) error {
	var total uint64
	for _, fp := range plan.Fragments {
		total += uint64(fp.Size) //nolint:gosec // sizes are validated non-negative by Pack
	}
	var bytesDone atomic.Uint64
	var filesDone atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.workers)
	for _, fp := range plan.Fragments {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(b.cfg.outputDir, filepath.FromSlash(fp.Location))
			if err := writeFileAtomic(path, func(w io.Writer) error {
				_, werr := WriteFragment(w, fp)
				return werr
			}); err != nil {
				return fmt.Errorf("write fragment %s: %w", fp.Location, err)
			}
			b.mu.Lock()
			b.written = append(b.written, path)
			b.mu.Unlock()

			b.log().Debug("fragment written", "fragment", fp.ID, "size", fp.Size, "assets", len(fp.Assets))
			b.report(ProgressEvent{
				Stage:      StageWritingFragment,
				Path:       fp.Location,
				Assets:     fp.Assets,
				BytesDone:  bytesDone.Add(uint64(fp.Size)), //nolint:gosec // non-negative
				BytesTotal: total,
				FilesDone:  int(filesDone.Add(1)),
				FilesTotal: len(plan.Fragments),
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		b.removeWritten()
		return err
	}
	return nil
}

// removeWritten deletes the fragments written so far.
func (b *builder) removeWritten() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, path := range b.written {
		_ = os.Remove(path)
	}
	b.written = nil
}

// writeFileAtomic streams write into a temp file next to target, then
// renames it over target.
func writeFileAtomic(target string, write func(io.Writer) error) error {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, ".oaf-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
