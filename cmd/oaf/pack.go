package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/meigma/oaf"
)

func newPackCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack <PATTERN>...",
		Short: "Pack files matching glob patterns into fragments and an index",
		Long: "Pack lists the files matching every pattern (\"**\" crosses directories), " +
			"assigns them to fragments in listing order and writes the fragments " +
			"plus the index file into the output folder.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPack(cmd, args)
		},
	}
	flags := cmd.Flags()
	flags.Int64("size", oaf.DefaultFragmentSize, "Fragment size threshold in bytes")
	flags.StringP("output", "o", ".", "Output folder for fragments and the index")
	flags.String("index", oaf.DefaultIndexName, "Index file name")
	flags.StringP("dir", "C", "", "Directory patterns are evaluated in (default: working directory)")
	flags.StringSlice("exclude", nil, "Glob patterns of asset paths to skip")
	flags.Int("workers", 4, "Fragments written concurrently")
	flags.BoolP("quiet", "q", false, "Do not print fragments or progress")
	return cmd
}

func (a *app) runPack(cmd *cobra.Command, args []string) error {
	v := a.v
	patterns := make([]oaf.Pattern, len(args))
	for i, arg := range args {
		patterns[i] = oaf.Pattern{
			Pattern: arg,
			Dir:     v.GetString("dir"),
			Exclude: v.GetStringSlice("exclude"),
		}
	}

	opts := []oaf.BuildOption{
		oaf.BuildWithOutputDir(v.GetString("output")),
		oaf.BuildWithIndexName(v.GetString("index")),
		oaf.BuildWithFragmentSize(v.GetInt64("size")),
		oaf.BuildWithWorkers(v.GetInt("workers")),
		oaf.BuildWithLogger(a.logger),
	}
	var p *packProgress
	if !v.GetBool("quiet") {
		p = &packProgress{out: cmd.OutOrStdout(), bar: cmd.ErrOrStderr()}
		opts = append(opts, oaf.BuildWithProgress(p.report))
	}

	idx, err := oaf.Build(cmd.Context(), patterns, opts...)
	if err != nil {
		return err
	}
	if p != nil {
		p.finish()
	}
	a.logger.Debug("pack complete", "fragments", len(idx.Fragments), "assets", len(idx.Assets))
	return nil
}

// packProgress prints each written fragment with its assets and drives a
// byte progress bar. Events arrive from concurrent writers.
type packProgress struct {
	out io.Writer
	bar io.Writer

	mu    sync.Mutex
	pb    *progressbar.ProgressBar
	shown uint64
}

func (p *packProgress) report(ev oaf.ProgressEvent) {
	if ev.Stage != oaf.StageWritingFragment {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pb == nil && ev.BytesTotal > 0 {
		p.pb = progressbar.NewOptions64(int64(ev.BytesTotal), //nolint:gosec // sizes fit in int64
			progressbar.OptionSetWriter(p.bar),
			progressbar.OptionSetDescription("packing"),
			progressbar.OptionShowBytes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	fmt.Fprintf(p.out, "* %s\n", ev.Path)
	for _, asset := range ev.Assets {
		fmt.Fprintf(p.out, "  * %s  (%s)\n", asset.Path, asset.File)
	}

	// Writers finish out of order; only move the bar forward.
	if p.pb != nil && ev.BytesDone > p.shown {
		p.shown = ev.BytesDone
		_ = p.pb.Set64(int64(ev.BytesDone)) //nolint:gosec // sizes fit in int64
	}
}

func (p *packProgress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pb != nil {
		_ = p.pb.Finish()
	}
}
