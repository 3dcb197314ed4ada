package main

import (
	"context"
	"fmt"
	nethttp "net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meigma/oaf"
	"github.com/meigma/oaf/cache"
	"github.com/meigma/oaf/cache/disk"
	"github.com/meigma/oaf/source"
	"github.com/meigma/oaf/source/http"
	"github.com/meigma/oaf/source/s3"
)

// addReadFlags registers the flags shared by commands that open an index.
func addReadFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("root", "", "Location fragments resolve against (default: next to the index)")
	flags.String("cache-dir", "", "Keep fetched indices and fragments in this directory")
	flags.StringArray("header", nil, "Extra HTTP request header as key=value (repeatable)")
}

// openResolver builds a resolver for the read flags and ingests the index at uri.
func (a *app) openResolver(ctx context.Context, uri string) (*oaf.Resolver, error) {
	root := a.v.GetString("root")
	fetcher, err := a.fetcher(ctx, uri, root)
	if err != nil {
		return nil, err
	}
	r := oaf.NewResolver(oaf.WithFetcher(fetcher), oaf.WithLogger(a.logger))
	if err := r.AddIndexFromURI(ctx, uri, root); err != nil {
		return nil, fmt.Errorf("load index %s: %w", uri, err)
	}
	return r, nil
}

// fetcher assembles the transport stack: the scheme router, S3 when any
// location needs it, and the disk cache when configured.
func (a *app) fetcher(ctx context.Context, locations ...string) (oaf.Fetcher, error) {
	header := make(nethttp.Header)
	for _, kv := range a.v.GetStringSlice("header") {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid header %q: want key=value", kv)
		}
		header.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	router := source.NewRouter()
	if len(header) > 0 {
		web := http.NewSource(http.WithHeaders(header))
		router.Register("http", web)
		router.Register("https", web)
	}
	for _, loc := range locations {
		if !strings.HasPrefix(strings.ToLower(loc), "s3://") {
			continue
		}
		src, err := s3.NewDefaultSource(ctx)
		if err != nil {
			return nil, err
		}
		router.Register("s3", src)
		break
	}

	dir := a.v.GetString("cache-dir")
	if dir == "" {
		return router, nil
	}
	c, err := disk.New(dir)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	a.logger.Debug("using fragment cache", "dir", c.Dir())
	return cache.NewFetcher(router, c, cache.WithLogger(a.logger)), nil
}
