// Package oaf implements a sharded asset archive format optimized for lazy
// loading of many small files over the network.
//
// Archives consist of two kinds of files:
//   - Index: a JSON document mapping fragment ids to locations and asset
//     paths to byte ranges inside those fragments
//   - Fragments: bounded-size binary files holding a 4-byte header ("OAF"
//     plus a version byte) followed by the concatenated bytes of their assets
//
// # Packing
//
// [Pack] assigns a list of files to fragments with a greedy, order-preserving
// bin packer, and [Build] lists files from glob patterns, packs them and
// writes every fragment and the index to an output folder:
//
//	idx, err := oaf.Build(ctx, []oaf.Pattern{{Pattern: "**/*.png", Dir: "assets"}},
//	    oaf.BuildWithOutputDir("dist"),
//	)
//
// # Reading
//
// A [Resolver] ingests one or more indices, fetches fragments on demand
// through a [Fetcher], caches them for its whole lifetime and serves assets
// as bytes, text, decoded JSON or images:
//
//	r := oaf.NewResolver()
//	if err := r.AddIndexFromURI(ctx, "https://cdn.example.com/assets/index.json", ""); err != nil {
//	    return err
//	}
//	logo, err := r.Image(ctx, "images/logo.png")
//
// Concurrent requests for assets living in the same fragment share a single
// fetch.
package oaf
