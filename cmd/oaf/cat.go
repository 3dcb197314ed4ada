package main

import (
	"github.com/spf13/cobra"
)

func newCatCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat <INDEX> <ASSET>...",
		Short: "Write the content of assets to standard output",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCat(cmd, args[0], args[1:])
		},
	}
	addReadFlags(cmd)
	return cmd
}

func (a *app) runCat(cmd *cobra.Command, uri string, paths []string) error {
	ctx := cmd.Context()
	r, err := a.openResolver(ctx, uri)
	if err != nil {
		return err
	}

	// Start every fragment fetch before blocking on the first asset.
	for _, path := range paths {
		if err := r.Preload(path); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for _, path := range paths {
		c, err := r.Bytes(ctx, path)
		if err != nil {
			return err
		}
		if _, err := out.Write(c.Bytes()); err != nil {
			return err
		}
		a.logger.Debug("asset written", "path", path, "mimetype", c.MimeType(), "size", c.Len())
	}
	return nil
}
