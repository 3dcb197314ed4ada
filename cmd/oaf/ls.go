package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newLsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls <INDEX>",
		Short: "List the assets of an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLs(cmd, args[0])
		},
	}
	addReadFlags(cmd)
	cmd.Flags().BoolP("long", "l", false, "Show fragment, offset, length and mimetype")
	return cmd
}

func (a *app) runLs(cmd *cobra.Command, uri string) error {
	r, err := a.openResolver(cmd.Context(), uri)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !a.v.GetBool("long") {
		for _, path := range r.Assets() {
			fmt.Fprintln(out, path)
		}
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tFRAGMENT\tOFFSET\tLENGTH\tMIMETYPE")
	for _, path := range r.Assets() {
		desc, _ := r.Stat(path)
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", path, desc.Fragment, desc.Offset, desc.Length, desc.MimeType)
	}
	return tw.Flush()
}
