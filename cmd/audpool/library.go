// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ik5/audpool/library"
)

func libraryCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Inspect resource library tables",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <library.yaml>",
		Short: "List resources, groups, mixers and tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := library.LoadFile(args[0], library.WithLogger(a.logger))
			if err != nil {
				return err
			}
			return printLibrary(cmd.OutOrStdout(), lib)
		},
	})
	return cmd
}

func printLibrary(out io.Writer, lib *library.Library) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "RESOURCE\tID\tVOLUME\tPITCH\tSTART\tMIXER\tLOOP")
	for _, r := range lib.Resources() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.3fs\t%s\t%t\n",
			r.Name(), r.ID, formatRange(r.Volume), formatRange(r.Pitch), r.DynamicStart, dash(r.Mixer), r.Loop)
	}

	if groups := lib.Groups(); len(groups) > 0 {
		fmt.Fprintln(w, "\nGROUP\tID\tMODE\tMEMBERS")
		for _, g := range groups {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", g.Key, g.ID, g.Mode, strings.Join(g.Members, ","))
		}
	}

	if mixers := lib.Mixers(); len(mixers) > 0 {
		fmt.Fprintln(w, "\nMIXER\tID\tHANDLE\tVOLUME")
		for _, m := range mixers {
			fmt.Fprintf(w, "%s\t%s\t%s\t%g\n", m.Key, m.ID, dash(m.Handle), m.Volume)
		}
	}

	if tags := lib.Tags(); len(tags) > 0 {
		fmt.Fprintln(w, "\nTAG\tRESOURCES")
		names := make([]string, 0, len(tags))
		for tag := range tags {
			names = append(names, tag)
		}
		slices.Sort(names)
		for _, tag := range names {
			fmt.Fprintf(w, "%s\t%s\n", tag, strings.Join(tags[tag], ","))
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func formatRange(r library.Range) string {
	if r.Min == r.Max {
		return fmt.Sprintf("%g", r.Min)
	}
	return fmt.Sprintf("%g-%g", r.Min, r.Max)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
