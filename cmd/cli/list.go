package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hamed0406/wazuhcheck/internal/catalog"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the checks and their targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tKIND\tTARGET")
			for _, c := range catalog.Checks(a.cfg, a.log) {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Kind, c.Target)
			}
			return tw.Flush()
		},
	}
}
