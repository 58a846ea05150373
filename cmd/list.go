package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func addListCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the live partitions of the managed table",
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := a.partitioner.ListPartitions(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PARTITION\tFROM\tUNTIL")
			for _, p := range chain {
				from := "-infinity"
				if p.RangeMinimum.Valid {
					from = p.RangeMinimum.Time.UTC().Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, from, p.RangeLessThan.UTC().Format("2006-01-02 15:04:05"))
			}

			return w.Flush()
		},
	}

	return cmd
}
