package main

import (
	"fmt"

	"github.com/frain-dev/timepart"
	"github.com/spf13/cobra"
)

func addVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		// no database required to print a version
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(timepart.Version)
		},
	}
}
