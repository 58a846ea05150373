package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func addTeardownCommand(a *app) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "teardown",
		Short: "Undo partitioning, folding all partition rows back into the parent table",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return fmt.Errorf("refusing to tear down partitioning on table %s without --yes", a.cfg.Partition.Table)
			}

			if err := a.partitioner.RemoveAllPartitions(cmd.Context()); err != nil {
				a.logger.WithError(err).Errorf("failed to remove partitions on table %s", a.cfg.Partition.Table)
				return err
			}

			a.logger.Infof("removed all partitions on table %s", a.cfg.Partition.Table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm the teardown")

	return cmd
}
