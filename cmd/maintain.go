package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// addWindowFlags registers the window-shape overrides shared by commands
// that reconcile the partition window.
func addWindowFlags(fs *pflag.FlagSet) {
	fs.Int("past", -1, "Number of past partitions to cover (overrides config)")
	fs.Int("future", -1, "Number of future partitions to cover (overrides config)")
}

func addMaintainCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintain",
		Short: "Prune expired partitions and create upcoming ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			retention, err := a.cfg.Partition.Retention()
			if err != nil {
				return err
			}

			past := a.cfg.Partition.PastCount
			if v, err := cmd.Flags().GetInt("past"); err == nil && v >= 0 {
				past = v
			}

			future := a.cfg.Partition.FutureCount
			if v, err := cmd.Flags().GetInt("future"); err == nil && v >= 0 {
				future = v
			}

			created, err := a.partitioner.PruneAndCreatePartitions(cmd.Context(), retention, past, future)
			if err != nil {
				a.logger.WithError(err).Errorf("failed to maintain partitions on table %s", a.cfg.Partition.Table)
				return err
			}

			a.logger.Infof("created %d partition(s) on table %s", created, a.cfg.Partition.Table)
			return nil
		},
	}

	addWindowFlags(cmd.Flags())

	return cmd
}
