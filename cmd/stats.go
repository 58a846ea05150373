package main

import (
	"fmt"
	"os"

	"github.com/frain-dev/timepart/database/postgres"
	"github.com/frain-dev/timepart/internal/pkg/partition"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

func addStatsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print partition inventory metrics in prometheus exposition format",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := postgres.NewCatalogRepo(a.db, partition.DefaultFormat())
			collector := postgres.NewPartitionCollector(catalog, a.cfg.Partition.Table, a.cfg.Partition.Column, a.logger)

			registry := prometheus.NewPedanticRegistry()
			if err := registry.Register(collector); err != nil {
				return err
			}

			families, err := registry.Gather()
			if err != nil {
				return err
			}

			enc := expfmt.NewEncoder(os.Stdout, expfmt.NewFormat(expfmt.TypeTextPlain))
			for _, mf := range families {
				if err := enc.Encode(mf); err != nil {
					return fmt.Errorf("failed to encode metric family %s: %v", mf.GetName(), err)
				}
			}

			return nil
		},
	}

	return cmd
}
