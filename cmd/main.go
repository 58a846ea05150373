package main

import (
	"os"
	_ "time/tzdata"

	"github.com/frain-dev/timepart"
	"github.com/frain-dev/timepart/config"
	"github.com/frain-dev/timepart/database/postgres"
	"github.com/frain-dev/timepart/internal/pkg/partition"
	"github.com/frain-dev/timepart/pkg/log"
	"github.com/spf13/cobra"
)

type app struct {
	cfg         config.Configuration
	db          *postgres.Postgres
	logger      *log.Logger
	partitioner *partition.Manager
}

func main() {
	err := os.Setenv("TZ", "") // Use UTC by default :)
	if err != nil {
		os.Exit(1)
	}

	a := &app{}

	cmd := &cobra.Command{
		Use:     "timepart",
		Short:   "Rolling-window time-range partition manager for PostgreSQL",
		Version: timepart.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}

			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}

			logger := log.NewLogger(os.Stdout)
			lvl, err := log.ParseLevel(cfg.Logger.Level)
			if err != nil {
				return err
			}
			logger.SetLevel(lvl)

			db, err := postgres.NewDB(cfg.Database.Dsn)
			if err != nil {
				return err
			}

			bucket, err := cfg.Partition.Bucket()
			if err != nil {
				return err
			}

			format := partition.DefaultFormat()

			synth, err := partition.NewSynthesizer(cfg.Partition.Table, cfg.Partition.Column, format)
			if err != nil {
				return err
			}

			catalog := postgres.NewCatalogRepo(db, format)
			backend := partition.NewInheritanceBackend(synth, postgres.NewStatementExecutor(db), logger)

			manager, err := partition.NewManager(
				partition.WithTable(cfg.Partition.Table, cfg.Partition.Column),
				partition.WithBucket(bucket),
				partition.WithCatalog(catalog),
				partition.WithBackend(backend),
				partition.WithFormat(format),
				partition.WithLogger(logger),
				partition.WithClock(partition.NewRealClock()),
			)
			if err != nil {
				return err
			}

			a.cfg = cfg
			a.db = db
			a.logger = logger
			a.partitioner = manager

			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.db != nil {
				return a.db.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringP("config", "", "./timepart.json", "Configuration file for timepart")

	cmd.AddCommand(addMaintainCommand(a))
	cmd.AddCommand(addListCommand(a))
	cmd.AddCommand(addTeardownCommand(a))
	cmd.AddCommand(addStatsCommand(a))
	cmd.AddCommand(addVersionCommand())

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
