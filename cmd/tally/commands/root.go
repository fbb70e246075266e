// Package commands implements the tally CLI: a treasurer for shared
// expenses that answers with an optimal settlement plan.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tallybot/tally/internal/config"
	"github.com/tallybot/tally/internal/service"
	"github.com/tallybot/tally/internal/storage"
	"github.com/tallybot/tally/internal/storage/sqlite"
	"github.com/tallybot/tally/pkg/logging"
)

var (
	dbPath string
	from   string

	cfg       *config.Config
	kv        storage.KV
	treasurer *service.Treasurer
)

func Execute() error {
	root := &cobra.Command{
		Use:          "tally",
		Short:        "Shared-expense treasurer with optimal settlement",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logging.Setup(cfg.LogLevel)

			if dbPath == "" {
				dbPath = cfg.DBPath
			}
			store, err := sqlite.New(dbPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			kv = store

			treasurer, err = service.New(cmd.Context(), storage.New(kv))
			if err != nil {
				kv.Close()
				return err
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if kv == nil {
				return nil
			}
			return kv.Close()
		},
	}

	root.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default $TALLY_DB_PATH)")

	root.AddCommand(sendCmd(), replCmd())
	return root.Execute()
}
