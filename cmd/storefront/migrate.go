package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the sqlite catalog schema and seed it with the bundled products",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		if cfg.Catalog.DBPath == "" {
			return errors.New("CATALOG_DB_PATH is not set")
		}

		repo, err := prepareSQLCatalog(cmd.Context(), cfg.Catalog.DBPath, log)
		if err != nil {
			return err
		}
		defer func() { _ = repo.Close() }()

		log.Info("catalog database ready", zap.String("path", cfg.Catalog.DBPath))
		return nil
	},
}
