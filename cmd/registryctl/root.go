package main

import (
	"fmt"
	"time"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/config"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/database"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// env holds what every subcommand needs once the persistent pre-run has loaded configuration.
type env struct {
	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	var (
		envFiles []string
		e        env
	)

	cmd := &cobra.Command{
		Use:           "registryctl",
		Short:         "Operations tooling for the fixed asset registry",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Log)
			if err != nil {
				return fmt.Errorf("logger setup: %w", err)
			}
			e.cfg, e.log = cfg, log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.log != nil {
				_ = e.log.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{"configs/.env", ".env"}, "Dotenv files to load when present")
	cmd.AddCommand(newMigrateCmd(&e), newReportCmd(&e))
	return cmd
}

func (e *env) connect() (*gorm.DB, func(), error) {
	db, err := database.NewConnection(e.cfg.Database.DSN(), e.log)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, closeFn, nil
}

var timeNow = time.Now
