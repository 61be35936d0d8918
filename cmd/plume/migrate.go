// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Plume Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/plumeapp/plume/internal/store"
)

// migrateConfig holds flag values for the migrate subcommand.
type migrateConfig struct {
	down    bool
	steps   int
	force   int
	version bool
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cfg := &migrateConfig{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply pending schema migrations against the PostgreSQL database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.down, "down", false, "roll back all migrations (destructive)")
	cmd.Flags().IntVar(&cfg.steps, "steps", 0, "apply n migrations (negative rolls back)")
	cmd.Flags().IntVar(&cfg.force, "force", -1, "force the migration version without running migrations")
	cmd.Flags().BoolVar(&cfg.version, "version", false, "print the current migration version")

	return cmd
}

func runMigrate(cmd *cobra.Command, mcfg *migrateConfig) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url is required (flag, config file, or PLUME_DATABASE_URL)")
	}

	migrator, err := store.NewMigrator(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() { _ = migrator.Close() }() //nolint:errcheck // close error after a completed run is not actionable

	switch {
	case mcfg.version:
		version, dirty, err := migrator.Version()
		if err != nil {
			return err
		}
		cmd.Printf("version: %d dirty: %v\n", version, dirty)
		return nil

	case mcfg.force >= 0:
		if err := migrator.Force(mcfg.force); err != nil {
			return err
		}
		cmd.Printf("forced version to %d\n", mcfg.force)
		return nil

	case mcfg.steps != 0:
		if err := migrator.Steps(mcfg.steps); err != nil {
			return err
		}
		cmd.Printf("applied %d step(s)\n", mcfg.steps)
		return nil

	case mcfg.down:
		if err := migrator.Down(); err != nil {
			return err
		}
		cmd.Println("rolled back all migrations")
		return nil

	default:
		if err := migrator.Up(); err != nil {
			return err
		}
		cmd.Println("migrations completed successfully")
		return nil
	}
}
