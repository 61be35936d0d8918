// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Plume Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/plumeapp/plume/internal/config"
	"github.com/plumeapp/plume/internal/logging"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Plume CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plume",
		Short: "Plume - user management for the microblog",
		Long: `Plume manages microblog accounts: registration, login, session
tokens, role-gated destruction, and the microposts users own.`,
	}

	// Global flags; names match koanf keys so posflag can overlay them.
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	cmd.PersistentFlags().String("database.url", "", "PostgreSQL connection URL")
	cmd.PersistentFlags().String("log.level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log.format", "", "log format (text, json)")
	cmd.PersistentFlags().String("metrics.addr", "", "metrics listen address")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewCreateAdminCmd())
	cmd.AddCommand(NewSeedCmd())

	return cmd
}

// loadConfig loads configuration honoring the command's flag overrides and
// installs the default logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logging.SetDefault("plume", version, cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}
