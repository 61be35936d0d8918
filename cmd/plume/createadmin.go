// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Plume Contributors

package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/plumeapp/plume/internal/identity"
	"github.com/plumeapp/plume/internal/store"
)

// NewCreateAdminCmd creates the createadmin subcommand.
// This is the only path that grants the admin role; profile updates cannot.
func NewCreateAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "createadmin <email>",
		Short: "Grant the admin role to an existing account",
		Args:  cobra.ExactArgs(1),
		RunE:  runCreateAdmin,
	}
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url is required (flag, config file, or PLUME_DATABASE_URL)")
	}

	ctx := context.Background()
	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	a, err := newApp(pool, slog.Default())
	if err != nil {
		return err
	}

	user, err := a.users.GetByEmail(ctx, args[0])
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return oops.Code("ADMIN_USER_NOT_FOUND").
				With("email", args[0]).
				Errorf("no account with that email")
		}
		return err
	}

	if _, err := a.service.Promote(ctx, user.ID); err != nil {
		return err
	}

	cmd.Printf("granted admin to %s\n", user.Email)
	return nil
}
