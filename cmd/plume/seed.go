// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Plume Contributors

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/plumeapp/plume/internal/identity"
	"github.com/plumeapp/plume/internal/micropost"
	"github.com/plumeapp/plume/internal/store"
)

// seedConfig holds flag values for the seed subcommand.
type seedConfig struct {
	users int
	posts int
}

// NewSeedCmd creates the seed subcommand, which fills a development
// database with example accounts and microposts.
func NewSeedCmd() *cobra.Command {
	scfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with example data",
		Long:  `Create example accounts (password "foobar") and microposts for development.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, scfg)
		},
	}

	cmd.Flags().IntVar(&scfg.users, "users", 10, "number of example accounts to create")
	cmd.Flags().IntVar(&scfg.posts, "posts", 5, "microposts per account")

	return cmd
}

func runSeed(cmd *cobra.Command, scfg *seedConfig) error {
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

	for i := 0; i < scfg.users; i++ {
		user, _, err := a.service.Register(ctx, identity.Params{
			Name:                 fmt.Sprintf("Example User %d", i+1),
			Email:                fmt.Sprintf("example-%d@plume.test", i+1),
			Password:             "foobar",
			PasswordConfirmation: "foobar",
		})
		if err != nil {
			var verrs identity.ValidationErrors
			if errors.As(err, &verrs) {
				// Already seeded; skip duplicates quietly.
				continue
			}
			return err
		}

		for j := 0; j < scfg.posts; j++ {
			post, err := micropost.New(user.ID, fmt.Sprintf("Example micropost %d from %s", j+1, user.Name))
			if err != nil {
				return err
			}
			if err := a.posts.Create(ctx, post); err != nil {
				return err
			}
		}
	}

	cmd.Printf("seeded up to %d accounts with %d microposts each\n", scfg.users, scfg.posts)
	return nil
}
