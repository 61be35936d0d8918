// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Plume Contributors

package main

import (
	"log/slog"

	"github.com/plumeapp/plume/internal/authz"
	"github.com/plumeapp/plume/internal/identity"
	idpg "github.com/plumeapp/plume/internal/identity/postgres"
)

// app holds the wired domain services. The operator commands use it
// directly; the request layer consumes the same wiring so a transport can
// be mounted without re-plumbing dependencies.
type app struct {
	users   *idpg.UserRepository
	posts   *idpg.MicropostRepository
	service *identity.Service
	engine  *authz.Engine
}

// newApp wires the repositories, identity service, and authorization engine
// on top of a database pool.
func newApp(pool idpg.Pool, logger *slog.Logger) (*app, error) {
	users := idpg.NewUserRepository(pool)
	posts := idpg.NewMicropostRepository(pool)

	service, err := identity.NewServiceWithLogger(users, identity.NewArgon2idHasher(), logger)
	if err != nil {
		return nil, err
	}
	engine, err := authz.NewEngine(logger)
	if err != nil {
		return nil, err
	}

	return &app{
		users:   users,
		posts:   posts,
		service: service,
		engine:  engine,
	}, nil
}
