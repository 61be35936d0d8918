// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Plume Contributors

//go:build integration

package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumeapp/plume/internal/identity"
	idpg "github.com/plumeapp/plume/internal/identity/postgres"
	"github.com/plumeapp/plume/internal/micropost"
	"github.com/plumeapp/plume/internal/store"
)

func newIntegrationUser(t *testing.T) *identity.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := ulid.Make()
	return &identity.User{
		ID:             id,
		Name:           "Integration User",
		Email:          "integration-" + id.String() + "@plume.test",
		PasswordDigest: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		RememberHash:   identity.HashRememberToken(id.String()),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestUserRepository_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := store.Connect(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	migrator, err := store.NewMigrator(dsn)
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	defer migrator.Close()

	users := idpg.NewUserRepository(pool)
	posts := idpg.NewMicropostRepository(pool)

	user := newIntegrationUser(t)
	require.NoError(t, users.Create(ctx, user))
	defer func() { _ = users.Delete(ctx, user.ID) }()

	t.Run("email lookup is case-insensitive", func(t *testing.T) {
		got, err := users.GetByEmail(ctx, "INTEGRATION-"+user.ID.String()+"@PLUME.TEST")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("duplicate email violates the unique index", func(t *testing.T) {
		dup := newIntegrationUser(t)
		dup.Email = user.Email
		err := users.Create(ctx, dup)
		assert.ErrorIs(t, err, identity.ErrDuplicateEmail)
	})

	t.Run("token rotation supersedes the old hash", func(t *testing.T) {
		oldHash := user.RememberHash
		user.RememberHash = identity.HashRememberToken("rotated-" + user.ID.String())
		user.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
		require.NoError(t, users.Update(ctx, user))

		got, err := users.GetByRememberHash(ctx, user.RememberHash)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		_, err = users.GetByRememberHash(ctx, oldHash)
		assert.ErrorIs(t, err, identity.ErrNotFound)
	})

	t.Run("deleting the user removes the microposts", func(t *testing.T) {
		victim := newIntegrationUser(t)
		require.NoError(t, users.Create(ctx, victim))

		post, err := micropost.New(victim.ID, "doomed content")
		require.NoError(t, err)
		require.NoError(t, posts.Create(ctx, post))

		require.NoError(t, users.Delete(ctx, victim.ID))

		count, err := posts.CountByUser(ctx, victim.ID)
		require.NoError(t, err)
		assert.Zero(t, count)

		_, err = users.GetByID(ctx, victim.ID)
		assert.ErrorIs(t, err, identity.ErrNotFound)
	})
}
