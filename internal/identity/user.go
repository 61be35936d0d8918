// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Plume Contributors

package identity

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
)

// Field constraints for account records.
const (
	MaxNameLength     = 50
	MinPasswordLength = 6
)

// emailRegex matches the accepted address format, evaluated case-insensitively.
var emailRegex = regexp.MustCompile(`(?i)^[\w+\-.]+@[a-z\d\-.]+\.[a-z]+$`)

// User represents an account record.
type User struct {
	ID             ulid.ULID
	Name           string
	Email          string // stored lower-cased
	PasswordDigest string
	RememberHash   string // SHA-256 of the current session token
	Admin          bool
	FailedAttempts int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Params is the allow-listed projection of external form input. It is the
// only way bulk field data reaches a User: the admin flag is deliberately
// absent, so a crafted field map cannot grant the role (mass-assignment
// protection).
type Params struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

// ParamsFromMap projects an arbitrary field map through the allow-list.
// Unknown keys, including "admin", are dropped.
func ParamsFromMap(fields map[string]string) Params {
	return Params{
		Name:                 fields["name"],
		Email:                fields["email"],
		Password:             fields["password"],
		PasswordConfirmation: fields["password_confirmation"],
	}
}

// RecordFailure increments the failed-login counter.
func (u *User) RecordFailure() {
	u.FailedAttempts++
	u.UpdatedAt = time.Now()
}

// RecordSuccess resets the failed-login counter.
func (u *User) RecordSuccess() {
	u.FailedAttempts = 0
	u.UpdatedAt = time.Now()
}

// UserRepository manages account persistence. Implementations must enforce
// case-insensitive email uniqueness atomically (a unique constraint) as the
// second line of defence behind the validator, and must remove a user's
// microposts when the user is deleted.
type UserRepository interface {
	// Create stores a new user.
	// Returns ErrDuplicateEmail if the email is already taken.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByRememberHash retrieves the user whose current session token
	// hashes to the given value.
	GetByRememberHash(ctx context.Context, hash string) (*User, error)

	// Update persists all mutable fields of an existing user, including the
	// remember hash, in a single write.
	// Returns ErrDuplicateEmail if the new email is already taken.
	Update(ctx context.Context, user *User) error

	// Delete removes a user and, in the same transaction, the microposts
	// the user owns.
	Delete(ctx context.Context, id ulid.ULID) error

	// ListPage returns a page of users ordered by creation time.
	// Pages are numbered from 1.
	ListPage(ctx context.Context, page, perPage int) ([]*User, error)
}
