// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Plume Contributors

// Package micropost provides the micropost domain type and its persistence
// contract. Microposts belong to exactly one user and are removed when that
// user is destroyed.
package micropost

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MaxContentLength is the micropost content limit in characters.
const MaxContentLength = 140

// Micropost is a short post owned by a single user.
type Micropost struct {
	ID        ulid.ULID
	UserID    ulid.ULID
	Content   string
	CreatedAt time.Time
}

// New creates a validated Micropost.
func New(userID ulid.ULID, content string) (*Micropost, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("MICROPOST_INVALID_USER").Errorf("user ID cannot be zero")
	}
	if err := ValidateContent(content); err != nil {
		return nil, err
	}
	return &Micropost{
		ID:        ulid.Make(),
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now(),
	}, nil
}

// ValidateContent checks the content rules: present and at most
// MaxContentLength characters.
func ValidateContent(content string) error {
	if content == "" {
		return oops.Code("MICROPOST_INVALID_CONTENT").Errorf("content cannot be blank")
	}
	if len([]rune(content)) > MaxContentLength {
		return oops.Code("MICROPOST_INVALID_CONTENT").
			With("max", MaxContentLength).
			Errorf("content is too long (maximum is %d characters)", MaxContentLength)
	}
	return nil
}

// Repository manages micropost persistence. It carries only what ownership,
// cascade delete, and listing need.
type Repository interface {
	// Create stores a new micropost.
	Create(ctx context.Context, post *Micropost) error

	// CountByUser returns the number of microposts owned by a user.
	CountByUser(ctx context.Context, userID ulid.ULID) (int, error)

	// ListPageByUser returns a page of a user's microposts, newest first.
	// Pages are numbered from 1.
	ListPageByUser(ctx context.Context, userID ulid.ULID, page, perPage int) ([]*Micropost, error)

	// DeleteByUser removes all microposts owned by a user and returns the
	// count of deleted records.
	DeleteByUser(ctx context.Context, userID ulid.ULID) (int64, error)
}
