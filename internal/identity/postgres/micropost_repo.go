// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Plume Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/plumeapp/plume/internal/micropost"
)

// MicropostRepository implements micropost.Repository using PostgreSQL.
type MicropostRepository struct {
	pool Pool
}

// NewMicropostRepository creates a new MicropostRepository.
func NewMicropostRepository(pool Pool) *MicropostRepository {
	return &MicropostRepository{pool: pool}
}

// Create stores a new micropost.
func (r *MicropostRepository) Create(ctx context.Context, post *micropost.Micropost) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO microposts (id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4)
	`,
		post.ID.String(),
		post.UserID.String(),
		post.Content,
		post.CreatedAt,
	)
	if err != nil {
		return oops.Code("MICROPOST_CREATE_FAILED").
			With("operation", "insert micropost").
			With("user_id", post.UserID.String()).
			Wrap(err)
	}
	return nil
}

// CountByUser returns the number of microposts owned by a user.
func (r *MicropostRepository) CountByUser(ctx context.Context, userID ulid.ULID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM microposts WHERE user_id = $1`,
		userID.String(),
	).Scan(&count)
	if err != nil {
		return 0, oops.Code("MICROPOST_COUNT_FAILED").
			With("operation", "count microposts").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return count, nil
}

// ListPageByUser returns a page of a user's microposts, newest first.
func (r *MicropostRepository) ListPageByUser(ctx context.Context, userID ulid.ULID, page, perPage int) ([]*micropost.Micropost, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, content, created_at
		FROM microposts
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID.String(), perPage, offset)
	if err != nil {
		return nil, oops.Code("MICROPOST_LIST_FAILED").
			With("operation", "list microposts").
			With("user_id", userID.String()).
			Wrap(err)
	}
	defer rows.Close()

	var posts []*micropost.Micropost
	for rows.Next() {
		post, err := scanMicropost(rows)
		if err != nil {
			return nil, oops.Code("MICROPOST_LIST_FAILED").
				With("operation", "scan micropost row").
				Wrap(err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("MICROPOST_LIST_FAILED").
			With("operation", "iterate microposts").
			Wrap(err)
	}
	return posts, nil
}

// DeleteByUser removes all microposts owned by a user.
func (r *MicropostRepository) DeleteByUser(ctx context.Context, userID ulid.ULID) (int64, error) {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM microposts WHERE user_id = $1`,
		userID.String(),
	)
	if err != nil {
		return 0, oops.Code("MICROPOST_DELETE_FAILED").
			With("operation", "delete microposts").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

func scanMicropost(row pgx.Row) (*micropost.Micropost, error) {
	var (
		idStr     string
		userIDStr string
		content   string
		createdAt time.Time
	)

	if err := row.Scan(&idStr, &userIDStr, &content, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("MICROPOST_SCAN_FAILED").
			With("operation", "scan micropost").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("MICROPOST_INVALID_ID").
			With("id", idStr).
			Wrap(err)
	}
	userID, err := ulid.Parse(userIDStr)
	if err != nil {
		return nil, oops.Code("MICROPOST_INVALID_USER_ID").
			With("user_id", userIDStr).
			Wrap(err)
	}

	return &micropost.Micropost{
		ID:        id,
		UserID:    userID,
		Content:   content,
		CreatedAt: createdAt,
	}, nil
}

// Compile-time interface check.
var _ micropost.Repository = (*MicropostRepository)(nil)
