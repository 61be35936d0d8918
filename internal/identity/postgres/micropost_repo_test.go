// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Plume Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumeapp/plume/internal/micropost"
)

var micropostCols = []string{"id", "user_id", "content", "created_at"}

func testMicropost(t *testing.T) *micropost.Micropost {
	t.Helper()
	return &micropost.Micropost{
		ID:        ulid.Make(),
		UserID:    ulid.Make(),
		Content:   "Lorem ipsum",
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMicropostRepository_Create(t *testing.T) {
	post := testMicropost(t)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   bool
	}{
		{
			name: "successful insert",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO microposts`).
					WithArgs(post.ID.String(), post.UserID.String(), post.Content, post.CreatedAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO microposts`).
					WithArgs(post.ID.String(), post.UserID.String(), post.Content, post.CreatedAt).
					WillReturnError(errors.New("foreign key violation"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewMicropostRepository(mock)
			err = repo.Create(context.Background(), post)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestMicropostRepository_CountByUser(t *testing.T) {
	userID := ulid.Make()

	t.Run("returns the count", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM microposts WHERE user_id = \$1`).
			WithArgs(userID.String()).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))

		repo := NewMicropostRepository(mock)
		count, err := repo.CountByUser(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, 7, count)

		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}

func TestMicropostRepository_ListPageByUser(t *testing.T) {
	userID := ulid.Make()

	t.Run("pages newest first", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		newer := testMicropost(t)
		older := testMicropost(t)
		rows := pgxmock.NewRows(micropostCols).
			AddRow(newer.ID.String(), userID.String(), newer.Content, newer.CreatedAt).
			AddRow(older.ID.String(), userID.String(), older.Content, older.CreatedAt)

		mock.ExpectQuery(`SELECT id, user_id, content, created_at FROM microposts WHERE user_id = \$1 ORDER BY created_at DESC, id DESC LIMIT \$2 OFFSET \$3`).
			WithArgs(userID.String(), 5, 5).
			WillReturnRows(rows)

		repo := NewMicropostRepository(mock)
		posts, err := repo.ListPageByUser(context.Background(), userID, 2, 5)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, newer.ID, posts[0].ID)
		assert.Equal(t, userID, posts[0].UserID)

		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("empty page", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, user_id, content, created_at FROM microposts WHERE user_id = \$1`).
			WithArgs(userID.String(), 30, 0).
			WillReturnRows(pgxmock.NewRows(micropostCols))

		repo := NewMicropostRepository(mock)
		posts, err := repo.ListPageByUser(context.Background(), userID, 1, 30)
		require.NoError(t, err)
		assert.Empty(t, posts)

		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}

func TestMicropostRepository_DeleteByUser(t *testing.T) {
	userID := ulid.Make()

	t.Run("returns the number of deleted posts", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectExec(`DELETE FROM microposts WHERE user_id = \$1`).
			WithArgs(userID.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 4))

		repo := NewMicropostRepository(mock)
		n, err := repo.DeleteByUser(context.Background(), userID)
		require.NoError(t, err)
		assert.EqualValues(t, 4, n)

		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("no posts is not an error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectExec(`DELETE FROM microposts WHERE user_id = \$1`).
			WithArgs(userID.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		repo := NewMicropostRepository(mock)
		n, err := repo.DeleteByUser(context.Background(), userID)
		require.NoError(t, err)
		assert.Zero(t, n)

		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}
