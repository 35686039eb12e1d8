package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/checktube/check-bot/internal/core/domain"
	coreerrors "github.com/checktube/check-bot/internal/core/errors"
)

// AddComment stores a mention comment. Insertion is idempotent: a duplicate
// id is ignored and the stored row is left untouched.
func (db *DB) AddComment(ctx context.Context, c domain.Comment) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO comments (id, parent_id, video_id, author_handle, body, published_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO NOTHING`,
		c.ID, c.ParentID, c.VideoID, c.AuthorHandle, c.Text, toTimestamptz(c.PublishedAt))
	if err != nil {
		return false, fmt.Errorf("add comment: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// GetComment returns the comment with the given id, or ErrCommentNotFound.
func (db *DB) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, parent_id, video_id, author_handle, body, published_at
		 FROM comments WHERE id = $1`, id)

	var c domain.Comment
	if err := row.Scan(&c.ID, &c.ParentID, &c.VideoID, &c.AuthorHandle, &c.Text, &c.PublishedAt); err != nil {
		if errorsIsNoRows(err) {
			return nil, coreerrors.ErrCommentNotFound
		}

		return nil, fmt.Errorf("get comment: %w", err)
	}

	return &c, nil
}

// ListPendingComments returns comments no request references yet. The
// pending predicate is this query, not a stored flag: creating any request
// for a comment, including a synthesized rejection, takes it out of the set.
func (db *DB) ListPendingComments(ctx context.Context) ([]domain.Comment, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT c.id, c.parent_id, c.video_id, c.author_handle, c.body, c.published_at
		 FROM comments c
		 WHERE NOT EXISTS (SELECT 1 FROM requests r WHERE r.comment_id = c.id)
		 ORDER BY c.published_at`)
	if err != nil {
		return nil, fmt.Errorf("list pending comments: %w", err)
	}

	return scanComments(rows)
}

func scanComments(rows pgx.Rows) ([]domain.Comment, error) {
	defer rows.Close()

	var comments []domain.Comment

	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.ParentID, &c.VideoID, &c.AuthorHandle, &c.Text, &c.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}

		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}
