package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/checktube/check-bot/internal/core/domain"
	coreerrors "github.com/checktube/check-bot/internal/core/errors"
)

// CreateRequest creates a pending fact-check request for one mentioned handle.
func (db *DB) CreateRequest(ctx context.Context, commentID, handle, text string) (*domain.Request, error) {
	req := &domain.Request{
		ID:        uuid.NewString(),
		CommentID: commentID,
		Handle:    handle,
		Text:      text,
		State:     domain.RequestPending,
	}

	if _, err := db.Pool.Exec(ctx,
		`INSERT INTO requests (id, comment_id, handle, fact_text, state)
		 VALUES ($1, $2, $3, $4, $5)`,
		req.ID, req.CommentID, req.Handle, req.Text, string(req.State)); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return req, nil
}

// CreateRejectedRequest creates a request directly in the rejected state.
// Used to mark a comment as processed when no usable mention came out of it;
// the row's only job is to keep the comment out of the pending set.
func (db *DB) CreateRejectedRequest(ctx context.Context, commentID, handle, reason string) error {
	if _, err := db.Pool.Exec(ctx,
		`INSERT INTO requests (id, comment_id, handle, state, relevance)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), commentID, handle, string(domain.RequestRejected), reason); err != nil {
		return fmt.Errorf("create rejected request: %w", err)
	}

	return nil
}

// ListRequestsByState returns all requests in the given state, oldest first.
func (db *DB) ListRequestsByState(ctx context.Context, state domain.RequestState) ([]domain.Request, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, comment_id, handle, fact_text, state, relevance, answer
		 FROM requests WHERE state = $1 ORDER BY created_at`, string(state))
	if err != nil {
		return nil, fmt.Errorf("list requests by state: %w", err)
	}

	return scanRequests(rows)
}

// ApproveRequest transitions a pending request to approved, recording the
// classifier's justification. The state predicate makes the write a no-op on
// anything but a pending row.
func (db *DB) ApproveRequest(ctx context.Context, id, relevance string) error {
	return db.transitionRequest(ctx, "approve request",
		`UPDATE requests SET state = $2, relevance = $3 WHERE id = $1 AND state = $4`,
		id, string(domain.RequestApproved), relevance, string(domain.RequestPending))
}

// RejectRequest transitions a pending request to rejected with a reason.
func (db *DB) RejectRequest(ctx context.Context, id, reason string) error {
	return db.transitionRequest(ctx, "reject request",
		`UPDATE requests SET state = $2, relevance = $3 WHERE id = $1 AND state = $4`,
		id, string(domain.RequestRejected), reason, string(domain.RequestPending))
}

// CompleteRequest transitions an approved request to answered, storing the
// published answer text.
func (db *DB) CompleteRequest(ctx context.Context, id, answer string) error {
	return db.transitionRequest(ctx, "complete request",
		`UPDATE requests SET state = $2, answer = $3 WHERE id = $1 AND state = $4`,
		id, string(domain.RequestAnswered), answer, string(domain.RequestApproved))
}

// DeleteRequest removes an orphaned request whose comment no longer exists.
func (db *DB) DeleteRequest(ctx context.Context, id string) error {
	if _, err := db.Pool.Exec(ctx, `DELETE FROM requests WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete request: %w", err)
	}

	return nil
}

func (db *DB) transitionRequest(ctx context.Context, op, query string, args ...any) error {
	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, coreerrors.ErrRequestNotFound)
	}

	return nil
}

func scanRequests(rows pgx.Rows) ([]domain.Request, error) {
	defer rows.Close()

	var requests []domain.Request

	for rows.Next() {
		var (
			r                 domain.Request
			state             string
			relevance, answer pgtype.Text
		)

		if err := rows.Scan(&r.ID, &r.CommentID, &r.Handle, &r.Text, &state, &relevance, &answer); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}

		r.State = domain.RequestState(state)
		r.Relevance = fromTextPtr(relevance)
		r.Answer = fromTextPtr(answer)
		requests = append(requests, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}

	return requests, nil
}
