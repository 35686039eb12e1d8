package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/checktube/check-bot/internal/core/domain"
	coreerrors "github.com/checktube/check-bot/internal/core/errors"
)

// GetChannel returns the channel with the given id, or ErrChannelNotFound.
func (db *DB) GetChannel(ctx context.Context, id string) (*domain.Channel, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, is_active, last_checked_at FROM channels WHERE id = $1`, id)

	var (
		c         domain.Channel
		checkedAt pgtype.Timestamptz
	)

	if err := row.Scan(&c.ID, &c.IsActive, &checkedAt); err != nil {
		if errorsIsNoRows(err) {
			return nil, coreerrors.ErrChannelNotFound
		}

		return nil, fmt.Errorf("get channel: %w", err)
	}

	c.LastCheckedAt = fromTimestamptzPtr(checkedAt)

	return &c, nil
}

// ListChannels returns every stored channel, active or frozen.
func (db *DB) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, is_active, last_checked_at FROM channels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}

	return scanChannels(rows)
}

// ListActiveChannels returns channels still present in the external list.
func (db *DB) ListActiveChannels(ctx context.Context) ([]domain.Channel, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, is_active, last_checked_at FROM channels WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list active channels: %w", err)
	}

	return scanChannels(rows)
}

// AddChannel creates a channel in the active state. Re-adding an existing id
// changes nothing: frozen channels stay frozen.
func (db *DB) AddChannel(ctx context.Context, id string) error {
	if _, err := db.Pool.Exec(ctx,
		`INSERT INTO channels (id, is_active) VALUES ($1, TRUE)
		 ON CONFLICT (id) DO NOTHING`, id); err != nil {
		return fmt.Errorf("add channel: %w", err)
	}

	return nil
}

// FreezeChannel marks a channel inactive. Freezing is monotonic and
// idempotent; frozen channels are never reactivated.
func (db *DB) FreezeChannel(ctx context.Context, id string) error {
	if _, err := db.Pool.Exec(ctx,
		`UPDATE channels SET is_active = FALSE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("freeze channel: %w", err)
	}

	return nil
}

// TouchChannelChecked advances the video-discovery watermark.
func (db *DB) TouchChannelChecked(ctx context.Context, id string, t time.Time) error {
	if _, err := db.Pool.Exec(ctx,
		`UPDATE channels SET last_checked_at = $2 WHERE id = $1`, id, toTimestamptz(t)); err != nil {
		return fmt.Errorf("touch channel checked: %w", err)
	}

	return nil
}

func scanChannels(rows pgx.Rows) ([]domain.Channel, error) {
	defer rows.Close()

	var channels []domain.Channel

	for rows.Next() {
		var (
			c         domain.Channel
			checkedAt pgtype.Timestamptz
		)

		if err := rows.Scan(&c.ID, &c.IsActive, &checkedAt); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}

		c.LastCheckedAt = fromTimestamptzPtr(checkedAt)
		channels = append(channels, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channels: %w", err)
	}

	return channels, nil
}
