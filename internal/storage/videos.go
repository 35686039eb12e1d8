package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/checktube/check-bot/internal/core/domain"
)

// UpsertVideo inserts a discovered video or refreshes its metadata. The
// comment-scan watermark is deliberately left alone: rediscovery must not
// reset how far a video has already been scanned.
func (db *DB) UpsertVideo(ctx context.Context, v domain.Video) error {
	if _, err := db.Pool.Exec(ctx,
		`INSERT INTO videos (id, channel_id, title, published_at, bucket)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   channel_id = excluded.channel_id,
		   title = excluded.title,
		   published_at = excluded.published_at,
		   bucket = excluded.bucket`,
		v.ID, v.ChannelID, v.Title, toTimestamptz(v.PublishedAt), string(v.Bucket)); err != nil {
		return fmt.Errorf("upsert video: %w", err)
	}

	return nil
}

// ListVideosByBucket returns all videos currently in the given bucket.
func (db *DB) ListVideosByBucket(ctx context.Context, bucket domain.Bucket) ([]domain.Video, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, channel_id, title, published_at, bucket, last_scanned_at
		 FROM videos WHERE bucket = $1 ORDER BY published_at DESC`, string(bucket))
	if err != nil {
		return nil, fmt.Errorf("list videos by bucket: %w", err)
	}

	return scanVideos(rows)
}

// ListVideosByChannel returns all videos belonging to a channel.
func (db *DB) ListVideosByChannel(ctx context.Context, channelID string) ([]domain.Video, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, channel_id, title, published_at, bucket, last_scanned_at
		 FROM videos WHERE channel_id = $1 ORDER BY published_at DESC`, channelID)
	if err != nil {
		return nil, fmt.Errorf("list videos by channel: %w", err)
	}

	return scanVideos(rows)
}

// UpdateVideoBucket moves a video to another bucket. Demotion sweeps and
// channel freezes are the only callers; nothing ever moves a video hotter.
func (db *DB) UpdateVideoBucket(ctx context.Context, id string, bucket domain.Bucket) error {
	if _, err := db.Pool.Exec(ctx,
		`UPDATE videos SET bucket = $2 WHERE id = $1`, id, string(bucket)); err != nil {
		return fmt.Errorf("update video bucket: %w", err)
	}

	return nil
}

// FreezeVideosByChannel moves every video of a channel to the frozen bucket,
// whatever bucket it is in. Idempotent.
func (db *DB) FreezeVideosByChannel(ctx context.Context, channelID string) error {
	if _, err := db.Pool.Exec(ctx,
		`UPDATE videos SET bucket = $2 WHERE channel_id = $1`,
		channelID, string(domain.BucketFrozen)); err != nil {
		return fmt.Errorf("freeze videos by channel: %w", err)
	}

	return nil
}

// TouchVideoScanned advances the comment-scan watermark after a scan attempt,
// whether or not the scan found anything.
func (db *DB) TouchVideoScanned(ctx context.Context, id string, t time.Time) error {
	if _, err := db.Pool.Exec(ctx,
		`UPDATE videos SET last_scanned_at = $2 WHERE id = $1`, id, toTimestamptz(t)); err != nil {
		return fmt.Errorf("touch video scanned: %w", err)
	}

	return nil
}

func scanVideos(rows pgx.Rows) ([]domain.Video, error) {
	defer rows.Close()

	var videos []domain.Video

	for rows.Next() {
		var (
			v         domain.Video
			bucket    string
			scannedAt pgtype.Timestamptz
		)

		if err := rows.Scan(&v.ID, &v.ChannelID, &v.Title, &v.PublishedAt, &bucket, &scannedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}

		v.Bucket = domain.Bucket(bucket)
		v.LastScannedAt = fromTimestamptzPtr(scannedAt)
		videos = append(videos, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}
