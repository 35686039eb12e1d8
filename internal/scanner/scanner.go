// Package scanner drives incremental data intake: video discovery per tracked
// channel, mention-comment discovery per video, and age-based bucket demotion.
// Watermarks advance after every successful scan attempt, including attempts
// that find nothing, but never on transport errors.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/checktube/check-bot/internal/core/domain"
	"github.com/checktube/check-bot/internal/platform/config"
	"github.com/checktube/check-bot/internal/platform/observability"
	"github.com/checktube/check-bot/internal/youtube"
)

type Repository interface {
	ListActiveChannels(ctx context.Context) ([]domain.Channel, error)
	TouchChannelChecked(ctx context.Context, id string, checkedAt time.Time) error
	UpsertVideo(ctx context.Context, video domain.Video) error
	ListVideosByBucket(ctx context.Context, bucket domain.Bucket) ([]domain.Video, error)
	UpdateVideoBucket(ctx context.Context, id string, bucket domain.Bucket) error
	TouchVideoScanned(ctx context.Context, id string, scannedAt time.Time) error
	AddComment(ctx context.Context, comment domain.Comment) (bool, error)
}

type VideoSource interface {
	DiscoverVideos(ctx context.Context, channelID string, since *time.Time) ([]youtube.VideoInfo, error)
	DiscoverMentionReplies(ctx context.Context, videoID string, since *time.Time) ([]domain.Comment, error)
}

type Scanner struct {
	repo   Repository
	source VideoSource
	cfg    *config.Config
	logger *zerolog.Logger
}

func New(repo Repository, source VideoSource, cfg *config.Config, logger *zerolog.Logger) *Scanner {
	return &Scanner{repo: repo, source: source, cfg: cfg, logger: logger}
}

// DiscoverAll fetches new uploads for every active channel and stores them
// with a bucket assigned from their age at discovery. A failing channel is
// logged and skipped so one dead channel cannot stall the rest; its watermark
// stays put and the next pass retries the same range.
func (s *Scanner) DiscoverAll(ctx context.Context) error {
	channels, err := s.repo.ListActiveChannels(ctx)
	if err != nil {
		return fmt.Errorf("list active channels: %w", err)
	}

	now := time.Now()

	for _, channel := range channels {
		if err := s.discoverChannel(ctx, channel, now); err != nil {
			s.logger.Error().Err(err).Str("channel_id", channel.ID).Msg("Video discovery failed")
		}
	}

	return nil
}

func (s *Scanner) discoverChannel(ctx context.Context, channel domain.Channel, now time.Time) error {
	videos, err := s.source.DiscoverVideos(ctx, channel.ID, channel.LastCheckedAt)
	if err != nil {
		return err
	}

	for _, info := range videos {
		video := domain.Video{
			ID:          info.ID,
			ChannelID:   channel.ID,
			Title:       info.Title,
			PublishedAt: info.PublishedAt,
			Bucket:      s.bucketForAge(now.Sub(info.PublishedAt)),
		}

		if err := s.repo.UpsertVideo(ctx, video); err != nil {
			return fmt.Errorf("upsert video %s: %w", video.ID, err)
		}

		observability.VideosDiscovered.Inc()

		s.logger.Debug().
			Str("video_id", video.ID).
			Str("bucket", string(video.Bucket)).
			Msg("Video discovered")
	}

	if err := s.repo.TouchChannelChecked(ctx, channel.ID, now); err != nil {
		return fmt.Errorf("advance channel watermark: %w", err)
	}

	return nil
}

// ScanBucket fetches new mention replies for every video in a bucket and
// stores them. The video watermark advances after each successful attempt,
// found comments or not, so the fetch window stays bounded across ticks.
func (s *Scanner) ScanBucket(ctx context.Context, bucket domain.Bucket) error {
	videos, err := s.repo.ListVideosByBucket(ctx, bucket)
	if err != nil {
		return fmt.Errorf("list %s videos: %w", bucket, err)
	}

	for _, video := range videos {
		if err := s.scanVideo(ctx, video); err != nil {
			s.logger.Error().Err(err).Str("video_id", video.ID).Msg("Comment scan failed")
			continue
		}

		observability.VideosScanned.WithLabelValues(string(bucket)).Inc()
	}

	return nil
}

func (s *Scanner) scanVideo(ctx context.Context, video domain.Video) error {
	comments, err := s.source.DiscoverMentionReplies(ctx, video.ID, video.LastScannedAt)
	if err != nil {
		return err
	}

	now := time.Now()

	for _, comment := range comments {
		inserted, err := s.repo.AddComment(ctx, comment)
		if err != nil {
			return fmt.Errorf("store comment %s: %w", comment.ID, err)
		}

		if inserted {
			observability.CommentsIngested.Inc()

			s.logger.Info().
				Str("comment_id", comment.ID).
				Str("video_id", video.ID).
				Str("author", comment.AuthorHandle).
				Msg("Mention comment ingested")
		}
	}

	if err := s.repo.TouchVideoScanned(ctx, video.ID, now); err != nil {
		return fmt.Errorf("advance video watermark: %w", err)
	}

	return nil
}

// Demote moves videos down the tiers as they age: hot videos past the hot
// cutoff become medium, medium videos past the medium cutoff become cold.
// Cold is the floor; only registry reconciliation freezes videos.
func (s *Scanner) Demote(ctx context.Context) error {
	now := time.Now()

	if err := s.demoteBucket(ctx, domain.BucketHot, domain.BucketMedium, now, s.cfg.HotAgeCutoff); err != nil {
		return err
	}

	return s.demoteBucket(ctx, domain.BucketMedium, domain.BucketCold, now, s.cfg.MediumAgeCutoff)
}

func (s *Scanner) demoteBucket(ctx context.Context, from, to domain.Bucket, now time.Time, cutoff time.Duration) error {
	videos, err := s.repo.ListVideosByBucket(ctx, from)
	if err != nil {
		return fmt.Errorf("list %s videos: %w", from, err)
	}

	for _, video := range videos {
		if now.Sub(video.PublishedAt) < cutoff {
			continue
		}

		if err := s.repo.UpdateVideoBucket(ctx, video.ID, to); err != nil {
			return fmt.Errorf("demote video %s: %w", video.ID, err)
		}

		s.logger.Info().
			Str("video_id", video.ID).
			Str("from", string(from)).
			Str("to", string(to)).
			Msg("Video demoted")
	}

	return nil
}

func (s *Scanner) bucketForAge(age time.Duration) domain.Bucket {
	switch {
	case age < s.cfg.HotAgeCutoff:
		return domain.BucketHot
	case age < s.cfg.MediumAgeCutoff:
		return domain.BucketMedium
	default:
		return domain.BucketCold
	}
}
