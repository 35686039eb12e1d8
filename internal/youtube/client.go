// Package youtube wraps the YouTube Data API v3 for the check bot: OAuth
// access, incremental video discovery, mention-reply discovery, thread
// context fetches, and reply publishing. All list and insert calls feed the
// quota recorder so spend is visible at runtime.
package youtube

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/checktube/check-bot/internal/core/domain"
	coreerrors "github.com/checktube/check-bot/internal/core/errors"
	"github.com/checktube/check-bot/internal/platform/config"
)

const (
	playlistPageSize = 50
	commentPageSize  = 100

	channelIDPrefix = "UC"
	uploadsPrefix   = "UU"
)

// VideoInfo is a discovered upload, before it gets a bucket assigned.
type VideoInfo struct {
	ID          string
	Title       string
	PublishedAt time.Time
}

// Service is the authorized platform client.
type Service struct {
	cfg    *config.Config
	oauth  *oauth2.Config
	api    *yt.Service
	quota  *Recorder
	logger *zerolog.Logger
}

func New(cfg *config.Config, quota *Recorder, logger *zerolog.Logger) *Service {
	return &Service{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.YouTubeClientID,
			ClientSecret: cfg.YouTubeClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  fmt.Sprintf("http://localhost:%d%s", cfg.OAuthCallbackPort, oauthCallbackPath),
			Scopes:       []string{yt.YoutubeForceSslScope},
		},
		quota:  quota,
		logger: logger,
	}
}

func (s *Service) ensureAuthorized() error {
	if s.api == nil {
		return coreerrors.ErrNotAuthorized
	}

	return nil
}

func (s *Service) initAPI(ctx context.Context, token *oauth2.Token) error {
	api, err := yt.NewService(ctx, option.WithTokenSource(s.oauth.TokenSource(ctx, token)))
	if err != nil {
		return fmt.Errorf("init youtube service: %w", err)
	}

	s.api = api

	return nil
}

// DiscoverVideos lists a channel's uploads newer than the watermark, newest
// first. Lookback is bounded twice: never past DiscoveryLookback, and never
// more than DiscoveryMaxPages playlist pages per call. A nil watermark means
// first discovery, bounded by the lookback alone.
func (s *Service) DiscoverVideos(ctx context.Context, channelID string, since *time.Time) ([]VideoInfo, error) {
	if err := s.ensureAuthorized(); err != nil {
		return nil, err
	}

	playlistID, err := uploadsPlaylistID(channelID)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-s.cfg.DiscoveryLookback)
	if since != nil && since.After(cutoff) {
		cutoff = *since
	}

	var (
		videos    []VideoInfo
		pageToken string
	)

	for page := 0; page < s.cfg.DiscoveryMaxPages; page++ {
		call := s.api.PlaylistItems.List([]string{"snippet", "contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(playlistPageSize).
			PageToken(pageToken).
			Context(ctx)

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list uploads for channel %s: %w", channelID, err)
		}

		s.quota.Add(unitCostList)

		for _, item := range resp.Items {
			publishedAt, err := parseTimestamp(item.ContentDetails.VideoPublishedAt)
			if err != nil {
				s.logger.Warn().Err(err).Str("video_id", item.ContentDetails.VideoId).
					Msg("Skipping upload with unparsable publish time")

				continue
			}

			// Uploads playlists are newest-first, so the first item at or
			// behind the cutoff ends the walk.
			if !publishedAt.After(cutoff) {
				return videos, nil
			}

			videos = append(videos, VideoInfo{
				ID:          item.ContentDetails.VideoId,
				Title:       item.Snippet.Title,
				PublishedAt: publishedAt,
			})
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return videos, nil
}

// DiscoverMentionReplies walks a video's comment threads and returns the
// reply-level comments that mention the bot's handle and were published after
// the watermark. Lookback is capped at ScanMinLookback: a stale or missing
// watermark never re-fetches more than that much history.
func (s *Service) DiscoverMentionReplies(ctx context.Context, videoID string, since *time.Time) ([]domain.Comment, error) {
	if err := s.ensureAuthorized(); err != nil {
		return nil, err
	}

	effectiveSince := clampSince(since, time.Now(), s.cfg.ScanMinLookback)

	var (
		mentions  []domain.Comment
		pageToken string
	)

	for {
		call := s.api.CommentThreads.List([]string{"snippet"}).
			VideoId(videoID).
			Order("time").
			MaxResults(commentPageSize).
			PageToken(pageToken).
			Context(ctx)

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list comment threads for video %s: %w", videoID, err)
		}

		s.quota.Add(unitCostList)

		for _, thread := range resp.Items {
			if thread.Snippet.TotalReplyCount == 0 {
				continue
			}

			replies, err := s.listReplies(ctx, thread.Snippet.TopLevelComment.Id)
			if err != nil {
				return nil, err
			}

			for _, reply := range replies {
				if reply.PublishedAt.After(effectiveSince) && strings.Contains(reply.Text, s.cfg.SelfHandle) {
					mentions = append(mentions, reply)
				}
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			return mentions, nil
		}
	}
}

// ListRepliesByAuthors fetches a thread's parent comment plus every reply and
// keeps the ones written by any of the given handles. Author matching is a
// case-insensitive substring check, since display names do not always equal
// the bare handle.
func (s *Service) ListRepliesByAuthors(ctx context.Context, parentID string, handles []string) ([]domain.Comment, error) {
	if err := s.ensureAuthorized(); err != nil {
		return nil, err
	}

	comments, err := s.listReplies(ctx, parentID)
	if err != nil {
		return nil, err
	}

	parent, err := s.getComment(ctx, parentID)
	if err != nil {
		return nil, err
	}

	if parent != nil {
		comments = append(comments, *parent)
	}

	var matched []domain.Comment

	for _, comment := range comments {
		if authorMatches(comment.AuthorHandle, handles) {
			matched = append(matched, comment)
		}
	}

	return matched, nil
}

// PublishReply posts the answer as a reply under the given parent comment.
func (s *Service) PublishReply(ctx context.Context, parentID, text string) error {
	if err := s.ensureAuthorized(); err != nil {
		return err
	}

	_, err := s.api.Comments.Insert([]string{"snippet"}, &yt.Comment{
		Snippet: &yt.CommentSnippet{
			ParentId:     parentID,
			TextOriginal: text,
		},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("publish reply to %s: %w", parentID, err)
	}

	s.quota.Add(unitCostInsert)

	return nil
}

func (s *Service) listReplies(ctx context.Context, parentID string) ([]domain.Comment, error) {
	var (
		replies   []domain.Comment
		pageToken string
	)

	for {
		call := s.api.Comments.List([]string{"snippet"}).
			ParentId(parentID).
			MaxResults(commentPageSize).
			PageToken(pageToken).
			Context(ctx)

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list replies of comment %s: %w", parentID, err)
		}

		s.quota.Add(unitCostList)

		for _, item := range resp.Items {
			comment, err := toDomainComment(item)
			if err != nil {
				s.logger.Warn().Err(err).Str("comment_id", item.Id).Msg("Skipping unparsable reply")
				continue
			}

			replies = append(replies, comment)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			return replies, nil
		}
	}
}

func (s *Service) getComment(ctx context.Context, id string) (*domain.Comment, error) {
	resp, err := s.api.Comments.List([]string{"snippet"}).Id(id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get comment %s: %w", id, err)
	}

	s.quota.Add(unitCostList)

	if len(resp.Items) == 0 {
		return nil, nil
	}

	comment, err := toDomainComment(resp.Items[0])
	if err != nil {
		return nil, err
	}

	return &comment, nil
}

func toDomainComment(item *yt.Comment) (domain.Comment, error) {
	publishedAt, err := parseTimestamp(item.Snippet.PublishedAt)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("comment %s: %w", item.Id, err)
	}

	return domain.Comment{
		ID:           item.Id,
		ParentID:     item.Snippet.ParentId,
		VideoID:      item.Snippet.VideoId,
		AuthorHandle: item.Snippet.AuthorDisplayName,
		Text:         item.Snippet.TextOriginal,
		PublishedAt:  publishedAt,
	}, nil
}

func authorMatches(author string, handles []string) bool {
	lowered := strings.ToLower(author)

	for _, handle := range handles {
		if strings.Contains(lowered, strings.ToLower(handle)) {
			return true
		}
	}

	return false
}

// clampSince bounds a scan watermark to at most `lookback` of history: a nil
// or stale watermark falls back to now-lookback, a fresh one is kept as is.
func clampSince(since *time.Time, now time.Time, lookback time.Duration) time.Time {
	floor := now.Add(-lookback)
	if since != nil && since.After(floor) {
		return *since
	}

	return floor
}

// uploadsPlaylistID derives the auto-generated uploads playlist from a channel
// id: UCxxxx channels expose their uploads under UUxxxx.
func uploadsPlaylistID(channelID string) (string, error) {
	if !strings.HasPrefix(channelID, channelIDPrefix) || len(channelID) <= len(channelIDPrefix) {
		return "", fmt.Errorf("channel id %q is not a UC-prefixed channel id", channelID)
	}

	return uploadsPrefix + channelID[len(channelIDPrefix):], nil
}

func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}

	return t, nil
}
