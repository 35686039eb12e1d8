package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/checktube/check-bot/internal/core/domain"
	"github.com/checktube/check-bot/internal/platform/config"
	"github.com/checktube/check-bot/internal/youtube"
)

type fakeRepo struct {
	channels map[string]*domain.Channel
	videos   map[string]*domain.Video
	comments map[string]domain.Comment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		channels: make(map[string]*domain.Channel),
		videos:   make(map[string]*domain.Video),
		comments: make(map[string]domain.Comment),
	}
}

func (f *fakeRepo) ListActiveChannels(_ context.Context) ([]domain.Channel, error) {
	var out []domain.Channel

	for _, c := range f.channels {
		if c.IsActive {
			out = append(out, *c)
		}
	}

	return out, nil
}

func (f *fakeRepo) TouchChannelChecked(_ context.Context, id string, checkedAt time.Time) error {
	f.channels[id].LastCheckedAt = &checkedAt

	return nil
}

func (f *fakeRepo) UpsertVideo(_ context.Context, video domain.Video) error {
	if existing, ok := f.videos[video.ID]; ok {
		video.LastScannedAt = existing.LastScannedAt
	}

	f.videos[video.ID] = &video

	return nil
}

func (f *fakeRepo) ListVideosByBucket(_ context.Context, bucket domain.Bucket) ([]domain.Video, error) {
	var out []domain.Video

	for _, v := range f.videos {
		if v.Bucket == bucket {
			out = append(out, *v)
		}
	}

	return out, nil
}

func (f *fakeRepo) UpdateVideoBucket(_ context.Context, id string, bucket domain.Bucket) error {
	f.videos[id].Bucket = bucket

	return nil
}

func (f *fakeRepo) TouchVideoScanned(_ context.Context, id string, scannedAt time.Time) error {
	f.videos[id].LastScannedAt = &scannedAt

	return nil
}

func (f *fakeRepo) AddComment(_ context.Context, comment domain.Comment) (bool, error) {
	if _, ok := f.comments[comment.ID]; ok {
		return false, nil
	}

	f.comments[comment.ID] = comment

	return true, nil
}

type fakeSource struct {
	videos   map[string][]youtube.VideoInfo
	comments map[string][]domain.Comment
	errs     map[string]error
}

func (f *fakeSource) DiscoverVideos(_ context.Context, channelID string, _ *time.Time) ([]youtube.VideoInfo, error) {
	if err := f.errs[channelID]; err != nil {
		return nil, err
	}

	return f.videos[channelID], nil
}

func (f *fakeSource) DiscoverMentionReplies(_ context.Context, videoID string, _ *time.Time) ([]domain.Comment, error) {
	if err := f.errs[videoID]; err != nil {
		return nil, err
	}

	return f.comments[videoID], nil
}

func testConfig() *config.Config {
	return &config.Config{
		HotAgeCutoff:    7 * 24 * time.Hour,
		MediumAgeCutoff: 30 * 24 * time.Hour,
	}
}

func testScanner(repo *fakeRepo, source *fakeSource) *Scanner {
	logger := zerolog.Nop()

	return New(repo, source, testConfig(), &logger)
}

func TestDiscoverAllAssignsBucketsByAge(t *testing.T) {
	now := time.Now()

	repo := newFakeRepo()
	repo.channels["UC1"] = &domain.Channel{ID: "UC1", IsActive: true}

	source := &fakeSource{videos: map[string][]youtube.VideoInfo{
		"UC1": {
			{ID: "v-young", PublishedAt: now.Add(-24 * time.Hour)},
			{ID: "v-mid", PublishedAt: now.Add(-14 * 24 * time.Hour)},
			{ID: "v-old", PublishedAt: now.Add(-90 * 24 * time.Hour)},
		},
	}}

	if err := testScanner(repo, source).DiscoverAll(context.Background()); err != nil {
		t.Fatalf("discover failed: %v", err)
	}

	expected := map[string]domain.Bucket{
		"v-young": domain.BucketHot,
		"v-mid":   domain.BucketMedium,
		"v-old":   domain.BucketCold,
	}

	for id, bucket := range expected {
		if repo.videos[id].Bucket != bucket {
			t.Fatalf("%s: expected bucket %s, got %s", id, bucket, repo.videos[id].Bucket)
		}
	}

	if repo.channels["UC1"].LastCheckedAt == nil {
		t.Fatal("expected channel watermark to advance after discovery")
	}
}

func TestDiscoverAllSkipsFailingChannel(t *testing.T) {
	now := time.Now()

	repo := newFakeRepo()
	repo.channels["UC-bad"] = &domain.Channel{ID: "UC-bad", IsActive: true}
	repo.channels["UC-good"] = &domain.Channel{ID: "UC-good", IsActive: true}

	source := &fakeSource{
		videos: map[string][]youtube.VideoInfo{
			"UC-good": {{ID: "v-1", PublishedAt: now.Add(-time.Hour)}},
		},
		errs: map[string]error{"UC-bad": errors.New("api unavailable")},
	}

	if err := testScanner(repo, source).DiscoverAll(context.Background()); err != nil {
		t.Fatalf("discover failed: %v", err)
	}

	if _, ok := repo.videos["v-1"]; !ok {
		t.Fatal("expected the healthy channel to be discovered despite the failing one")
	}

	if repo.channels["UC-bad"].LastCheckedAt != nil {
		t.Fatal("expected the failing channel's watermark to stay put")
	}

	if repo.channels["UC-good"].LastCheckedAt == nil {
		t.Fatal("expected the healthy channel's watermark to advance")
	}
}

func TestScanBucketAdvancesWatermarkOnEmptyScan(t *testing.T) {
	repo := newFakeRepo()
	repo.videos["v-1"] = &domain.Video{ID: "v-1", Bucket: domain.BucketHot}

	source := &fakeSource{}

	if err := testScanner(repo, source).ScanBucket(context.Background(), domain.BucketHot); err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if repo.videos["v-1"].LastScannedAt == nil {
		t.Fatal("expected watermark to advance even when no comments were found")
	}
}

func TestScanBucketKeepsWatermarkOnError(t *testing.T) {
	repo := newFakeRepo()
	repo.videos["v-1"] = &domain.Video{ID: "v-1", Bucket: domain.BucketHot}

	source := &fakeSource{errs: map[string]error{"v-1": errors.New("api unavailable")}}

	if err := testScanner(repo, source).ScanBucket(context.Background(), domain.BucketHot); err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if repo.videos["v-1"].LastScannedAt != nil {
		t.Fatal("expected watermark to stay put after a failed scan")
	}
}

func TestScanBucketStoresCommentsIdempotently(t *testing.T) {
	now := time.Now()

	repo := newFakeRepo()
	repo.videos["v-1"] = &domain.Video{ID: "v-1", Bucket: domain.BucketHot}

	source := &fakeSource{comments: map[string][]domain.Comment{
		"v-1": {{ID: "c-1", VideoID: "v-1", Text: "@Me check @Bob", PublishedAt: now}},
	}}

	s := testScanner(repo, source)

	for i := 0; i < 2; i++ {
		if err := s.ScanBucket(context.Background(), domain.BucketHot); err != nil {
			t.Fatalf("scan %d failed: %v", i, err)
		}
	}

	if len(repo.comments) != 1 {
		t.Fatalf("expected one stored comment, got %d", len(repo.comments))
	}
}

func TestDemoteIsMonotonic(t *testing.T) {
	now := time.Now()

	repo := newFakeRepo()
	repo.videos["v-aged-hot"] = &domain.Video{
		ID: "v-aged-hot", Bucket: domain.BucketHot, PublishedAt: now.Add(-8 * 24 * time.Hour),
	}
	repo.videos["v-fresh-hot"] = &domain.Video{
		ID: "v-fresh-hot", Bucket: domain.BucketHot, PublishedAt: now.Add(-time.Hour),
	}
	repo.videos["v-aged-medium"] = &domain.Video{
		ID: "v-aged-medium", Bucket: domain.BucketMedium, PublishedAt: now.Add(-31 * 24 * time.Hour),
	}

	s := testScanner(repo, &fakeSource{})

	if err := s.Demote(context.Background()); err != nil {
		t.Fatalf("demotion failed: %v", err)
	}

	if repo.videos["v-aged-hot"].Bucket != domain.BucketMedium {
		t.Fatalf("expected aged hot video in medium, got %s", repo.videos["v-aged-hot"].Bucket)
	}

	if repo.videos["v-fresh-hot"].Bucket != domain.BucketHot {
		t.Fatalf("expected fresh video to stay hot, got %s", repo.videos["v-fresh-hot"].Bucket)
	}

	if repo.videos["v-aged-medium"].Bucket != domain.BucketCold {
		t.Fatalf("expected aged medium video in cold, got %s", repo.videos["v-aged-medium"].Bucket)
	}

	// A second sweep never moves anything hotter.
	if err := s.Demote(context.Background()); err != nil {
		t.Fatalf("second demotion failed: %v", err)
	}

	if repo.videos["v-aged-hot"].Bucket == domain.BucketHot {
		t.Fatal("demotion must never move a video back to hot")
	}
}
