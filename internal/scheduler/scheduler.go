// Package scheduler drives the tiered rescan regime. Each tier runs on its
// own ticker with a single-flight guard, so a slow cycle skips ticks instead
// of overlapping itself; different tiers may run concurrently since they work
// on disjoint bucket partitions. The request pipeline is the exception: it
// operates over shared pending/approved sets and is serialized through a
// storage advisory lock, which also holds across multiple worker instances.
package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/checktube/check-bot/internal/core/domain"
	"github.com/checktube/check-bot/internal/platform/config"
	"github.com/checktube/check-bot/internal/platform/observability"
	"github.com/checktube/check-bot/internal/platform/worker"
	"github.com/checktube/check-bot/internal/registry"
)

// pipelineLockID is the advisory lock key serializing pipeline stages.
const pipelineLockID int64 = 2000

const (
	tierHot    = "hot"
	tierMedium = "medium"
	tierCold   = "cold"
)

type ChannelRegistry interface {
	Reconcile(ctx context.Context, externalIDs []string) error
}

type VideoScanner interface {
	DiscoverAll(ctx context.Context) error
	ScanBucket(ctx context.Context, bucket domain.Bucket) error
	Demote(ctx context.Context) error
}

type RequestPipeline interface {
	Run(ctx context.Context) error
}

type Locker interface {
	// TryAcquireAdvisoryLock returns a release func bound to the session that
	// took the lock, or acquired=false when another session holds it.
	TryAcquireAdvisoryLock(ctx context.Context, lockID int64) (release func(context.Context) error, acquired bool, err error)
}

type Scheduler struct {
	registry ChannelRegistry
	scanner  VideoScanner
	pipeline RequestPipeline
	locker   Locker
	cfg      *config.Config
	logger   *zerolog.Logger

	loadChannelList func() ([]string, error)
}

func New(
	channelRegistry ChannelRegistry,
	videoScanner VideoScanner,
	requestPipeline RequestPipeline,
	locker Locker,
	cfg *config.Config,
	logger *zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		registry: channelRegistry,
		scanner:  videoScanner,
		pipeline: requestPipeline,
		locker:   locker,
		cfg:      cfg,
		logger:   logger,
		loadChannelList: func() ([]string, error) {
			return registry.LoadChannelList(cfg.ChannelListPath)
		},
	}
}

// Run performs the startup sync, then enters the timer regime until the
// context is canceled. The hot tier fires once immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	return worker.TickerLoop(ctx, worker.TickerConfig{
		Name: "scheduler",
		OnStart: func(ctx context.Context) {
			if err := s.startupSync(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Startup sync failed, continuing with stored state")
			}
		},
		OnSkip: func(name string) {
			observability.TierRuns.WithLabelValues(name, observability.TierStatusSkipped).Inc()
		},
		Tasks: []worker.TickerTask{
			{
				Name:       tierHot,
				Interval:   s.cfg.HotInterval,
				RunOnStart: true,
				Run:        s.tierRun(tierHot, s.runHot),
			},
			{
				Name:     tierMedium,
				Interval: s.cfg.MediumInterval,
				Run:      s.tierRun(tierMedium, s.runMedium),
			},
			{
				Name:     tierCold,
				Interval: s.cfg.ColdInterval,
				Run:      s.tierRun(tierCold, s.runCold),
			},
		},
		Logger: s.logger,
	})
}

// RunOnce performs a single full pass: registry sync, discovery, a scan of
// every live bucket, the request pipeline, and the demotion sweep.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if err := s.startupSync(ctx); err != nil {
		return err
	}

	for _, bucket := range []domain.Bucket{domain.BucketHot, domain.BucketMedium, domain.BucketCold} {
		if err := s.scanner.ScanBucket(ctx, bucket); err != nil {
			return fmt.Errorf("scan %s bucket: %w", bucket, err)
		}
	}

	if err := s.runPipeline(ctx); err != nil {
		return err
	}

	return s.scanner.Demote(ctx)
}

func (s *Scheduler) startupSync(ctx context.Context) error {
	if err := s.reconcile(ctx); err != nil {
		return err
	}

	if err := s.scanner.DiscoverAll(ctx); err != nil {
		return fmt.Errorf("discover videos: %w", err)
	}

	return nil
}

func (s *Scheduler) reconcile(ctx context.Context) error {
	ids, err := s.loadChannelList()
	if err != nil {
		return fmt.Errorf("load channel list: %w", err)
	}

	if err := s.registry.Reconcile(ctx, ids); err != nil {
		return fmt.Errorf("reconcile channels: %w", err)
	}

	return nil
}

// tierRun wraps a tier action with outcome accounting. Errors do not escape:
// the tier logs, records the failed run, and lets the next tick retry.
func (s *Scheduler) tierRun(tier string, action func(ctx context.Context) error) func(ctx context.Context) {
	return func(ctx context.Context) {
		if err := action(ctx); err != nil {
			observability.TierRuns.WithLabelValues(tier, observability.TierStatusError).Inc()
			s.logger.Error().Err(err).Str("tier", tier).Msg("Tier run failed")

			return
		}

		observability.TierRuns.WithLabelValues(tier, observability.TierStatusOK).Inc()
	}
}

func (s *Scheduler) runHot(ctx context.Context) error {
	if err := s.scanner.ScanBucket(ctx, domain.BucketHot); err != nil {
		return fmt.Errorf("scan hot bucket: %w", err)
	}

	return s.runPipeline(ctx)
}

func (s *Scheduler) runMedium(ctx context.Context) error {
	if err := s.scanner.ScanBucket(ctx, domain.BucketMedium); err != nil {
		return fmt.Errorf("scan medium bucket: %w", err)
	}

	return nil
}

func (s *Scheduler) runCold(ctx context.Context) error {
	if err := s.reconcile(ctx); err != nil {
		return err
	}

	if err := s.scanner.DiscoverAll(ctx); err != nil {
		return fmt.Errorf("discover videos: %w", err)
	}

	if err := s.scanner.ScanBucket(ctx, domain.BucketCold); err != nil {
		return fmt.Errorf("scan cold bucket: %w", err)
	}

	return s.scanner.Demote(ctx)
}

// runPipeline runs the request pipeline under the process-wide advisory lock.
// Losing the lock race is not an error: another run is already working the
// same pending/approved sets and this tick has nothing to add.
func (s *Scheduler) runPipeline(ctx context.Context) error {
	release, acquired, err := s.locker.TryAcquireAdvisoryLock(ctx, pipelineLockID)
	if err != nil {
		return fmt.Errorf("acquire pipeline lock: %w", err)
	}

	if !acquired {
		s.logger.Warn().Msg("Pipeline already running elsewhere, skipping")
		return nil
	}

	defer func() {
		if err := release(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Pipeline lock release failed")
		}
	}()

	return s.pipeline.Run(ctx)
}
