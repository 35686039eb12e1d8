package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TickerTask represents a recurring task driven by its own ticker.
// Each task runs in its own goroutine, so tasks of different tiers may
// overlap in time; a single task never overlaps itself because every run is
// gated by a per-task Guard.
type TickerTask struct {
	Name       string
	Interval   time.Duration
	RunOnStart bool
	Run        func(ctx context.Context)
}

// TickerConfig configures a ticker-based worker loop.
type TickerConfig struct {
	// Name identifies the worker for logging.
	Name string

	// Tasks are the ticker-triggered tasks to run.
	Tasks []TickerTask

	// OnStart is called once, synchronously, before any task starts.
	OnStart func(ctx context.Context)

	// OnSkip is called with the task name when a tick is skipped because the
	// previous run of the same task is still in flight.
	OnSkip func(name string)

	// Logger for the worker.
	Logger *zerolog.Logger
}

// TickerLoop runs all configured tasks until the context is canceled and
// returns the wrapped context error. In-flight runs are waited for before
// returning.
func TickerLoop(ctx context.Context, cfg TickerConfig) error {
	logger := getLogger(cfg.Logger)
	logger.Info().Str(logFieldWorker, cfg.Name).Msg("starting ticker loop")

	if cfg.OnStart != nil {
		cfg.OnStart(ctx)
	}

	var wg sync.WaitGroup

	for i := range cfg.Tasks {
		task := cfg.Tasks[i]
		if task.Interval <= 0 || task.Run == nil {
			continue
		}

		wg.Add(1)

		go func() {
			defer wg.Done()
			runTaskLoop(ctx, task, cfg.OnSkip, logger)
		}()
	}

	<-ctx.Done()
	wg.Wait()

	logger.Info().Str(logFieldWorker, cfg.Name).Msg("ticker loop stopped")

	return fmt.Errorf("ticker loop %s: %w", cfg.Name, ctx.Err())
}

func runTaskLoop(ctx context.Context, task TickerTask, onSkip func(string), logger *zerolog.Logger) {
	var (
		guard Guard
		runs  sync.WaitGroup
	)

	// Each tick is dispatched on its own goroutine so the guard, not the loop,
	// decides whether a slow run blocks the next tick: an overlapping tick is
	// skipped, never queued behind the previous one.
	dispatch := func() {
		if !guard.TryStart() {
			logger.Warn().Str(logFieldTask, task.Name).Msg("previous run still in flight, skipping tick")

			if onSkip != nil {
				onSkip(task.Name)
			}

			return
		}

		runs.Add(1)

		go func() {
			defer runs.Done()
			defer guard.Done()
			defer RecoverPanic(logger, task.Name)

			task.Run(ctx)
		}()
	}

	defer runs.Wait()

	if task.RunOnStart {
		logger.Debug().Str(logFieldTask, task.Name).Msg("running initial task")
		dispatch()
	}

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Debug().Str(logFieldTask, task.Name).Msg("ticker fired")
			dispatch()
		}
	}
}
