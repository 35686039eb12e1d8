// Package app provides the main application bootstrap and runtime orchestration.
//
// The App type wires the collaborators together: storage, the authorized
// YouTube client with its quota recorder, the LLM client, and the registry,
// scanner, pipeline, and scheduler built on top of them.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/checktube/check-bot/internal/llm"
	"github.com/checktube/check-bot/internal/pipeline"
	"github.com/checktube/check-bot/internal/platform/config"
	"github.com/checktube/check-bot/internal/platform/observability"
	"github.com/checktube/check-bot/internal/registry"
	"github.com/checktube/check-bot/internal/scanner"
	"github.com/checktube/check-bot/internal/scheduler"
	db "github.com/checktube/check-bot/internal/storage"
	"github.com/checktube/check-bot/internal/youtube"
)

// App holds the application dependencies and builds the worker graph.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
}

// New creates a new App instance with the given dependencies.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	srv := observability.NewServer(a.database, a.cfg.HealthPort, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// Run authorizes the platform client and starts the scheduler. With once set
// it performs a single full pass and returns instead of entering the timer
// regime.
func (a *App) Run(ctx context.Context, once bool) error {
	a.logger.Info().Bool("once", once).Str("handle", a.cfg.SelfHandle).Msg("Starting check bot")

	sched, err := a.buildScheduler(ctx)
	if err != nil {
		return err
	}

	if once {
		if err := sched.RunOnce(ctx); err != nil {
			return fmt.Errorf("single pass: %w", err)
		}

		return nil
	}

	if err := sched.Run(ctx); err != nil {
		return fmt.Errorf("scheduler run: %w", err)
	}

	return nil
}

func (a *App) buildScheduler(ctx context.Context) (*scheduler.Scheduler, error) {
	quota := youtube.NewRecorder()

	ytLogger := a.componentLogger("youtube")

	platform := youtube.New(a.cfg, quota, ytLogger)
	if err := platform.Authorize(ctx); err != nil {
		return nil, fmt.Errorf("youtube authorization: %w", err)
	}

	llmClient := llm.New(a.cfg, a.componentLogger("llm"))

	channelRegistry := registry.New(a.database, a.componentLogger("registry"))
	videoScanner := scanner.New(a.database, platform, a.cfg, a.componentLogger("scanner"))
	requestPipeline := pipeline.New(a.database, platform, llmClient, a.cfg, a.componentLogger("pipeline"))

	return scheduler.New(
		channelRegistry,
		videoScanner,
		requestPipeline,
		a.database,
		a.cfg,
		a.componentLogger("scheduler"),
	), nil
}

func (a *App) componentLogger(name string) *zerolog.Logger {
	logger := a.logger.With().Str("component", name).Logger()

	return &logger
}
