package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"newspipe/internal/config"
	"newspipe/internal/domain"
	"newspipe/internal/infrastructure/images"
	"newspipe/internal/infrastructure/llm"
	"newspipe/internal/infrastructure/markdown"
	"newspipe/internal/infrastructure/parser"
	"newspipe/internal/infrastructure/scheduler"
	"newspipe/internal/infrastructure/site"
	"newspipe/internal/ledger"
	"newspipe/internal/logging"
	"newspipe/internal/scanner"
	"newspipe/internal/store"
	"newspipe/internal/usecase"
)

// Options tune a single invocation on top of the loaded config.
type Options struct {
	SkipReview bool
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	ledger   *ledger.Ledger
	logger   *slog.Logger
}

// New builds a runnable application instance. The caller owns Close.
func New(cfg config.Config, baseLogger *slog.Logger, opts Options) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	led, err := ledger.Open(ledgerPath(cfg))
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	st := store.New(cfg.Paths.DataDir)

	registry := scanner.NewRegistry()
	registry.Register(parser.NewFeedScanner(nil))
	registry.Register(parser.NewRSSScanner(nil))

	gemini := llm.NewGeminiClient(cfg.Gemini, baseLogger.With("component", "gemini"))

	imageDir := filepath.Join(st.Dir(domain.StageImages), "images")
	processor := images.NewProcessor(imageDir, nil, baseLogger.With("component", "images"))

	publisher := site.NewPublisher(
		cfg.Site.Dir,
		st.Dir(domain.StageImages),
		cfg.Site.NPMCommand,
		baseLogger.With("component", "site"),
	)
	reviewer := site.NewAppReviewer(cfg.Review.AppPath, baseLogger.With("component", "review"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Registry:       registry,
		Fetcher:        parser.NewArticleFetcher(nil),
		Grouper:        gemini,
		Translator:     gemini,
		Converter:      markdown.NewConverter(),
		Images:         processor,
		Publisher:      publisher,
		Reviewer:       reviewer,
		Ledger:         led,
		Store:          st,
		Logger:         baseLogger.With("component", "pipeline"),
		Feed:           cfg.Feed,
		TranslatePause: cfg.Gemini.Pause(),
		SkipReview:     opts.SkipReview,
	})

	return &Application{cfg: cfg, pipeline: pipeline, ledger: led, logger: baseLogger}, nil
}

// Run performs a single full pipeline execution.
func (a *Application) Run(ctx context.Context) error {
	return a.pipeline.Run(ctx)
}

// RunStep executes one named step of the pipeline.
func (a *Application) RunStep(ctx context.Context, step usecase.Step, stageArg string) error {
	return a.pipeline.RunStep(ctx, step, stageArg)
}

// RunScheduled blocks running the full pipeline on the configured cron
// schedule until the context is cancelled.
func (a *Application) RunScheduled(ctx context.Context) error {
	spec := a.cfg.Scheduler.CronExpression
	if spec == "" {
		return fmt.Errorf("no cron expression configured (set SCHEDULE_CRON)")
	}

	sched := usecase.NewScheduler(
		scheduler.NewCronScheduler(spec),
		a.pipeline,
		a.logger.With("component", "scheduler"),
	)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("scheduler started", "cron", spec)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}

// Close releases the ledger file handle.
func (a *Application) Close() error {
	return a.ledger.Close()
}

func ledgerPath(cfg config.Config) string {
	if filepath.IsAbs(cfg.Paths.LedgerFile) {
		return cfg.Paths.LedgerFile
	}
	return filepath.Join(cfg.Paths.DataDir, cfg.Paths.LedgerFile)
}
