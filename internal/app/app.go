package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"ContentGenesis/internal/catalog"
	"ContentGenesis/internal/config"
	"ContentGenesis/internal/domain"
	"ContentGenesis/internal/generation"
	"ContentGenesis/internal/infrastructure/httpapi"
	"ContentGenesis/internal/infrastructure/llm"
	"ContentGenesis/internal/infrastructure/parser"
	"ContentGenesis/internal/infrastructure/scheduler"
	"ContentGenesis/internal/infrastructure/storage"
	"ContentGenesis/internal/infrastructure/telegram"
	"ContentGenesis/internal/logbuf"
	"ContentGenesis/internal/logging"
	"ContentGenesis/internal/progress"
	"ContentGenesis/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *sql.DB
	store     *storage.SQLResultStore
	catalog   *catalog.Index
	pipeline  *usecase.Pipeline
	notifier  *usecase.CompletionNotifier
	scheduler *usecase.Scheduler
}

// New opens storage, resolves providers and builds the pipeline.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	index, err := loadCatalog(cfg.Curriculum)
	if err != nil {
		return nil, fmt.Errorf("load curriculum: %w", err)
	}

	db, err := storage.OpenDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewSQLResultStore(ctx, db, cfg.Database.Driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	registry := generation.NewRegistry()
	llm.Register(registry)
	tiers, err := generation.BuildTiers(registry, cfg.Providers, baseLogger.With("component", "providers"))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	client := generation.NewClient(generation.ClientDeps{
		Tiers:            tiers,
		GroundingEnabled: !cfg.Pipeline.DisableGrounding,
		Normalize:        parser.NormalizeContent,
	})

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Catalog:   index,
		Store:     store,
		Generator: client,
		Bus:       progress.NewBus(baseLogger.With("component", "progress")),
		Logs:      logbuf.New(cfg.Pipeline.LogCapacity),
		Logger:    baseLogger.With("component", "pipeline"),
	})

	a := &Application{
		cfg:      cfg,
		logger:   baseLogger,
		db:       db,
		store:    store,
		catalog:  index,
		pipeline: pipeline,
	}

	tg := cfg.Notifications.Telegram
	if notifier := telegram.NewNotifier(tg.Endpoint, tg.BotToken, tg.ChatID); notifier.Configured() {
		a.notifier = usecase.NewCompletionNotifier(notifier, baseLogger.With("component", "notifier"))
	}

	if cfg.Scheduler.Enabled {
		driver := scheduler.NewIntervalScheduler(cfg.Scheduler.Interval, cfg.Scheduler.Location())
		a.scheduler = usecase.NewScheduler(driver, pipeline, baseLogger.With("component", "scheduler"))
	}

	if stored, err := store.Count(ctx); err == nil {
		baseLogger.Info("genesis ready", "items", index.Total(), "stored", stored,
			"driver", cfg.Database.Driver, "scheduler", cfg.Scheduler.Enabled, "notifications", a.notifier != nil)
	}
	return a, nil
}

func loadCatalog(cfg config.CurriculumConfig) (*catalog.Index, error) {
	if cfg.Path != "" {
		return catalog.Load(cfg.Path)
	}
	return catalog.Default()
}

// Pipeline exposes the orchestrator, mainly for embedding and tests.
func (a *Application) Pipeline() *usecase.Pipeline {
	return a.pipeline
}

// Run serves the HTTP API and the optional scheduler until ctx ends, then
// stops any active run and waits for its in-flight item.
func (a *Application) Run(ctx context.Context) error {
	// Runs must not be cut off mid-item by shutdown; Stop handles that.
	runCtx := context.WithoutCancel(ctx)
	detach := a.attachNotifier(runCtx)
	defer detach()

	api := httpapi.New(httpapi.Deps{
		RunContext: runCtx,
		Pipeline:   a.pipeline,
		Results:    a.store,
		Catalog:    a.catalog,
		Logger:     a.logger.With("component", "http"),
	})
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("http api listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if a.scheduler != nil {
		g.Go(func() error {
			if err := a.scheduler.Start(runCtx); err != nil {
				return fmt.Errorf("scheduler: %w", err)
			}
			<-gctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return a.scheduler.Stop(stopCtx)
		})
	}

	err := g.Wait()
	a.drain()
	return err
}

// RunOnce performs a single sweep and returns its final state. Cancelling ctx
// requests a cooperative stop.
func (a *Application) RunOnce(ctx context.Context) (domain.PipelineState, error) {
	runCtx := context.WithoutCancel(ctx)
	detach := a.attachNotifier(runCtx)
	defer detach()

	if !a.pipeline.Start(runCtx) {
		return a.pipeline.State(), fmt.Errorf("a run is already in progress")
	}
	stopOnCancel := context.AfterFunc(ctx, func() { a.pipeline.Stop() })
	defer stopOnCancel()

	a.pipeline.Wait()
	if a.notifier != nil {
		a.notifier.Wait()
	}
	return a.pipeline.State(), nil
}

// Close releases the database handle.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *Application) drain() {
	if a.pipeline.Stop() {
		a.logger.Info("stopping active run, waiting for in-flight item")
	}
	a.pipeline.Wait()
	if a.notifier != nil {
		a.notifier.Wait()
	}
}

func (a *Application) attachNotifier(ctx context.Context) func() {
	if a.notifier == nil {
		return func() {}
	}
	return a.notifier.Attach(ctx, a.pipeline)
}
