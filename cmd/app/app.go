package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ratematch/internal/config"
	"ratematch/internal/facts"
	"ratematch/internal/metrics"
	"ratematch/internal/provider"
	"ratematch/internal/rates"
	"ratematch/internal/repository"
	"ratematch/internal/service"
	"ratematch/internal/worker"
)

const sourceName = "currencyfreaks"

// App holds all application dependencies and manages their lifecycle.
type App struct {
	cfg            *config.Config
	logger         *zap.SugaredLogger
	db             *sql.DB
	rdbCache       *redis.Client
	rdbAsynq       *redis.Client
	registry       *prometheus.Registry
	metrics        *metrics.Metrics
	facts          *facts.Manager
	asynqClient    *asynq.Client
	asynqServer    *asynq.Server
	asynqMux       *asynq.ServeMux
	asynqScheduler *asynq.Scheduler
	monitor        *asynqmon.HTTPHandler
	httpServer     *http.Server
}

// NewApp initializes all dependencies and returns a ready-to-run App. The
// initial snapshot is downloaded here; the service does not start without it.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	app := &App{
		cfg:    cfg,
		logger: logger,
	}

	if err := app.initStorage(ctx); err != nil {
		_ = app.close()
		return nil, err
	}

	if err := app.initServices(ctx); err != nil {
		_ = app.close()
		return nil, err
	}

	return app, nil
}

// close releases database and Redis connections
func (app *App) close() error {
	var errs []error
	if app.asynqClient != nil {
		if err := app.asynqClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("asynq client close: %w", err))
		}
	}
	if app.rdbAsynq != nil {
		if err := app.rdbAsynq.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis asynq close: %w", err))
		}
	}
	if app.rdbCache != nil {
		if err := app.rdbCache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis cache close: %w", err))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("db close: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (app *App) initStorage(ctx context.Context) error {
	db, err := repository.NewPostgresDB(ctx, &app.cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to Postgres: %w", err)
	}
	app.db = db

	if err := repository.RunMigrations(ctx, app.db, app.logger); err != nil {
		return fmt.Errorf("run DB migrations: %w", err)
	}

	app.rdbCache = redis.NewClient(&redis.Options{
		Addr: app.cfg.Redis.CacheAddr,
	})
	if err := app.rdbCache.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to Redis (cache, %s): %w", app.cfg.Redis.CacheAddr, err)
	}
	app.logger.Infow("Connected to Redis cache", "addr", app.cfg.Redis.CacheAddr)

	return nil
}

func (app *App) initServices(ctx context.Context) error {
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(app.registry)

	table, source, err := app.initTable(ctx)
	if err != nil {
		return err
	}

	app.facts = newFactManager(app.cfg.Facts, app.rdbCache, app.metrics, app.logger)

	redisOpt := asynq.RedisClientOpt{Addr: app.cfg.Redis.AsynqAddr}
	maxRetry := app.cfg.Worker.MaxRetry
	timeout := time.Duration(app.cfg.Worker.TimeoutSec) * time.Second

	app.rdbAsynq = redis.NewClient(&redis.Options{Addr: app.cfg.Redis.AsynqAddr})
	app.asynqClient = asynq.NewClient(redisOpt)
	app.asynqServer = asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:              app.cfg.Worker.Concurrency,
			DelayedTaskCheckInterval: time.Duration(app.cfg.Worker.CheckIntervalSec) * time.Second,
			TaskCheckInterval:        time.Duration(app.cfg.Worker.CheckIntervalSec) * time.Second,
		},
	)
	app.logger.Infow("Asynq configured", "addr", app.cfg.Redis.AsynqAddr)

	rateService := service.NewRateService(service.Deps{
		Table:      table,
		Source:     source,
		SourceName: sourceName,
		Repo:       repository.NewPostgresRefreshJobRepository(app.db),
		Enqueuer:   worker.NewAsynqEnqueuer(app.asynqClient, maxRetry, timeout),
		Facts:      app.facts,
		Metrics:    app.metrics,
	}, app.logger)

	app.asynqMux = worker.NewServeMux(rateService, app.logger)

	if app.cfg.Worker.RefreshCron != "" {
		app.asynqScheduler = asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{})
		entryID, err := worker.RegisterRefreshSchedule(app.asynqScheduler, app.cfg.Worker.RefreshCron, maxRetry, timeout)
		if err != nil {
			return fmt.Errorf("register refresh schedule: %w", err)
		}
		app.logger.Infow("Scheduled rate refresh", "cron", app.cfg.Worker.RefreshCron, "entry_id", entryID)
	}

	app.initHTTP(rateService)
	return nil
}

// initTable downloads the first snapshot and builds the rate table from it.
func (app *App) initTable(ctx context.Context) (*rates.Table, provider.SnapshotSource, error) {
	classifier, err := config.LoadClassifier(app.cfg.Table.ClassificationFile)
	if err != nil {
		return nil, nil, err
	}
	app.logger.Infow("Loaded currency classification", "fiat_codes", classifier.Len())

	cf := app.cfg.CurrencyFreaks
	source := provider.NewCurrencyFreaksSource(cf.BaseURL, cf.APIKey, cf.Timeout)

	snap, err := source.Fetch(ctx)
	if err != nil {
		app.metrics.RecordFetch(0, err)
		return nil, nil, fmt.Errorf("fetch initial snapshot: %w", err)
	}
	app.metrics.RecordFetch(snap.Len(), nil)

	table, err := rates.New(classifier, app.cfg.Table.StartingCurrency, snap)
	if err != nil {
		return nil, nil, fmt.Errorf("build rate table: %w", err)
	}
	app.logger.Infow("Rate table ready",
		"provider_base", snap.Base(),
		"symbols", snap.Len(),
		"base", table.Base())

	return table, source, nil
}

// newFactManager returns nil when facts are disabled; a nil *facts.Manager
// reports facts.ErrFactsDisabled.
func newFactManager(cfg config.FactsConfig, cache *redis.Client, m *metrics.Metrics, logger *zap.SugaredLogger) *facts.Manager {
	if !cfg.Enabled {
		logger.Infow("Fun facts disabled")
		return nil
	}

	gen := facts.NewOpenAIGenerator(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.SystemPrompt)
	return facts.NewManager(
		gen,
		facts.NewRedisCache(cache, time.Duration(cfg.CacheTTLSec)*time.Second),
		facts.Options{
			RequestsPerMinute: cfg.RequestsPerMinute,
			Retention:         time.Duration(cfg.RetentionSec) * time.Second,
			Metrics:           m,
		},
		logger,
	)
}

// Run starts the HTTP server, Asynq worker and scheduler, blocking until the
// context is canceled.
func (app *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Infow("Starting Asynq worker server")
		if err := app.asynqServer.Start(app.asynqMux); err != nil {
			return fmt.Errorf("asynq worker failed to start: %w", err)
		}

		<-ctx.Done()
		return nil
	})

	if app.asynqScheduler != nil {
		g.Go(func() error {
			app.logger.Infow("Starting Asynq scheduler")
			if err := app.asynqScheduler.Start(); err != nil {
				return fmt.Errorf("asynq scheduler failed to start: %w", err)
			}

			<-ctx.Done()
			return nil
		})
	}

	g.Go(func() error {
		app.logger.Infow("HTTP server listening", "port", app.cfg.Server.Port)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return app.shutdown()
	})

	return g.Wait()
}

// shutdown performs ordered teardown: fact tasks, HTTP server, Asynq, then
// connections.
func (app *App) shutdown() error {
	app.logger.Infow("Shutting down server...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 1-2. End fact generations, then drain HTTP
	errs = append(errs, app.drainHTTP(shutdownCtx)...)

	// 3. Stop scheduling and drain in-flight Asynq tasks
	if app.asynqScheduler != nil {
		app.asynqScheduler.Shutdown()
	}
	app.asynqServer.Shutdown()

	if app.monitor != nil {
		if err := app.monitor.Close(); err != nil {
			errs = append(errs, fmt.Errorf("asynqmon close: %w", err))
		}
	}

	// 4. Close connections (asynq client, Redis, database)
	if err := app.close(); err != nil {
		app.logger.Errorw("Connection cleanup errors", "error", err)
		errs = append(errs, err)
	}

	app.logger.Infow("Shutdown complete")
	return errors.Join(errs...)
}

// drainHTTP cancels fact generation first so open fact streams finish, then
// stops the HTTP server and waits for in-flight requests.
func (app *App) drainHTTP(ctx context.Context) []error {
	var errs []error
	if err := app.facts.Close(ctx); err != nil {
		app.logger.Errorw("Fact manager shutdown error", "error", err)
		errs = append(errs, fmt.Errorf("facts close: %w", err))
	}
	if err := app.httpServer.Shutdown(ctx); err != nil {
		app.logger.Errorw("HTTP server shutdown error", "error", err)
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	return errs
}
