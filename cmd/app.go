package main

import (
	"context"
	"fmt"
	"time"

	"granville/internal/jobs"
	"granville/internal/pool"
	"granville/internal/queue"
	"granville/internal/ranker"
	"granville/internal/server"
	"granville/internal/worker"
	"granville/pkg/backend"
	"granville/pkg/config"
	"granville/pkg/logger"
	"granville/pkg/modelspec"
	"granville/pkg/monitoring"

	"go.uber.org/zap"
)

// Application manages the lifecycle of the inference kernel.
type Application struct {
	cfg   *config.Config
	specs []string

	driver   backend.Driver
	pool     *pool.Pool
	unranked *queue.Unranked
	ranked   *queue.Ranked
	server   *server.Server
	status   *monitoring.Server

	jobsManager *jobs.Manager
	workers     int
	startedAt   time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApplication creates an application for the given config and model
// specs.
func NewApplication(cfg *config.Config, specs []string) *Application {
	ctx, cancel := context.WithCancel(context.Background())
	return &Application{
		cfg:    cfg,
		specs:  specs,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Initialize brings up every component. Any error is a startup failure;
// the caller tears down whatever was built and exits non-zero.
func (app *Application) Initialize() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"logging", app.initLogger},
		{"driver", app.initDriver},
		{"models", app.initModels},
		{"engine", app.initEngine},
		{"socket", app.initServer},
		{"status endpoint", app.initStatus},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}

func (app *Application) initLogger() error {
	return logger.Init(app.cfg.Logger)
}

func (app *Application) initDriver() error {
	drv, err := backend.Open(app.cfg.Server.Driver)
	if err != nil {
		return err
	}
	app.driver = drv
	logger.Info("driver loaded",
		zap.String("name", drv.Name()),
		zap.String("version", drv.Version()),
	)
	return nil
}

func (app *Application) initModels() error {
	app.pool = pool.New(app.driver)
	for _, raw := range app.specs {
		spec, err := modelspec.Parse(raw)
		if err != nil {
			return err
		}
		if _, err := app.pool.Load(spec); err != nil {
			return err
		}
	}
	return nil
}

func (app *Application) initEngine() error {
	app.unranked = queue.NewUnranked()
	app.ranked = queue.NewRanked(app.cfg.Server.QueueSize)

	app.workers = app.cfg.Server.Workers
	if app.workers <= 0 {
		app.workers = worker.DefaultCount(app.pool.Count())
	}

	app.jobsManager = jobs.NewManager(app.ctx)
	app.jobsManager.Register(ranker.New(app.unranked, app.ranked, app.pool, app.cfg.Ranker.MaxTokens))
	for i := 1; i <= app.workers; i++ {
		app.jobsManager.Register(worker.New(i, app.ranked, app.pool, app.cfg.Ranker.MaxResponseBytes))
	}
	app.jobsManager.Register(monitoring.NewCollector(5*time.Second, func() monitoring.Sample {
		return monitoring.Sample{
			UnrankedDepth: app.unranked.Len(),
			RankedDepth:   app.ranked.Len(),
			Active:        app.pool.ActiveRequests(),
		}
	}))
	return nil
}

func (app *Application) initServer() error {
	app.server = server.New(app.unranked, app.ranked)
	return app.server.Listen(app.cfg.Server.Socket)
}

func (app *Application) initStatus() error {
	if app.cfg.Server.StatusPort == 0 {
		return nil
	}
	app.status = monitoring.NewServer(app.cfg.Server.StatusPort, func() monitoring.Status {
		return monitoring.Status{
			Version:       Version,
			Driver:        app.driver.Name(),
			DriverVersion: app.driver.Version(),
			Models:        app.pool.Count(),
			Workers:       app.workers,
			UnrankedDepth: app.unranked.Len(),
			RankedDepth:   app.ranked.Len(),
			Active:        app.pool.ActiveRequests(),
			UptimeSeconds: int64(time.Since(app.startedAt).Seconds()),
		}
	})
	return nil
}

// Start launches the background loops and the accept loop.
func (app *Application) Start() {
	app.startedAt = time.Now()
	app.jobsManager.Start()
	if app.status != nil {
		app.status.Start()
	}
	go app.server.Serve()
	logger.Info("granville serving",
		zap.String("socket", app.cfg.Server.Socket),
		zap.Int("models", app.pool.Count()),
		zap.Int("workers", app.workers),
		zap.Int("queue_size", app.cfg.Server.QueueSize),
	)
}

// Shutdown stops accepting, lets the loops finish their current task, and
// tears down the pool.
func (app *Application) Shutdown(timeout time.Duration) error {
	if app.server != nil {
		_ = app.server.Close()
	}

	app.cancel()
	done := make(chan struct{})
	go func() {
		app.jobsManager.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		logger.Warn("shutdown timed out waiting for background loops")
	}

	if app.status != nil {
		_ = app.status.Shutdown(5 * time.Second)
	}
	return app.pool.Close()
}

// Teardown releases whatever Initialize managed to build. Safe after
// partial initialization.
func (app *Application) Teardown() {
	app.cancel()
	if app.server != nil {
		_ = app.server.Close()
	}
	if app.pool != nil {
		_ = app.pool.Close()
	} else if app.driver != nil {
		_ = app.driver.Close()
	}
}
