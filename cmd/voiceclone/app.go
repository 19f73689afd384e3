package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bobarin/voiceclone/internal/api"
	"github.com/bobarin/voiceclone/internal/config"
	"github.com/bobarin/voiceclone/internal/engine"
	"github.com/bobarin/voiceclone/internal/logger"
	"github.com/bobarin/voiceclone/internal/metrics"
	"github.com/bobarin/voiceclone/internal/services"
	"github.com/bobarin/voiceclone/internal/storage"
	"github.com/bobarin/voiceclone/internal/synth"
)

// App is everything a command needs, wired once.
type App struct {
	cfg     *config.Config
	proc    *synth.Processor
	metrics *metrics.Metrics // nil when METRICS_ENABLED=false
}

// setup loads config, initializes logging and builds the processor around a
// lazily started inference worker. quiet keeps logs off the terminal.
func setup(g *Globals, quiet bool) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	g.apply(cfg)

	if err := logger.Init(logger.Config{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
		Quiet: quiet,
	}); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	stor, err := storage.New(cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	loader := services.NewF5Loader(services.F5LoaderOptions{
		Command:        cfg.EngineCommand,
		Args:           cfg.EngineArgs,
		StartupTimeout: cfg.EngineStartupTimeout,
		RequestTimeout: cfg.EngineRequestTimeout,
	})
	handle := engine.NewHandle(loader)
	proc := synth.NewProcessor(handle, stor)

	app := &App{cfg: cfg, proc: proc}
	if cfg.MetricsEnabled {
		app.metrics = metrics.New()
		handle.SetObserver(app.metrics)
		proc.SetRecorder(app.metrics)
	}

	logger.Infof("Engine command: %s %v (loaded on demand)", cfg.EngineCommand, cfg.EngineArgs)
	return app, nil
}

// Router builds the HTTP API for this app.
func (a *App) Router() http.Handler {
	handler := api.NewHandler(a.proc, a.cfg.MaxUploadBytes())

	routerCfg := api.RouterConfig{
		BackendAPIKey:      a.cfg.BackendAPIKey,
		CorsAllowedOrigins: a.cfg.CorsAllowedOrigins,
	}
	if a.metrics != nil {
		routerCfg.Metrics = a.metrics.Handler()
	}
	return api.NewRouter(handler, routerCfg)
}

// Close releases the model (stopping the worker process) and flushes logs.
func (a *App) Close() {
	a.proc.Unload(context.Background())
	logger.Sync()
}
