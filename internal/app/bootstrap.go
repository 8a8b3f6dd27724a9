package app

import (
	"fmt"
	"os"

	"scenarist/internal/config"
	"scenarist/internal/engine"
	"scenarist/internal/registry"
	"scenarist/pkg/logging"
)

// Application wires the scenario registry, the response selection engine,
// and the optional definition watcher into one embeddable unit. A test
// harness creates one Application per run and hands its Engine to the
// request interception layer.
//
// The bootstrap sequence is:
//
//  1. Load configuration and initialize logging at the configured level
//  2. Load every scenario definition under the scenario path
//  3. Create the engine (which requires the default scenario to exist)
//  4. Start the definition watcher when hot reload is enabled
type Application struct {
	cfg      config.Config
	registry *registry.Registry
	engine   *engine.Engine
	watcher  *registry.Watcher
}

// New bootstraps an application from the configuration file at configPath.
// An empty configPath uses the built-in defaults: scenarios load from the
// "scenarios" directory and no watcher runs.
func New(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig bootstraps an application from an already-built
// configuration. Harnesses that assemble configuration in code use this
// directly.
func NewWithConfig(cfg config.Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logging.Init(logging.ParseLevel(cfg.LogLevel), os.Stderr)

	reg := registry.New()
	if err := reg.LoadPath(cfg.ScenarioPath); err != nil {
		logging.Error("Bootstrap", err, "Failed to load scenarios from %s", cfg.ScenarioPath)
		return nil, fmt.Errorf("load scenarios from %s: %w", cfg.ScenarioPath, err)
	}

	eng, err := engine.New(reg, cfg)
	if err != nil {
		return nil, err
	}

	app := &Application{cfg: cfg, registry: reg, engine: eng}
	if cfg.WatchScenarios {
		app.watcher = registry.NewWatcher(reg, cfg.ScenarioPath, registry.DefaultDebounceInterval)
		if err := app.watcher.Start(); err != nil {
			logging.Error("Bootstrap", err, "Failed to start scenario watcher on %s", cfg.ScenarioPath)
			return nil, fmt.Errorf("start scenario watcher: %w", err)
		}
		logging.Info("Bootstrap", "Watching %s for scenario changes", cfg.ScenarioPath)
	}

	scenarios := reg.List()
	logging.Info("Bootstrap", "Loaded %d scenario(s) from %s", len(scenarios), cfg.ScenarioPath)
	return app, nil
}

// Engine returns the response selection engine.
func (a *Application) Engine() *engine.Engine {
	return a.engine
}

// Registry returns the scenario registry.
func (a *Application) Registry() *registry.Registry {
	return a.registry
}

// Config returns the effective configuration.
func (a *Application) Config() config.Config {
	return a.cfg
}

// Shutdown stops the definition watcher, if one is running. The engine
// itself holds no external resources.
func (a *Application) Shutdown() {
	if a.watcher != nil {
		a.watcher.Stop()
	}
}
