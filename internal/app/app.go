package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/vk/prefabgo/internal/assets"
	"github.com/vk/prefabgo/internal/builtin"
	"github.com/vk/prefabgo/internal/ctxlog"
	"github.com/vk/prefabgo/internal/hcl"
	"github.com/vk/prefabgo/internal/registry"
	"github.com/vk/prefabgo/internal/spawner"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	server   *assets.Server
	spawner  *spawner.Spawner
}

// coreModules is the descriptor set installed when the caller passes none.
var coreModules = []registry.Module{builtin.Module{}}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// A registry that fails validation is a programmer error and panics.
func NewApp(outW io.Writer, config *Config, modules ...registry.Module) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	if err := reg.Install(modules...); err != nil {
		panic(err)
	}
	if err := reg.Validate(ctx); err != nil {
		panic(err)
	}
	logger.Debug("Registry populated and validated.",
		"components", len(reg.ComponentAliases()),
		"variants", len(reg.PrefabAliases()),
	)

	server := assets.NewServer(hcl.NewLoader())

	return &App{
		outW:     outW,
		logger:   logger,
		config:   config,
		registry: reg,
		server:   server,
		spawner:  spawner.New(server, reg),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Server returns the application's asset server. This is primarily for testing.
func (a *App) Server() *assets.Server {
	return a.server
}
