package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vk/dagwalk/internal/builder"
	"github.com/vk/dagwalk/internal/config"
	"github.com/vk/dagwalk/internal/ctxlog"
	"github.com/vk/dagwalk/internal/metrics"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logW    io.Writer
	logger  *slog.Logger
	config  *Config
	model   *config.Model
	graph   *builder.Graph
	metrics *metrics.Observer

	registry   *prometheus.Registry
	httpServer *http.Server
}

// NewApp is the constructor for the main application. Results are written to
// outW and logs to logW. It loads every definition under cfg.GraphPath and
// builds the selected graph; failures at this stage are fatal startup errors
// and cause a panic. loaders overrides DefaultLoaders when given.
func NewApp(outW, logW io.Writer, cfg *Config, loaders map[string]config.Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if loaders == nil {
		loaders = DefaultLoaders()
	}
	model, err := loadModel(ctx, cfg.GraphPath, loaders)
	if err != nil {
		panic(fmt.Errorf("failed to load graph definitions: %w", err))
	}
	logger.Debug("Definitions loaded into unified model.", "graphs", model.Names())

	graph, err := builder.BuildNamed(ctx, model, cfg.GraphName)
	if err != nil {
		panic(fmt.Errorf("failed to build graph: %w", err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	return &App{
		outW:     outW,
		logW:     logW,
		logger:   logger,
		config:   cfg,
		model:    model,
		graph:    graph,
		metrics:  metrics.New(reg),
		registry: reg,
	}
}

// Graph returns the built graph. This is primarily for testing.
func (a *App) Graph() *builder.Graph {
	return a.graph
}
