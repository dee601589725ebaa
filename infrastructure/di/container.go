package di

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"archviz/application/ports"
	"archviz/application/services"
	"archviz/infrastructure/config"
	"archviz/infrastructure/rendering"
	"archviz/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	LogLevel    zap.AtomicLevel
	Collector   *observability.Collector
	MetricsSink *observability.CloudWatchSink // nil unless metrics are pushed to CloudWatch
	Tracing     *observability.TracerProvider
	Store       ports.DiagramStore
	Renderer    ports.Renderer
	Limits      *rendering.Limits
	Publisher   ports.EventPublisher
	Service     *services.RepositoryService
	Watcher     *config.Watcher
	Handler     http.Handler
}

// Start begins background work such as config hot reload
func (c *Container) Start() {
	if c.MetricsSink != nil {
		c.MetricsSink.Start(c.Config.Observability.FlushInterval)
	}
	if c.Watcher != nil {
		c.Watcher.Start()
		c.Logger.Info("Watching config file", zap.String("file", c.Config.File))
	}
}

// Shutdown stops background work and flushes telemetry
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Watcher != nil {
		c.Watcher.Stop()
	}
	if c.MetricsSink != nil {
		if err := c.MetricsSink.Stop(ctx); err != nil {
			c.Logger.Warn("Failed to publish final metrics", zap.Error(err))
		}
	}
	err := c.Tracing.Shutdown(ctx)
	_ = c.Logger.Sync()
	return err
}
