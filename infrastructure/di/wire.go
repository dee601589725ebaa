//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"archviz/infrastructure/config"
	"archviz/interfaces/http/rest"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogLevel,
	ProvideLogger,
	ProvideErrorHandler,
	ProvideCollector,
	ProvideTracerProvider,
	ProvideTracer,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideMetricsSink,
	ProvideDiagramStore,
	ProvideRendererLimits,
	ProvideRenderer,
	ProvideEventPublisher,
	ProvideRepositoryService,
	ProvideTemplates,
	ProvideReadinessCheck,
	ProvideRouterOptions,
	rest.NewRouter,
	ProvideHTTPHandler,
	ProvideConfigWatcher,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
