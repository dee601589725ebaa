package di

import (
	"context"
	"fmt"
	"html/template"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"archviz/application/ports"
	"archviz/application/services"
	"archviz/infrastructure/config"
	"archviz/infrastructure/messaging"
	"archviz/infrastructure/messaging/eventbridge"
	"archviz/infrastructure/persistence"
	"archviz/infrastructure/persistence/dynamodb"
	"archviz/infrastructure/persistence/filesystem"
	"archviz/infrastructure/persistence/memory"
	"archviz/infrastructure/rendering"
	"archviz/interfaces/http/rest"
	"archviz/interfaces/http/web"
	"archviz/pkg/errors"
	"archviz/pkg/observability"
)

// ProvideLogLevel parses the configured level into an adjustable level
func ProvideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	return zap.NewAtomicLevelAt(level), nil
}

// ProvideLogger creates the application logger
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = level

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", cfg.Observability.ServiceName)), nil
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *errors.ErrorHandler {
	return errors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector("archviz")
}

// ProvideTracerProvider initializes tracing
func ProvideTracerProvider(ctx context.Context, cfg *config.Config) (*observability.TracerProvider, error) {
	return observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Observability.EnableTracing,
		ServiceName: cfg.Observability.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.Observability.OTLPEndpoint,
		SampleRate:  cfg.Observability.SampleRate,
	})
}

// ProvideTracer returns the application tracer
func ProvideTracer(tp *observability.TracerProvider) trace.Tracer {
	return tp.Tracer()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Storage.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideMetricsSink creates the CloudWatch push sink, or nil when metrics
// are scraped from /metrics
func ProvideMetricsSink(cfg *config.Config, client *awscloudwatch.Client, collector *observability.Collector, logger *zap.Logger) *observability.CloudWatchSink {
	if cfg.Observability.MetricsSink != config.MetricsSinkCloudWatch {
		return nil
	}
	return observability.NewCloudWatchSink(client, cfg.MetricsNamespace(), collector.Registry(), logger)
}

// ProvideDiagramStore creates the configured store wrapped with metrics and tracing
func ProvideDiagramStore(
	cfg *config.Config,
	client *awsdynamodb.Client,
	collector *observability.Collector,
	tracer trace.Tracer,
	logger *zap.Logger,
) (ports.DiagramStore, error) {
	var store ports.DiagramStore
	switch cfg.Storage.Backend {
	case config.StorageFilesystem:
		fs, err := filesystem.NewDiagramStore(cfg.Storage.DiagramsDir, logger)
		if err != nil {
			return nil, err
		}
		store = fs
	case config.StorageMemory:
		store = memory.NewDiagramStore()
	case config.StorageDynamoDB:
		store = dynamodb.NewDiagramStore(client, cfg.Storage.DynamoDBTable, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	logger.Info("Diagram store initialized", zap.String("backend", cfg.Storage.Backend))
	return persistence.NewInstrumentedStore(store, cfg.Storage.Backend, collector, tracer), nil
}

// ProvideRendererLimits creates the runtime-adjustable render limits
func ProvideRendererLimits(cfg *config.Config) *rendering.Limits {
	return rendering.NewLimits(cfg.Renderer.Timeout)
}

// ProvideRenderer creates the configured renderer wrapped with metrics and tracing
func ProvideRenderer(
	cfg *config.Config,
	limits *rendering.Limits,
	collector *observability.Collector,
	tracer trace.Tracer,
	logger *zap.Logger,
) (ports.Renderer, error) {
	b := cfg.Renderer.Breaker
	renderer, err := rendering.New(rendering.Options{
		Backend:   cfg.Renderer.Backend,
		Command:   cfg.Renderer.Command,
		Args:      cfg.RendererArgs(),
		RemoteURL: cfg.Renderer.RemoteURL,
		Breaker: rendering.BreakerSettings{
			MaxRequests:  b.MaxRequests,
			Interval:     b.Interval,
			OpenTimeout:  b.OpenTimeout,
			FailureRatio: b.FailureRatio,
			MinRequests:  b.MinRequests,
		},
	}, limits, logger)
	if err != nil {
		return nil, err
	}
	return rendering.NewInstrumentedRenderer(renderer, cfg.Renderer.Backend, collector, tracer), nil
}

// ProvideEventPublisher publishes to EventBridge when enabled, otherwise to the log
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if cfg.Events.Enabled {
		return eventbridge.NewPublisher(client, cfg.Events.EventBusName, cfg.Events.Source, logger)
	}
	return messaging.NewLoggingPublisher(logger)
}

// ProvideRepositoryService creates the repository service
func ProvideRepositoryService(
	store ports.DiagramStore,
	renderer ports.Renderer,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *services.RepositoryService {
	return services.NewRepositoryService(store, renderer, publisher, logger)
}

// ProvideTemplates parses the embedded page templates
func ProvideTemplates() (*template.Template, error) {
	return web.Templates()
}

// ProvideReadinessCheck reports ready once the store can list systems
func ProvideReadinessCheck(store ports.DiagramStore) rest.ReadinessCheck {
	return func(ctx context.Context) error {
		_, err := store.ListSystems(ctx)
		return err
	}
}

// ProvideRouterOptions maps configuration onto router options
func ProvideRouterOptions(cfg *config.Config) rest.Options {
	return rest.Options{
		EnableMetrics:  cfg.Observability.EnableMetrics,
		EnableCORS:     cfg.CORS.Enabled,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	}
}

// ProvideHTTPHandler builds the routed handler
func ProvideHTTPHandler(router *rest.Router) http.Handler {
	return router.Setup()
}

// ProvideConfigWatcher watches the config file and hot-applies the log level
// and render timeout. It returns nil when no file was loaded.
func ProvideConfigWatcher(
	cfg *config.Config,
	level zap.AtomicLevel,
	limits *rendering.Limits,
	logger *zap.Logger,
) (*config.Watcher, error) {
	if cfg.File == "" {
		return nil, nil
	}

	watcher, err := config.NewWatcher(cfg, logger)
	if err != nil {
		return nil, err
	}
	watcher.OnChange(func(next *config.Config) {
		applyRuntimeConfig(next, level, limits, logger)
	})
	return watcher, nil
}

func applyRuntimeConfig(next *config.Config, level zap.AtomicLevel, limits *rendering.Limits, logger *zap.Logger) {
	if lvl, err := zapcore.ParseLevel(next.LogLevel); err == nil && lvl != level.Level() {
		level.SetLevel(lvl)
		logger.Info("Log level changed", zap.String("level", lvl.String()))
	}
	if next.Renderer.Timeout != limits.Timeout() {
		limits.SetTimeout(next.Renderer.Timeout)
		logger.Info("Render timeout changed", zap.Duration("timeout", limits.Timeout()))
	}
}
