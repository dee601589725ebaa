package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"archviz/infrastructure/config"
	"archviz/infrastructure/messaging"
	"archviz/infrastructure/messaging/eventbridge"
	"archviz/infrastructure/rendering"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Storage.Backend = config.StorageFilesystem
	cfg.Storage.DiagramsDir = t.TempDir()
	cfg.Observability.EnableMetrics = true
	return cfg
}

func TestInitializeContainer(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	cfg := testConfig(t)

	container, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Shutdown(context.Background()) })

	assert.Nil(t, container.Watcher)
	assert.Nil(t, container.MetricsSink)
	assert.IsType(t, &messaging.LoggingPublisher{}, container.Publisher)
	assert.Equal(t, cfg.Renderer.Timeout, container.Limits.Timeout())

	rec := httptest.NewRecorder()
	container.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	container.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProvideDiagramStore_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = "postgres"

	_, err := ProvideDiagramStore(cfg, nil, ProvideCollector(), nil, zap.NewNop())
	assert.Error(t, err)
}

func TestProvideEventPublisher(t *testing.T) {
	cfg := testConfig(t)
	assert.IsType(t, &messaging.LoggingPublisher{}, ProvideEventPublisher(cfg, nil, zap.NewNop()))

	cfg.Events.Enabled = true
	assert.IsType(t, &eventbridge.Publisher{}, ProvideEventPublisher(cfg, nil, zap.NewNop()))
}

func TestProvideMetricsSink(t *testing.T) {
	cfg := testConfig(t)
	collector := ProvideCollector()
	assert.Nil(t, ProvideMetricsSink(cfg, nil, collector, zap.NewNop()))

	cfg.Observability.MetricsSink = config.MetricsSinkCloudWatch
	assert.NotNil(t, ProvideMetricsSink(cfg, nil, collector, zap.NewNop()))
}

func TestProvideLogLevel(t *testing.T) {
	cfg := testConfig(t)
	cfg.LogLevel = "warn"
	level, err := ProvideLogLevel(cfg)
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, level.Level())

	cfg.LogLevel = "loud"
	_, err = ProvideLogLevel(cfg)
	assert.Error(t, err)
}

func TestApplyRuntimeConfig(t *testing.T) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	limits := rendering.NewLimits(10 * time.Second)

	next := config.Default()
	next.LogLevel = "debug"
	next.Renderer.Timeout = 3 * time.Second
	applyRuntimeConfig(next, level, limits, zap.NewNop())

	assert.Equal(t, zapcore.DebugLevel, level.Level())
	assert.Equal(t, 3*time.Second, limits.Timeout())
}
