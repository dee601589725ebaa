package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "archviz.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	os.Unsetenv("CONFIG_FILE")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Server.Address)
	assert.Equal(t, StorageFilesystem, cfg.Storage.Backend)
	assert.Equal(t, "diagrams", cfg.Storage.DiagramsDir)
	assert.Equal(t, RendererProcess, cfg.Renderer.Backend)
	assert.Equal(t, 10*time.Second, cfg.Renderer.Timeout)
	assert.Equal(t, MetricsSinkPrometheus, cfg.Observability.MetricsSink)
	assert.Empty(t, cfg.File)
	assert.Equal(t, []string{"-Djava.awt.headless=true", "-jar", "lib/plantuml.jar", "-pipe", "-tsvg", "-charset", "UTF-8"}, cfg.RendererArgs())
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
environment: production
logLevel: warn
storage:
  backend: memory
renderer:
  backend: remote
  remoteUrl: http://plantuml:8080
  timeout: 5s
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("RENDER_TIMEOUT", "7s")
	t.Setenv("PORT", "8081")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, "http://plantuml:8080", cfg.Renderer.RemoteURL)
	assert.Equal(t, 7*time.Second, cfg.Renderer.Timeout)
	assert.Equal(t, ":8081", cfg.Server.Address)
	assert.Equal(t, path, cfg.File)
}

func TestLoadConfig_MetricsSink(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
environment: staging
observability:
  metricsSink: cloudwatch
  flushInterval: 30s
`)
	t.Setenv("CONFIG_FILE", path)

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, MetricsSinkCloudWatch, cfg.Observability.MetricsSink)
	assert.Equal(t, 30*time.Second, cfg.Observability.FlushInterval)
	assert.Equal(t, "ArchViz/staging", cfg.MetricsNamespace())

	t.Setenv("METRICS_NAMESPACE", "Custom/NS")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "Custom/NS", cfg.MetricsNamespace())
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := LoadConfig()

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown store", func(c *Config) { c.Storage.Backend = "s3" }},
		{"unknown renderer", func(c *Config) { c.Renderer.Backend = "kroki" }},
		{"remote without url", func(c *Config) { c.Renderer.Backend = RendererRemote }},
		{"dynamodb without table", func(c *Config) { c.Storage.Backend = StorageDynamoDB; c.Storage.DynamoDBTable = "" }},
		{"zero timeout", func(c *Config) { c.Renderer.Timeout = 0 }},
		{"bad sample rate", func(c *Config) { c.Observability.SampleRate = 2 }},
		{"unknown metrics sink", func(c *Config) { c.Observability.MetricsSink = "statsd" }},
		{"cloudwatch without interval", func(c *Config) {
			c.Observability.MetricsSink = MetricsSinkCloudWatch
			c.Observability.FlushInterval = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "logLevel: info\n")
	t.Setenv("CONFIG_FILE", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	w, err := NewWatcher(cfg, zap.NewNop())
	require.NoError(t, err)

	changed := make(chan *Config, 1)
	w.OnChange(func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	})
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("logLevel: debug\nrenderer:\n  timeout: 3s\n"), 0o644))

	select {
	case next := <-changed:
		assert.Equal(t, "debug", next.LogLevel)
		assert.Equal(t, 3*time.Second, next.Renderer.Timeout)
		assert.Equal(t, next, w.Current())
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not observed")
	}
}

func TestWatcher_KeepsCurrentOnInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "logLevel: info\n")
	t.Setenv("CONFIG_FILE", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	w, err := NewWatcher(cfg, zap.NewNop())
	require.NoError(t, err)
	w.reload()
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: tape\n"), 0o644))
	w.reload()

	assert.Equal(t, "info", w.Current().LogLevel)
	w.Stop()
}
